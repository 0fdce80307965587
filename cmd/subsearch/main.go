package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"subsearch/internal/app"
)

// main is the application entry point and orchestrator setup
func main() {
	// Parse command line flags
	var (
		helpFlag    = flag.Bool("help", false, "Show help message")
		versionFlag = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *helpFlag {
		printHelp()
		os.Exit(0)
	}

	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	// Run the main application logic
	if err := runApplication(); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

// runApplication contains the core application logic that can be tested
func runApplication() error {
	// Create structured logger for main
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Subsearch starting up",
		zap.String("component", "main"),
		zap.String("version", "1.0"))

	// Create application instance using orchestrator
	application, err := app.NewApplication()
	if err != nil {
		logger.Error("Failed to create application",
			zap.Error(err),
			zap.String("component", "main"))
		return fmt.Errorf("failed to create application: %w", err)
	}

	// Set up context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
			zap.String("component", "main"))
		cancel()
	}()

	if err := application.Run(ctx); err != nil {
		logger.Error("Application runtime error",
			zap.Error(err),
			zap.String("component", "main"))
		return fmt.Errorf("application runtime error: %w", err)
	}

	if err := application.Shutdown(); err != nil {
		logger.Error("Error during application shutdown",
			zap.Error(err),
			zap.String("component", "main"))
		return fmt.Errorf("application shutdown error: %w", err)
	}

	logger.Info("Subsearch stopped successfully",
		zap.String("component", "main"))
	return nil
}

// printHelp displays command line usage information
func printHelp() {
	fmt.Println("Subsearch - Subtitle Full-Text Indexing Service")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("    subsearch [OPTIONS]")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("    -help      Show this help message")
	fmt.Println("    -version   Show version information")
	fmt.Println()
	fmt.Println("CONFIGURATION:")
	fmt.Println("    Configuration is loaded from environment variables, or from the")
	fmt.Println("    file named by CONFIG_PATH when it is set.")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("    subsearch                       # Run with default configuration")
	fmt.Println("    SUBSEARCH_HTTP_ADDR=:9090 subsearch")
	fmt.Println("    CONFIG_PATH=config.yaml subsearch")
}

// printVersion displays version and build information
func printVersion() {
	fmt.Println("Subsearch")
	fmt.Println("Version: 1.0")
	fmt.Println("Build: Subtitle Indexing Service")
	fmt.Println("Architecture: Go 1.24 + Bleve")
}
