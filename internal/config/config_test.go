package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfiguration(t *testing.T) {
	t.Run("should provide sensible defaults", func(t *testing.T) {
		// Act
		cfg := NewConfiguration()

		// Assert
		assert.Equal(t, ":8080", cfg.GetHTTPAddr())
		assert.Equal(t, "./data/index", cfg.GetIndexDir())
		assert.Equal(t, "videos", cfg.GetIndexAlias())
		assert.Equal(t, "memory", cfg.GetStoreBackend())
		assert.Equal(t, []string{"127.0.0.1"}, cfg.GetCassandraHosts())
		assert.Equal(t, "subsearch", cfg.GetCassandraKeyspace())
		assert.Equal(t, "memory", cfg.GetCacheBackend())
		assert.Equal(t, "127.0.0.1:6379", cfg.GetRedisAddr())
		assert.False(t, cfg.IsDevelopmentLogging())
	})
}

func TestNewConfigurationFromEnv(t *testing.T) {
	t.Run("should read settings from environment variables", func(t *testing.T) {
		// Arrange
		t.Setenv("SUBSEARCH_HTTP_ADDR", ":9090")
		t.Setenv("SUBSEARCH_INDEX_ALIAS", "fragments")
		t.Setenv("SUBSEARCH_STORE_BACKEND", "cassandra")
		t.Setenv("SUBSEARCH_LOG_DEVELOPMENT", "true")

		// Act
		cfg, err := NewConfigurationFromEnv()

		// Assert
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.GetHTTPAddr())
		assert.Equal(t, "fragments", cfg.GetIndexAlias())
		assert.Equal(t, "cassandra", cfg.GetStoreBackend())
		assert.True(t, cfg.IsDevelopmentLogging())
	})

	t.Run("should fall back to defaults for unset variables", func(t *testing.T) {
		// Act
		cfg, err := NewConfigurationFromEnv()

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "videos", cfg.GetIndexAlias())
		assert.Equal(t, "memory", cfg.GetCacheBackend())
	})
}

func TestNewConfigurationFromFile(t *testing.T) {
	t.Run("should read settings from a YAML file", func(t *testing.T) {
		// Arrange
		configYAML := "http:\n" +
			"  addr: \":7070\"\n" +
			"index:\n" +
			"  dir: \"/var/lib/subsearch\"\n" +
			"  alias: \"fragments\"\n" +
			"cache:\n" +
			"  backend: \"redis\"\n" +
			"redis:\n" +
			"  addr: \"redis:6379\"\n"
		configFile := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte(configYAML), 0o644))

		// Act
		cfg, err := NewConfigurationFromFile(configFile)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.GetHTTPAddr())
		assert.Equal(t, "/var/lib/subsearch", cfg.GetIndexDir())
		assert.Equal(t, "fragments", cfg.GetIndexAlias())
		assert.Equal(t, "redis", cfg.GetCacheBackend())
		assert.Equal(t, "redis:6379", cfg.GetRedisAddr())

		// defaults still apply for settings the file omits
		assert.Equal(t, "memory", cfg.GetStoreBackend())
	})

	t.Run("should fail for a missing file", func(t *testing.T) {
		// Act
		_, err := NewConfigurationFromFile("/does/not/exist.yaml")

		// Assert
		assert.Error(t, err)
	})
}
