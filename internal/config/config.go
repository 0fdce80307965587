package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Configuration provides type-safe access to application settings
type Configuration struct {
	viper *viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("index.dir", "./data/index")
	v.SetDefault("index.alias", "videos")
	v.SetDefault("store.backend", "memory")
	v.SetDefault("cassandra.hosts", []string{"127.0.0.1"})
	v.SetDefault("cassandra.keyspace", "subsearch")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("log.development", false)
}

// NewConfiguration creates a new Configuration instance with default settings
func NewConfiguration() *Configuration {
	v := viper.New()
	setDefaults(v)
	return &Configuration{viper: v}
}

// NewConfigurationFromFile creates a Configuration instance from a config file
func NewConfigurationFromFile(configFile string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	return &Configuration{viper: v}, nil
}

// NewConfigurationFromEnv creates a Configuration instance that reads from environment variables
func NewConfigurationFromEnv() (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	// Set up environment variable mapping
	v.SetEnvPrefix("SUBSEARCH")
	v.AutomaticEnv()

	// Map specific environment variables
	v.BindEnv("http.addr", "SUBSEARCH_HTTP_ADDR")
	v.BindEnv("index.dir", "SUBSEARCH_INDEX_DIR")
	v.BindEnv("index.alias", "SUBSEARCH_INDEX_ALIAS")
	v.BindEnv("store.backend", "SUBSEARCH_STORE_BACKEND")
	v.BindEnv("cassandra.hosts", "SUBSEARCH_CASSANDRA_HOSTS")
	v.BindEnv("cassandra.keyspace", "SUBSEARCH_CASSANDRA_KEYSPACE")
	v.BindEnv("cache.backend", "SUBSEARCH_CACHE_BACKEND")
	v.BindEnv("redis.addr", "SUBSEARCH_REDIS_ADDR")
	v.BindEnv("log.development", "SUBSEARCH_LOG_DEVELOPMENT")

	return &Configuration{viper: v}, nil
}

// GetHTTPAddr returns the listen address of the HTTP server
func (c *Configuration) GetHTTPAddr() string {
	return c.viper.GetString("http.addr")
}

// GetIndexDir returns the directory holding the search index generations
func (c *Configuration) GetIndexDir() string {
	return c.viper.GetString("index.dir")
}

// GetIndexAlias returns the stable alias name of the fragment index
func (c *Configuration) GetIndexAlias() string {
	return c.viper.GetString("index.alias")
}

// GetStoreBackend returns the video store backend, "memory" or "cassandra"
func (c *Configuration) GetStoreBackend() string {
	return c.viper.GetString("store.backend")
}

// GetCassandraHosts returns the Cassandra contact points
func (c *Configuration) GetCassandraHosts() []string {
	return c.viper.GetStringSlice("cassandra.hosts")
}

// GetCassandraKeyspace returns the Cassandra keyspace
func (c *Configuration) GetCassandraKeyspace() string {
	return c.viper.GetString("cassandra.keyspace")
}

// GetCacheBackend returns the subtitle cache backend, "memory" or "redis"
func (c *Configuration) GetCacheBackend() string {
	return c.viper.GetString("cache.backend")
}

// GetRedisAddr returns the Redis address for the subtitle cache
func (c *Configuration) GetRedisAddr() string {
	return c.viper.GetString("redis.addr")
}

// IsDevelopmentLogging returns whether logs use the development encoder
func (c *Configuration) IsDevelopmentLogging() bool {
	return c.viper.GetBool("log.development")
}
