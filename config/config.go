package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/searchcache/core"
)

// Config represents the complete searchcache configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server" json:"server"`

	// Backend configuration
	Backend BackendConfig `yaml:"backend" json:"backend"`

	// Search facade configuration
	Search SearchConfig `yaml:"search" json:"search"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// BackendConfig identifies the external vector search backend
type BackendConfig struct {
	// Qdrant gRPC address, e.g. "localhost:6334"
	Address string `yaml:"address" json:"address"`

	// Collection to search
	Collection string `yaml:"collection" json:"collection"`
}

// SearchConfig contains the caching facade configuration
type SearchConfig struct {
	// Distance metric: "cosine", "l2"/"euclidean", "dot"
	DistanceMetric string `yaml:"distance_metric" json:"distance_metric"`

	// Enable result caching
	CacheResults bool `yaml:"cache_results" json:"cache_results"`

	// Maximum number of cached result sets
	CacheCapacity int `yaml:"cache_capacity" json:"cache_capacity"`
}

// LoadConfig loads configuration with the following precedence:
// 1. Environment variables
// 2. Configuration file (~/.searchcache.yml or specified path)
// 3. Default values
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	// If no config path specified, try default location
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			configPath = filepath.Join(homeDir, ".searchcache.yml")
		}
	}

	// Load from file if it exists
	if configPath != "" {
		if err := loadConfigFromFile(configPath, config); err != nil {
			// Only return error if file exists but can't be read
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		}
	}

	// Override with environment variables
	loadConfigFromEnv(config)

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadConfigFromFile loads configuration from a YAML file
func loadConfigFromFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, config)
}

// loadConfigFromEnv loads configuration from environment variables
func loadConfigFromEnv(config *Config) {
	if host := os.Getenv("SEARCHCACHE_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SEARCHCACHE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if addr := os.Getenv("SEARCHCACHE_BACKEND_ADDRESS"); addr != "" {
		config.Backend.Address = addr
	}
	if collection := os.Getenv("SEARCHCACHE_BACKEND_COLLECTION"); collection != "" {
		config.Backend.Collection = collection
	}
	if metric := os.Getenv("SEARCHCACHE_DISTANCE_METRIC"); metric != "" {
		config.Search.DistanceMetric = metric
	}
	if capacity := os.Getenv("SEARCHCACHE_CACHE_CAPACITY"); capacity != "" {
		if c, err := strconv.Atoi(capacity); err == nil {
			config.Search.CacheCapacity = c
		}
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Backend: BackendConfig{
			Address:    "localhost:6334",
			Collection: "vectors",
		},
		Search: SearchConfig{
			DistanceMetric: "euclidean",
			CacheResults:   true,
			CacheCapacity:  core.DefaultCacheCapacity,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", c.Server.Port)
	}

	if c.Backend.Address == "" {
		return fmt.Errorf("backend address is required")
	}
	if c.Backend.Collection == "" {
		return fmt.Errorf("backend collection is required")
	}

	if _, err := core.ParseDistanceMetric(c.Search.DistanceMetric); err != nil {
		return err
	}

	if c.Search.CacheCapacity < 1 {
		return fmt.Errorf("cache capacity must be positive, got %d", c.Search.CacheCapacity)
	}

	return nil
}

// ToSearcherOptions converts the search configuration to core.SearcherOptions
func (s *SearchConfig) ToSearcherOptions() (core.SearcherOptions, error) {
	metric, err := core.ParseDistanceMetric(s.DistanceMetric)
	if err != nil {
		return core.SearcherOptions{}, err
	}

	return core.SearcherOptions{
		DistanceMetric: metric,
		CacheResults:   s.CacheResults,
		CacheCapacity:  s.CacheCapacity,
	}, nil
}
