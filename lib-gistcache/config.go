package gistcache

import (
	"time"

	"gopkg.in/yaml.v2"
)

var (
	DefaultTTLSeconds             = 300
	DefaultMaxSize                = 1000
	DefaultCleanupIntervalSeconds = 60
	DefaultBaseURL                = "https://api.github.com"
	DefaultTimeoutSeconds         = 10.0
	DefaultPerPage                = 30
)

// CacheConfig is settings of the gists cache.
type CacheConfig struct {
	TTLSeconds             *int `yaml:"ttl_seconds,omitempty"`
	MaxSize                *int `yaml:"max_size,omitempty"`
	CleanupIntervalSeconds *int `yaml:"cleanup_interval_seconds,omitempty"`
}

func (c CacheConfig) Normalized() CacheConfig {
	if c.TTLSeconds == nil {
		c.TTLSeconds = &DefaultTTLSeconds
	}
	if c.MaxSize == nil {
		c.MaxSize = &DefaultMaxSize
	}
	if c.CleanupIntervalSeconds == nil {
		c.CleanupIntervalSeconds = &DefaultCleanupIntervalSeconds
	}
	return c
}

func (c CacheConfig) TTL() time.Duration {
	cf := c.Normalized()
	return time.Duration(*cf.TTLSeconds) * time.Second
}

func (c CacheConfig) CleanupInterval() time.Duration {
	cf := c.Normalized()
	return time.Duration(*cf.CleanupIntervalSeconds) * time.Second
}

// GitHubConfig is settings of the upstream GitHub API.
type GitHubConfig struct {
	BaseURL        string   `yaml:"base_url,omitempty"`
	Token          string   `yaml:"token,omitempty"`
	TimeoutSeconds *float64 `yaml:"timeout_seconds,omitempty"`
}

func (c GitHubConfig) Normalized() GitHubConfig {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.TimeoutSeconds == nil {
		c.TimeoutSeconds = &DefaultTimeoutSeconds
	}
	return c
}

func (c GitHubConfig) Timeout() time.Duration {
	cf := c.Normalized()
	return time.Duration(*cf.TimeoutSeconds * float64(time.Second))
}

// APIConfig is settings of the gists listing API.
type APIConfig struct {
	DefaultPerPage *int `yaml:"default_per_page,omitempty"`
}

func (c APIConfig) Normalized() APIConfig {
	if c.DefaultPerPage == nil {
		c.DefaultPerPage = &DefaultPerPage
	}
	return c
}

func (c APIConfig) PerPage() int {
	cf := c.Normalized()
	return *cf.DefaultPerPage
}

// Config is settings of the whole server.
type Config struct {
	Cache  CacheConfig  `yaml:"cache"`
	GitHub GitHubConfig `yaml:"github"`
	API    APIConfig    `yaml:"api"`
}

func (c Config) Normalized() Config {
	c.Cache = c.Cache.Normalized()
	c.GitHub = c.GitHub.Normalized()
	c.API = c.API.Normalized()
	return c
}

func (c Config) Validate() error {
	errs := ErrorSet{}

	cf := c.Normalized()

	if *cf.Cache.TTLSeconds <= 0 {
		errs = append(errs, newError(TypeArgumentError, nil, "cache.ttl_seconds must be positive but got %d", *cf.Cache.TTLSeconds))
	}
	if *cf.Cache.MaxSize < 1 {
		errs = append(errs, newError(TypeArgumentError, nil, "cache.max_size must be 1 or more but got %d", *cf.Cache.MaxSize))
	}
	if *cf.Cache.CleanupIntervalSeconds <= 0 {
		errs = append(errs, newError(TypeArgumentError, nil, "cache.cleanup_interval_seconds must be positive but got %d", *cf.Cache.CleanupIntervalSeconds))
	}
	if *cf.GitHub.TimeoutSeconds <= 0 {
		errs = append(errs, newError(TypeArgumentError, nil, "github.timeout_seconds must be positive but got %g", *cf.GitHub.TimeoutSeconds))
	}
	if *cf.API.DefaultPerPage < 1 || *cf.API.DefaultPerPage > MaxPerPage {
		errs = append(errs, newError(TypeArgumentError, nil, "api.default_per_page must be between 1 and %d but got %d", MaxPerPage, *cf.API.DefaultPerPage))
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// DefaultConfig is getter of the configuration that everything is default.
func DefaultConfig() Config {
	return Config{}.Normalized()
}

// NewConfig is parser of the YAML configuration.
func NewConfig(data []byte) (Config, error) {
	var config Config

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, newError(TypeArgumentError, err, "failed to parse configuration")
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config.Normalized(), nil
}
