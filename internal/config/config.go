package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingAPIKey       = errors.New("YouTube API key is required")
	ErrInvalidCacheBackend = errors.New("invalid cache backend")
	ErrInvalidRateLimit    = errors.New("invalid rate limit")
)

// Cache backends
const (
	CacheMemory      = "memory"
	CacheRedis       = "redis"
	CacheSQLiteCloud = "sqlitecloud"
)

// ConfigFileEnv names the variable holding the optional YAML config path.
const ConfigFileEnv = "TUBESTATS_CONFIG"

// Config holds the application configuration
type Config struct {
	YouTubeAPIKey   string        `yaml:"youtube_api_key"`
	YouTubeEndpoint string        `yaml:"youtube_endpoint"`
	Port            string        `yaml:"port"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	CacheBackend    string        `yaml:"cache_backend"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	RedisURL        string        `yaml:"redis_url"`
	DBPath          string        `yaml:"db_path"`
	APIRPS          float64       `yaml:"api_rps"`
	APIBurst        int           `yaml:"api_burst"`
	RetryMax        int           `yaml:"retry_max"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:         "8080",
		LogLevel:     "info",
		LogFormat:    "json",
		CacheBackend: CacheMemory,
		APIRPS:       5,
		APIBurst:     5,
		RetryMax:     2,
		CORSOrigins:  []string{"http://localhost:3000"},
	}
}

// Load builds the configuration from, in increasing priority: defaults, the YAML file
// named by TUBESTATS_CONFIG, a .env file in the working directory and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("YOUTUBE_API_KEY", &cfg.YouTubeAPIKey)
	setString("YOUTUBE_ENDPOINT", &cfg.YouTubeEndpoint)
	setString("PORT", &cfg.Port)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("LOG_FORMAT", &cfg.LogFormat)
	setString("CACHE_BACKEND", &cfg.CacheBackend)
	setString("REDIS_URL", &cfg.RedisURL)
	setString("DB_PATH", &cfg.DBPath)

	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		cfg.CacheTTL = d
	}
	if v := os.Getenv("API_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("API_RPS: %w", err)
		}
		cfg.APIRPS = f
	}
	for key, dst := range map[string]*int{"API_BURST": &cfg.APIBurst, "RETRY_MAX": &cfg.RetryMax} {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.YouTubeAPIKey == "" {
		return fmt.Errorf("%w: YOUTUBE_API_KEY environment variable is not set", ErrMissingAPIKey)
	}
	switch c.CacheBackend {
	case CacheMemory:
	case CacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: %s requires REDIS_URL", ErrInvalidCacheBackend, c.CacheBackend)
		}
	case CacheSQLiteCloud:
		if c.DBPath == "" {
			return fmt.Errorf("%w: %s requires DB_PATH", ErrInvalidCacheBackend, c.CacheBackend)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCacheBackend, c.CacheBackend)
	}
	if c.APIRPS < 0 || c.APIBurst < 0 {
		return fmt.Errorf("%w: rps=%v burst=%d", ErrInvalidRateLimit, c.APIRPS, c.APIBurst)
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("RETRY_MAX must not be negative, got %d", c.RetryMax)
	}
	return nil
}
