// Package config loads the application configuration from environment
// variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `json:"server"`
	Completion CompletionConfig `json:"completion"`
	Store      StoreConfig      `json:"store"`
	Suggest    SuggestConfig    `json:"suggest"`
	Logging    LoggingConfig    `json:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"read_timeout_seconds"`
	WriteTimeout int    `json:"write_timeout_seconds"`
}

// CompletionConfig represents the remote completion service configuration.
// BASE_URL, OPENAI_API_KEY, MODEL and TEMPERATURE are the recognized
// environment options.
type CompletionConfig struct {
	BaseURL        string  `json:"base_url"`
	APIKey         string  `json:"-"` // Never serialize API key
	Model          string  `json:"model"`
	Temperature    float64 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	RequestTimeout int     `json:"request_timeout_seconds"`
}

// StoreConfig represents persistent store configuration
type StoreConfig struct {
	Provider      string `json:"provider"` // "memory" or "redis"
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"-"` // Never serialize credentials
	RedisDB       int    `json:"redis_db"`
	CatalogPath   string `json:"catalog_path"` // SQLite catalog database
	RetryAttempts int    `json:"retry_attempts"`
}

// SuggestConfig represents suggestion pipeline configuration
type SuggestConfig struct {
	MaxAttempts  int `json:"max_attempts"`  // LLM retry budget per request
	RerollReward int `json:"reroll_reward"` // Rerolls granted for a photo completion
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "localhost",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Completion: CompletionConfig{
			BaseURL:        "https://api.openai.com/v1/",
			Model:          "gpt-4o-mini",
			Temperature:    0.7,
			MaxTokens:      512,
			RequestTimeout: 30,
		},
		Store: StoreConfig{
			Provider:      "memory",
			RedisAddr:     "localhost:6379",
			CatalogPath:   "./data/catalog.db",
			RetryAttempts: 3,
		},
		Suggest: SuggestConfig{
			MaxAttempts:  10,
			RerollReward: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from environment variables and defaults
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := DefaultConfig()
	loadFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(config *Config) {
	loadServerConfig(config)
	loadCompletionConfig(config)
	loadStoreConfig(config)
	loadSuggestConfig(config)
	loadLoggingConfig(config)
}

func loadServerConfig(config *Config) {
	if host := os.Getenv("HABITQUEST_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("HABITQUEST_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if readTimeout := os.Getenv("HABITQUEST_READ_TIMEOUT_SECONDS"); readTimeout != "" {
		if rt, err := strconv.Atoi(readTimeout); err == nil {
			config.Server.ReadTimeout = rt
		}
	}
	if writeTimeout := os.Getenv("HABITQUEST_WRITE_TIMEOUT_SECONDS"); writeTimeout != "" {
		if wt, err := strconv.Atoi(writeTimeout); err == nil {
			config.Server.WriteTimeout = wt
		}
	}
}

func loadCompletionConfig(config *Config) {
	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		config.Completion.BaseURL = baseURL
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Completion.APIKey = apiKey
	}
	if model := os.Getenv("MODEL"); model != "" {
		config.Completion.Model = model
	}
	if temperature := os.Getenv("TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 64); err == nil {
			config.Completion.Temperature = t
		}
	}
	if maxTokens := os.Getenv("HABITQUEST_COMPLETION_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Completion.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("HABITQUEST_COMPLETION_TIMEOUT_SECONDS"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			config.Completion.RequestTimeout = t
		}
	}
}

func loadStoreConfig(config *Config) {
	if provider := os.Getenv("HABITQUEST_STORE_PROVIDER"); provider != "" {
		config.Store.Provider = provider
	}
	if addr := os.Getenv("HABITQUEST_REDIS_ADDR"); addr != "" {
		config.Store.RedisAddr = addr
	} else if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Store.RedisAddr = addr
	}
	if password := os.Getenv("HABITQUEST_REDIS_PASSWORD"); password != "" {
		config.Store.RedisPassword = password
	} else if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		config.Store.RedisPassword = password
	}
	if db := os.Getenv("HABITQUEST_REDIS_DB"); db != "" {
		if d, err := strconv.Atoi(db); err == nil {
			config.Store.RedisDB = d
		}
	}
	if catalogPath := os.Getenv("HABITQUEST_CATALOG_PATH"); catalogPath != "" {
		config.Store.CatalogPath = catalogPath
	}
	if retryAttempts := os.Getenv("HABITQUEST_STORE_RETRY_ATTEMPTS"); retryAttempts != "" {
		if ra, err := strconv.Atoi(retryAttempts); err == nil {
			config.Store.RetryAttempts = ra
		}
	}
}

func loadSuggestConfig(config *Config) {
	if maxAttempts := os.Getenv("HABITQUEST_SUGGEST_MAX_ATTEMPTS"); maxAttempts != "" {
		if ma, err := strconv.Atoi(maxAttempts); err == nil {
			config.Suggest.MaxAttempts = ma
		}
	}
	if reward := os.Getenv("HABITQUEST_REROLL_REWARD"); reward != "" {
		if r, err := strconv.Atoi(reward); err == nil {
			config.Suggest.RerollReward = r
		}
	}
}

func loadLoggingConfig(config *Config) {
	if level := os.Getenv("HABITQUEST_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("HABITQUEST_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Completion.BaseURL == "" {
		return fmt.Errorf("completion base URL is required")
	}
	if c.Completion.Temperature < 0 || c.Completion.Temperature > 2 {
		return fmt.Errorf("completion temperature must be between 0 and 2, got %f", c.Completion.Temperature)
	}
	if c.Store.Provider != "memory" && c.Store.Provider != "redis" {
		return fmt.Errorf("unknown store provider: %q", c.Store.Provider)
	}
	if c.Suggest.MaxAttempts < 1 {
		return fmt.Errorf("suggest max attempts must be at least 1, got %d", c.Suggest.MaxAttempts)
	}
	if c.Suggest.RerollReward < 0 {
		return fmt.Errorf("reroll reward must not be negative, got %d", c.Suggest.RerollReward)
	}
	return nil
}
