// Package config defines service configuration and its viper-based loader.
package config

import "time"

// Config is the root configuration for the users API service.
type Config struct {
	Service       ServiceConfig       `mapstructure:"service"`
	HTTP          HTTPConfig          `mapstructure:"http"`
	Management    ManagementConfig    `mapstructure:"management"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Pagination    PaginationConfig    `mapstructure:"pagination"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ServiceConfig identifies the running service.
type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// HTTPConfig configures the public API server.
type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ManagementConfig configures the management server (health, metrics).
type ManagementConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig configures the MongoDB connection.
type DatabaseConfig struct {
	URL              string        `mapstructure:"url"`
	DatabaseName     string        `mapstructure:"database_name"`
	Collection       string        `mapstructure:"collection"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

// PaginationConfig holds the defaults applied when list requests omit
// paging parameters.
type PaginationConfig struct {
	DefaultLimit    int `mapstructure:"default_limit"`
	DefaultPageSize int `mapstructure:"default_page_size"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "users-api",
			Environment: "development",
		},
		HTTP: HTTPConfig{
			Port:         4722,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Management: ManagementConfig{
			Enabled:      true,
			Port:         4723,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			URL:              "mongodb://localhost:27017",
			DatabaseName:     "mb-users",
			Collection:       "mailchimp-user",
			ConnectTimeout:   5 * time.Second,
			OperationTimeout: 5 * time.Second,
		},
		Pagination: PaginationConfig{
			DefaultLimit:    100,
			DefaultPageSize: 25,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}
