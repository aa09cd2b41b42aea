// Package config loads application configuration and bootstraps the
// global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Scorecard ScorecardConfig `yaml:"scorecard" mapstructure:"scorecard"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ScorecardConfig holds College Scorecard API settings for ingest.
type ScorecardConfig struct {
	APIKey     string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	PerPage    int     `yaml:"per_page" mapstructure:"per_page"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	MaxRetries int     `yaml:"max_retries" mapstructure:"max_retries"`
	Workers    int     `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the rankings server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OPPORTUNITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default to empty so AutomaticEnv can still
	// bind them (viper only maps env vars for keys it knows about).
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "data/colleges.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("scorecard.api_key", "")
	v.SetDefault("scorecard.base_url", "https://api.data.gov/ed/collegescorecard/v1/schools")
	v.SetDefault("scorecard.per_page", 100)
	v.SetDefault("scorecard.rate_limit", 5)
	v.SetDefault("scorecard.max_retries", 3)
	v.SetDefault("scorecard.workers", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
