// Package config loads application configuration from file and environment
// and initializes the global logger.
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
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Cascade   CascadeConfig   `yaml:"cascade" mapstructure:"cascade"`
	Chunking  ChunkingConfig  `yaml:"chunking" mapstructure:"chunking"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	PrimaryModel  string `yaml:"primary_model" mapstructure:"primary_model"`
	FallbackModel string `yaml:"fallback_model" mapstructure:"fallback_model"`
	MaxConcurrent int64  `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// CascadeConfig configures the attempt cascade.
type CascadeConfig struct {
	MaxTokens int64 `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ChunkingConfig configures oversized-content splitting.
type ChunkingConfig struct {
	Enabled        bool `yaml:"enabled" mapstructure:"enabled"`
	BaseChunkChars int  `yaml:"base_chunk_chars" mapstructure:"base_chunk_chars"`
}

// StoreConfig configures the attempt/outcome store.
type StoreConfig struct {
	// Driver is "sqlite", "postgres", or "none".
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	QueueSize   int    `yaml:"queue_size" mapstructure:"queue_size"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
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
	v.SetEnvPrefix("SUMMARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("anthropic.primary_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.fallback_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_concurrent", 4)
	v.SetDefault("cascade.max_tokens", 4096)
	v.SetDefault("chunking.enabled", true)
	v.SetDefault("chunking.base_chunk_chars", 48_000)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "summary-pipeline.db")
	v.SetDefault("store.queue_size", 256)
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
