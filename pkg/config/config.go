// Package config provides configuration loading and validation for ordtree.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/ordtree/pkg/observability"
)

// Sentinel validation errors.
var (
	ErrInvalidMaxNodes  = errors.New("storage max nodes must not be negative")
	ErrInvalidLogFormat = errors.New("invalid log format")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrEmptyMetricsAddr = errors.New("metrics address is empty")
	ErrEmptyStoragePath = errors.New("storage path is empty")
)

// envPrefix prefixes every environment override, e.g. ORDTREE_STORAGE_PATH.
const envPrefix = "ORDTREE"

// Config holds all configuration for ordtree.
type Config struct {
	Storage       StorageConfig       `mapstructure:"storage"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// StorageConfig describes the tree file.
type StorageConfig struct {
	Path     string `mapstructure:"path"`
	Compress bool   `mapstructure:"compress"`
	MaxNodes int    `mapstructure:"max_nodes"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds the Prometheus endpoint configuration.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// ObservabilityConfig holds OTLP export settings.
type ObservabilityConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string `mapstructure:"otlp_headers"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	Environment  string `mapstructure:"environment"`
}

// LoadConfig loads configuration from file and environment variables. An
// empty configPath searches for config.yaml in ., ./config and /etc/ordtree;
// a missing file there is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("config")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/ordtree")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("storage.path", DefaultStoragePath)
	viperCfg.SetDefault("storage.compress", DefaultStorageCompress)
	viperCfg.SetDefault("storage.max_nodes", DefaultStorageMaxNodes)

	viperCfg.SetDefault("logging.level", DefaultLoggingLevel)
	viperCfg.SetDefault("logging.format", DefaultLoggingFormat)

	viperCfg.SetDefault("metrics.addr", DefaultMetricsAddr)

	viperCfg.SetDefault("observability.otlp_endpoint", DefaultOTLPEndpoint)
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("observability.environment", DefaultEnvironment)
}

func validateConfig(config *Config) error {
	if config.Storage.Path == "" {
		return ErrEmptyStoragePath
	}

	if config.Storage.MaxNodes < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxNodes, config.Storage.MaxNodes)
	}

	_, levelErr := observability.ParseLevel(config.Logging.Level)
	if levelErr != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	switch config.Logging.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if strings.TrimSpace(config.Metrics.Addr) == "" {
		return ErrEmptyMetricsAddr
	}

	return nil
}

// Telemetry converts the logging and observability sections into an
// observability.Config for the given mode and version.
func (c *Config) Telemetry(mode observability.AppMode, version string) observability.Config {
	obsCfg := observability.DefaultConfig()

	// Validated by LoadConfig.
	level, _ := observability.ParseLevel(c.Logging.Level)

	obsCfg.Mode = mode
	obsCfg.ServiceVersion = version
	obsCfg.LogLevel = level
	obsCfg.LogJSON = c.Logging.Format == FormatJSON
	obsCfg.OTLPEndpoint = c.Observability.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Observability.OTLPHeaders)
	obsCfg.OTLPInsecure = c.Observability.OTLPInsecure
	obsCfg.Environment = c.Observability.Environment
	obsCfg.Storage = observability.StorageInfo{
		Path:     c.Storage.Path,
		Compress: c.Storage.Compress,
		MaxNodes: c.Storage.MaxNodes,
	}

	return obsCfg
}
