// Package config loads application configuration from file and environment
// and wires up the global logger.
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
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Assess    AssessConfig    `yaml:"assess" mapstructure:"assess"`
	Simulator SimulatorConfig `yaml:"simulator" mapstructure:"simulator"`
	Seismic   SeismicConfig   `yaml:"seismic" mapstructure:"seismic"`
	Upload    UploadConfig    `yaml:"upload" mapstructure:"upload"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP dashboard server.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeout int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// AssessConfig configures the periodic risk assessment sweep.
type AssessConfig struct {
	IntervalMins int `yaml:"interval_mins" mapstructure:"interval_mins"`
}

// SimulatorConfig configures the sensor data simulator.
type SimulatorConfig struct {
	Seed int64 `yaml:"seed" mapstructure:"seed"`
	// Readings generated per simulation tick.
	Batch int `yaml:"batch" mapstructure:"batch"`
	// Minimum seconds between accepted sensor pushes.
	MinIntervalSecs int `yaml:"min_interval_secs" mapstructure:"min_interval_secs"`
}

// SeismicConfig configures the synthetic seismic feed.
type SeismicConfig struct {
	DefaultHours int `yaml:"default_hours" mapstructure:"default_hours"`
}

// UploadConfig configures image upload handling.
type UploadConfig struct {
	Dir        string `yaml:"dir" mapstructure:"dir"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	Extensions string `yaml:"extensions" mapstructure:"extensions"`
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
	v.SetEnvPrefix("SLOPEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "slopewatch.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("assess.interval_mins", 15)
	v.SetDefault("simulator.batch", 1)
	v.SetDefault("simulator.min_interval_secs", 2)
	v.SetDefault("seismic.default_hours", 24)
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_size_mb", 16)
	v.SetDefault("upload.extensions", ".jpg,.jpeg,.png,.tif,.tiff")
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
