package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	// WebServer Configuration
	WebServerPort int    `mapstructure:"WEBSERVER_PORT"`
	UploadLimit   string `mapstructure:"UPLOAD_LIMIT"`

	// Database Configuration
	DatabaseDSN     string `mapstructure:"DATABASE_DSN" validate:"required"`
	DatabaseRetries int    `mapstructure:"DATABASE_RETRIES"`

	// Logging
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`

	// Storage layout. Sources are read from SourceRoot, finished renders
	// land under OutputRoot, scratch encodes live under WorkRoot.
	SourceRoot string `mapstructure:"SOURCE_ROOT" validate:"required"`
	OutputRoot string `mapstructure:"OUTPUT_ROOT" validate:"required"`
	WorkRoot   string `mapstructure:"WORK_ROOT" validate:"required"`

	// Encoder Configuration
	RenderWorkers    int  `mapstructure:"RENDER_WORKERS" validate:"min=1"`
	HardwareEncoding bool `mapstructure:"HARDWARE_ENCODING"`
	// EmbeddedWorkers runs the render workers inside the web process, for
	// single-binary deployments without a separate encoder.
	EmbeddedWorkers bool `mapstructure:"EMBEDDED_WORKERS"`

	// Parsed from UploadLimit, never read from the environment directly.
	UploadLimitBytes uint64 `mapstructure:"-"`
}

// bindEnv registers every mapstructure tag with viper. Unmarshal only
// reads keys viper already knows about, so env-only values need an
// explicit binding.
func bindEnv() {
	typ := reflect.TypeOf(Config{})
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("mapstructure")
		if tag != "" && tag != "-" {
			viper.BindEnv(tag)
		}
	}
}

func LoadConfig(ctx context.Context) (*Config, error) {
	bindEnv()
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("WEBSERVER_PORT", 8080)
	viper.SetDefault("UPLOAD_LIMIT", "512 MB")
	viper.SetDefault("DATABASE_RETRIES", 10)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("WORK_ROOT", filepath.Join(os.TempDir(), "clipforge"))
	viper.SetDefault("RENDER_WORKERS", 2)

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	limit, err := humanize.ParseBytes(cfg.UploadLimit)
	if err != nil {
		return nil, fmt.Errorf("parse UPLOAD_LIMIT: %w", err)
	}
	cfg.UploadLimitBytes = limit

	// The DSN stays out of the log line; it usually carries credentials.
	slog.Info("Loaded configuration",
		"port", cfg.WebServerPort,
		"upload_limit", cfg.UploadLimit,
		"render_workers", cfg.RenderWorkers,
		"hardware_encoding", cfg.HardwareEncoding,
		"embedded_workers", cfg.EmbeddedWorkers,
		"work_root", cfg.WorkRoot)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
