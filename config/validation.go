package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Database type constants.
const (
	PostgreSQL = "postgresql"
	Oracle     = "oracle"
	MySQL      = "mysql"
	SQLite     = "sqlite"
)

// Observability exporter and protocol constants.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"

	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// structValidator returns a validator that reports fields by their koanf path.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks cfg with struct tags first, then applies cross-field rules.
// Failures are returned as *ConfigError.
func Validate(cfg *Config) error {
	if err := structValidator().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0])
		}
		return err
	}

	if err := validateDatabase(&cfg.Database); err != nil {
		return err
	}

	return validateObservability(&cfg.Observability)
}

// fieldError converts a validator failure into a ConfigError keyed by config path.
func fieldError(fe validator.FieldError) *ConfigError {
	// Namespace is "Config.database.port"; drop the root type name.
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(field)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("invalid value %q", fmt.Sprint(fe.Value())), strings.Fields(fe.Param()))
	case "min", "gte":
		return NewInvalidFieldError(field, fmt.Sprintf("must be at least %s", fe.Param()), nil)
	case "max", "lte":
		return NewInvalidFieldError(field, fmt.Sprintf("must be at most %s", fe.Param()), nil)
	default:
		return NewInvalidFieldError(field, fmt.Sprintf("failed %s validation", fe.Tag()), nil)
	}
}

// IsDatabaseConfigured reports whether any connection setting is present.
func IsDatabaseConfigured(cfg *DatabaseConfig) bool {
	return cfg.ConnectionString != "" || cfg.Host != "" || cfg.Type != "" || cfg.SQLite.Path != ""
}

func validateDatabase(cfg *DatabaseConfig) error {
	if !IsDatabaseConfigured(cfg) {
		return nil
	}

	if cfg.Type == "" {
		return NewMissingFieldError("database.type")
	}

	if cfg.Query.Slow.Enabled && cfg.Query.Slow.Threshold <= 0 {
		return NewInvalidFieldError("database.query.slow.threshold", "must be positive when slow query detection is enabled", nil)
	}

	if cfg.Pool.Max.Connections > 0 && cfg.Pool.Idle.Connections > cfg.Pool.Max.Connections {
		return NewInvalidFieldError("database.pool.idle.connections", "cannot exceed database.pool.max.connections", nil)
	}

	if cfg.ConnectionString != "" {
		return nil
	}

	if cfg.Type == SQLite {
		if cfg.SQLite.Path == "" {
			return NewMissingFieldError("database.sqlite.path")
		}
		return nil
	}

	if cfg.Host == "" {
		return NewMissingFieldError("database.host")
	}

	if cfg.Type == Oracle {
		if cfg.Oracle.Service.Name != "" && cfg.Oracle.Service.SID != "" {
			return NewInvalidFieldError("database.oracle.service", "set only one of name or sid", nil)
		}
		if cfg.Oracle.Service.Name == "" && cfg.Oracle.Service.SID == "" && cfg.Database == "" {
			return NewMissingFieldError("database.oracle.service.name")
		}
		return nil
	}

	if cfg.Database == "" {
		return NewMissingFieldError("database.database")
	}

	return nil
}

func validateObservability(cfg *ObservabilityConfig) error {
	if cfg.Exporter == ExporterOTLP && cfg.Endpoint == "" {
		return NewMissingFieldError("observability.endpoint")
	}
	return nil
}
