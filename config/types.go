package config

import (
	"time"
)

// Config is the root configuration for a sherpa-backed service.
type Config struct {
	Log           LogConfig           `koanf:"log" json:"log" yaml:"log" mapstructure:"log"`
	Database      DatabaseConfig      `koanf:"database" json:"database" yaml:"database" mapstructure:"database"`
	Observability ObservabilityConfig `koanf:"observability" json:"observability" yaml:"observability" mapstructure:"observability"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty" mapstructure:"pretty"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Type     string `koanf:"type" json:"type" yaml:"type" mapstructure:"type" validate:"omitempty,oneof=postgresql oracle mysql sqlite"`
	Host     string `koanf:"host" json:"host" yaml:"host" mapstructure:"host" validate:"omitempty,hostname_rfc1123|ip"`
	Port     int    `koanf:"port" json:"port" yaml:"port" mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Database string `koanf:"database" json:"database" yaml:"database" mapstructure:"database"`
	Username string `koanf:"username" json:"username" yaml:"username" mapstructure:"username"`
	Password string `koanf:"password" json:"-" yaml:"password" mapstructure:"password"`

	// ConnectionString, when set, is passed to the driver as-is and takes
	// precedence over the discrete connection fields.
	ConnectionString string `koanf:"connectionstring" json:"-" yaml:"connectionstring" mapstructure:"connectionstring"`

	Pool  PoolConfig  `koanf:"pool" json:"pool" yaml:"pool" mapstructure:"pool"`
	Query QueryConfig `koanf:"query" json:"query" yaml:"query" mapstructure:"query"`

	PostgreSQL PostgreSQLConfig `koanf:"postgresql" json:"postgresql" yaml:"postgresql" mapstructure:"postgresql"`
	Oracle     OracleConfig     `koanf:"oracle" json:"oracle" yaml:"oracle" mapstructure:"oracle"`
	SQLite     SQLiteConfig     `koanf:"sqlite" json:"sqlite" yaml:"sqlite" mapstructure:"sqlite"`
}

// PoolConfig holds connection pool settings.
// Defaults: 25 open connections, 2 idle, 5m idle time, 30m lifetime.
type PoolConfig struct {
	Max      PoolMaxConfig  `koanf:"max" json:"max" yaml:"max" mapstructure:"max"`
	Idle     PoolIdleConfig `koanf:"idle" json:"idle" yaml:"idle" mapstructure:"idle"`
	Lifetime LifetimeConfig `koanf:"lifetime" json:"lifetime" yaml:"lifetime" mapstructure:"lifetime"`
}

// PoolMaxConfig holds maximum connections settings.
type PoolMaxConfig struct {
	Connections int32 `koanf:"connections" json:"connections" yaml:"connections" mapstructure:"connections" validate:"gte=0"`
}

// PoolIdleConfig holds idle connections settings.
type PoolIdleConfig struct {
	Connections int32         `koanf:"connections" json:"connections" yaml:"connections" mapstructure:"connections" validate:"gte=0"`
	Time        time.Duration `koanf:"time" json:"time" yaml:"time" mapstructure:"time" validate:"gte=0"`
}

// LifetimeConfig holds connection lifetime settings.
type LifetimeConfig struct {
	Max time.Duration `koanf:"max" json:"max" yaml:"max" mapstructure:"max" validate:"gte=0"`
}

// QueryConfig holds settings for query logging, slow query detection and fetch behavior.
type QueryConfig struct {
	Slow SlowQueryConfig `koanf:"slow" json:"slow" yaml:"slow" mapstructure:"slow"`
	Log  QueryLogConfig  `koanf:"log" json:"log" yaml:"log" mapstructure:"log"`
	Last LastConfig      `koanf:"last" json:"last" yaml:"last" mapstructure:"last"`
}

// SlowQueryConfig holds settings for slow query detection.
type SlowQueryConfig struct {
	Enabled   bool          `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Threshold time.Duration `koanf:"threshold" json:"threshold" yaml:"threshold" mapstructure:"threshold" validate:"gte=0"`
	// WarnPerSecond caps slow-query warnings; 0 disables the cap.
	WarnPerSecond float64 `koanf:"warnpersecond" json:"warnpersecond" yaml:"warnpersecond" mapstructure:"warnpersecond" validate:"gte=0"`
}

// QueryLogConfig holds settings for query logging.
type QueryLogConfig struct {
	Parameters bool `koanf:"parameters" json:"parameters" yaml:"parameters" mapstructure:"parameters"`
	MaxLength  int  `koanf:"max" json:"max" yaml:"max" mapstructure:"max" validate:"gte=0"`
}

// LastConfig controls Last() on queries without ORDER BY.
type LastConfig struct {
	// Unordered allows Last() without ORDER BY, returning the final row in
	// whatever order the database produced.
	Unordered bool `koanf:"unordered" json:"unordered" yaml:"unordered" mapstructure:"unordered"`
}

// PostgreSQLConfig holds PostgreSQL-specific settings.
type PostgreSQLConfig struct {
	SSLMode string `koanf:"sslmode" json:"sslmode" yaml:"sslmode" mapstructure:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
}

// OracleConfig holds Oracle-specific settings.
type OracleConfig struct {
	Service ServiceConfig `koanf:"service" json:"service" yaml:"service" mapstructure:"service"`
}

// ServiceConfig identifies an Oracle database by service name or SID.
type ServiceConfig struct {
	Name string `koanf:"name" json:"name" yaml:"name" mapstructure:"name"`
	SID  string `koanf:"sid" json:"sid" yaml:"sid" mapstructure:"sid"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `koanf:"path" json:"path" yaml:"path" mapstructure:"path"`
}

// ObservabilityConfig holds OpenTelemetry settings.
type ObservabilityConfig struct {
	// Exporter selects where spans and metrics go: none, stdout or otlp.
	Exporter string `koanf:"exporter" json:"exporter" yaml:"exporter" mapstructure:"exporter" validate:"oneof=none stdout otlp"`
	// Protocol selects the OTLP transport: grpc or http.
	Protocol string `koanf:"protocol" json:"protocol" yaml:"protocol" mapstructure:"protocol" validate:"omitempty,oneof=grpc http"`
	Endpoint string `koanf:"endpoint" json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `koanf:"insecure" json:"insecure" yaml:"insecure" mapstructure:"insecure"`

	Service ObservabilityServiceConfig `koanf:"service" json:"service" yaml:"service" mapstructure:"service"`
	Trace   TraceConfig                `koanf:"trace" json:"trace" yaml:"trace" mapstructure:"trace"`
	Metrics MetricsConfig              `koanf:"metrics" json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// ObservabilityServiceConfig names the reporting service.
type ObservabilityServiceConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name" mapstructure:"name"`
	Version string `koanf:"version" json:"version" yaml:"version" mapstructure:"version"`
}

// TraceConfig holds tracing settings.
type TraceConfig struct {
	Sample SampleConfig `koanf:"sample" json:"sample" yaml:"sample" mapstructure:"sample"`
}

// SampleConfig holds trace sampling settings.
type SampleConfig struct {
	Rate float64 `koanf:"rate" json:"rate" yaml:"rate" mapstructure:"rate" validate:"gte=0,lte=1"`
}

// MetricsConfig holds metric export settings.
type MetricsConfig struct {
	Interval time.Duration `koanf:"interval" json:"interval" yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}
