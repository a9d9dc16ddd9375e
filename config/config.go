// Package config loads sherpa configuration from defaults, YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultFile is the YAML file read by Load when present.
	DefaultFile = "config.yaml"

	// DefaultEnvFile is the dotenv file read by Load when present.
	DefaultEnvFile = ".env"

	// EnvPrefix scopes environment overrides: SHERPA_DATABASE_HOST sets database.host.
	EnvPrefix = "SHERPA_"

	// DefaultServiceName is the OpenTelemetry service name used when none is configured.
	DefaultServiceName = "sherpa"
)

// Load loads configuration from multiple sources with priority:
// 1. Environment variables with the SHERPA_ prefix (highest priority)
// 2. SHERPA_ entries of .env in the working directory, if present
// 3. config.yaml in the working directory, if present
// 4. Default values (lowest priority)
func Load() (*Config, error) {
	return LoadFiles(DefaultFile, DefaultEnvFile)
}

// LoadFile is like Load but reads the YAML file at path.
// A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	return LoadFiles(path, DefaultEnvFile)
}

// LoadFiles is like Load but reads the YAML file at path and the dotenv file
// at envPath. Either file may be missing, and an empty path skips that file.
func LoadFiles(path, envPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := loadDotEnv(k, envPath); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return finish(k)
}

// LoadFromBytes loads configuration from defaults and a YAML document, ignoring
// the environment.
func LoadFromBytes(data []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse configuration: %w", err)
		}
	}

	return finish(k)
}

func finish(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyVendorDefaults(&cfg.Database)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv layers the SHERPA_ entries of a dotenv file. The process
// environment is not modified.
func loadDotEnv(k *koanf.Koanf, path string) error {
	if path == "" {
		return nil
	}
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	values := make(map[string]any, len(vars))
	for name, value := range vars {
		if !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		key, v := envKey(name, value)
		values[key] = v
	}
	return k.Load(confmap.Provider(values, "."), nil)
}

// envKey converts SHERPA_DATABASE_POOL_MAX_CONNECTIONS to database.pool.max.connections.
func envKey(key, value string) (string, any) {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"log.level":  "info",
		"log.pretty": false,

		// Connection defaults are deliberately absent: the database is only
		// enabled when explicitly configured.
		"database.pool.max.connections":  25,
		"database.pool.idle.connections": 2,
		"database.pool.idle.time":        "5m",
		"database.pool.lifetime.max":     "30m",

		"database.query.slow.enabled":       true,
		"database.query.slow.threshold":     "200ms",
		"database.query.slow.warnpersecond": 10,
		"database.query.log.parameters":     false,
		"database.query.log.max":            1000,
		"database.query.last.unordered":     false,

		"observability.exporter":          ExporterNone,
		"observability.protocol":          ProtocolGRPC,
		"observability.service.name":      DefaultServiceName,
		"observability.trace.sample.rate": 1.0,
		"observability.metrics.interval":  "60s",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

// DefaultPort returns the conventional port for a database type, or 0 when the
// type has none.
func DefaultPort(dbType string) int {
	switch dbType {
	case PostgreSQL:
		return 5432
	case Oracle:
		return 1521
	case MySQL:
		return 3306
	default:
		return 0
	}
}

func applyVendorDefaults(cfg *DatabaseConfig) {
	if cfg.Port == 0 && cfg.Host != "" {
		cfg.Port = DefaultPort(cfg.Type)
	}
}
