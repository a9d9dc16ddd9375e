// Package tracking decorates an Execution Adapter with structured query logs,
// slow query detection, OpenTelemetry spans and metrics.
package tracking

import (
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/sherpa-db/sherpa/config"
	"github.com/sherpa-db/sherpa/logger"
)

const (
	// DefaultSlowQueryThreshold defines the default threshold for slow query detection
	DefaultSlowQueryThreshold = 200 * time.Millisecond
	// DefaultMaxQueryLength defines the default maximum query length for logging
	DefaultMaxQueryLength = 1000
)

// Settings holds configuration for query tracking and logging.
type Settings struct {
	slowQueryEnabled   bool
	slowQueryThreshold time.Duration
	maxQueryLength     int
	logQueryParameters bool

	// slowWarnings caps slow query warnings; nil means unlimited.
	slowWarnings *rate.Limiter
}

// Context groups tracking-related parameters to reduce function parameter count.
type Context struct {
	Logger   logger.Logger
	Vendor   string
	Settings Settings
}

// NewSettings creates Settings from cfg. Non-positive numeric fields fall back to
// DefaultSlowQueryThreshold and DefaultMaxQueryLength. A nil cfg enables slow
// query detection with the defaults.
func NewSettings(cfg *config.DatabaseConfig) Settings {
	settings := Settings{
		slowQueryEnabled:   true,
		slowQueryThreshold: DefaultSlowQueryThreshold,
		maxQueryLength:     DefaultMaxQueryLength,
	}

	if cfg == nil {
		return settings
	}

	settings.slowQueryEnabled = cfg.Query.Slow.Enabled
	if cfg.Query.Slow.Threshold > 0 {
		settings.slowQueryThreshold = cfg.Query.Slow.Threshold
	}
	if cfg.Query.Log.MaxLength > 0 {
		settings.maxQueryLength = cfg.Query.Log.MaxLength
	}
	settings.logQueryParameters = cfg.Query.Log.Parameters

	if perSecond := cfg.Query.Slow.WarnPerSecond; perSecond > 0 {
		burst := int(math.Max(1, math.Ceil(perSecond)))
		settings.slowWarnings = rate.NewLimiter(rate.Limit(perSecond), burst)
	}

	return settings
}

// SlowQueryEnabled reports whether slow queries are logged as warnings.
func (s Settings) SlowQueryEnabled() bool {
	return s.slowQueryEnabled
}

// SlowQueryThreshold returns the threshold for slow query detection
func (s Settings) SlowQueryThreshold() time.Duration {
	return s.slowQueryThreshold
}

// MaxQueryLength returns the maximum query length for logging
func (s Settings) MaxQueryLength() int {
	return s.maxQueryLength
}

// LogQueryParameters returns whether query parameters should be logged
func (s Settings) LogQueryParameters() bool {
	return s.logQueryParameters
}

// allowSlowWarning reports whether another slow query warning may be emitted now.
func (s Settings) allowSlowWarning() bool {
	return s.slowWarnings == nil || s.slowWarnings.Allow()
}
