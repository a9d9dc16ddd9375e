package logger

import (
	"net/url"
	"reflect"
	"regexp"
	"strings"
)

const (
	// DefaultMaskValue replaces sensitive values in log output.
	DefaultMaskValue = "***"

	// maxFilterDepth bounds recursion into nested maps and slices.
	maxFilterDepth = 8
)

// FilterConfig defines which fields are considered sensitive.
type FilterConfig struct {
	// SensitiveFields are matched case-insensitively as substrings of field names.
	SensitiveFields []string
	// MaskValue replaces sensitive values (default: "***").
	MaskValue string
}

// DefaultFilterConfig returns the field names masked by default.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		SensitiveFields: []string{
			"password", "passwd", "pwd",
			"secret", "token",
			"credential", "authorization",
			"dsn", "connection_string", "database_url",
		},
		MaskValue: DefaultMaskValue,
	}
}

// keyValuePassword matches password entries in libpq-style and go-ora option DSNs.
var keyValuePassword = regexp.MustCompile(`(?i)(password\s*=\s*)('(?:[^'\\]|\\.)*'|\S+)`)

// SensitiveDataFilter masks sensitive values before they reach the log output.
type SensitiveDataFilter struct {
	config *FilterConfig
}

// NewSensitiveDataFilter creates a filter, using DefaultFilterConfig when config is nil.
func NewSensitiveDataFilter(config *FilterConfig) *SensitiveDataFilter {
	if config == nil {
		config = DefaultFilterConfig()
	}
	if config.MaskValue == "" {
		config.MaskValue = DefaultMaskValue
	}
	return &SensitiveDataFilter{config: config}
}

// FilterString masks value when key is sensitive. Connection strings keep their
// structure with only the password replaced.
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if !f.isSensitiveField(key) || value == "" {
		return value
	}
	if masked, ok := f.maskDSN(value); ok {
		return masked
	}
	return f.config.MaskValue
}

// FilterValue masks value when key is sensitive and descends into maps and slices.
func (f *SensitiveDataFilter) FilterValue(key string, value any) any {
	return f.filterValue(key, value, maxFilterDepth)
}

// FilterFields filters every entry of fields.
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	filtered := make(map[string]any, len(fields))
	for key, value := range fields {
		filtered[key] = f.FilterValue(key, value)
	}
	return filtered
}

func (f *SensitiveDataFilter) filterValue(key string, value any, depth int) any {
	if value == nil {
		return nil
	}
	if f.isSensitiveField(key) {
		if s, ok := value.(string); ok {
			return f.FilterString(key, s)
		}
		return f.config.MaskValue
	}
	if depth <= 0 {
		return value
	}

	if m, ok := value.(map[string]any); ok {
		filtered := make(map[string]any, len(m))
		for k, v := range m {
			filtered[k] = f.filterValue(k, v, depth-1)
		}
		return filtered
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return value
	}
	filtered := make([]any, rv.Len())
	for i := range rv.Len() {
		filtered[i] = f.filterValue(key, rv.Index(i).Interface(), depth-1)
	}
	return filtered
}

func (f *SensitiveDataFilter) isSensitiveField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	for _, sensitive := range f.config.SensitiveFields {
		if strings.Contains(lower, strings.ToLower(sensitive)) {
			return true
		}
	}
	return false
}

// maskDSN replaces the password of a URL DSN (postgres://, oracle://, ...) or a
// key=value DSN. It reports false when value has neither shape.
func (f *SensitiveDataFilter) maskDSN(value string) (string, bool) {
	if strings.Contains(value, "://") {
		parsed, err := url.Parse(value)
		if err != nil {
			return "", false
		}
		if parsed.User == nil {
			return value, true
		}
		if _, hasPassword := parsed.User.Password(); !hasPassword {
			return value, true
		}
		parsed.User = url.UserPassword(parsed.User.Username(), f.config.MaskValue)
		masked := parsed.String()
		// url.String escapes the mask, keep it readable.
		return strings.Replace(masked, url.QueryEscape(f.config.MaskValue), f.config.MaskValue, 1), true
	}
	if keyValuePassword.MatchString(value) {
		return keyValuePassword.ReplaceAllString(value, "${1}"+f.config.MaskValue), true
	}
	return "", false
}
