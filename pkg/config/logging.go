package config

import (
	"slices"
	"strings"
)

// LoggingConfig selects the level and output format of the process logger.
// Both are overridable with --log-level and --log-format.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

const (
	LogLevelTrace = "trace"
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

var (
	logLevels  = []string{LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError}
	logFormats = []string{LogFormatText, LogFormatJSON}
)

// DefaultLoggingConfig logs info and above as text.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{Level: LogLevelInfo, Format: LogFormatText}
}

// Validate accepts empty values, which leave the logger defaults in place.
func (c *LoggingConfig) Validate() error {
	if c.Level != "" {
		if err := oneOf("logging.level", c.Level, logLevels...); err != nil {
			return err
		}
	}
	if c.Format != "" {
		return oneOf("logging.format", c.Format, logFormats...)
	}
	return nil
}

// oneOf returns a ValidationError for field unless value is in allowed.
func oneOf(field, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return &ValidationError{
		Field:   field,
		Message: "must be one of: " + strings.Join(allowed, ", "),
		Value:   value,
	}
}
