// Package app provides the main application structure and coordination.
package app

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel orders log messages by severity.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// String returns the level's display name, or UNKNOWN for values
// outside the defined range.
func (l LogLevel) String() string {
	if l < LogLevelDebug || l > LogLevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLogLevel maps a configuration string onto a level, case
// insensitively. Unrecognized input falls back to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger writes leveled, field-tagged lines for the engine. Log output
// always goes to stderr or a caller-supplied writer, never stdout,
// which belongs to the protocol stream when serving.
type Logger struct {
	mu       sync.Mutex
	level    LogLevel
	output   io.Writer
	prefix   string
	fields   map[string]any
	disabled bool
}

// LoggerConfig configures a Logger.
type LoggerConfig struct {
	Level  LogLevel
	Output io.Writer // defaults to os.Stderr
	Prefix string
}

// DefaultLoggerConfig returns the engine's stock logger settings:
// info level to stderr under the "treewright" prefix.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:  LogLevelInfo,
		Output: os.Stderr,
		Prefix: "treewright",
	}
}

// NewLogger creates a logger from cfg.
func NewLogger(cfg LoggerConfig) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	return &Logger{
		level:  cfg.Level,
		output: out,
		prefix: cfg.Prefix,
		fields: map[string]any{},
	}
}

// clone copies the logger with room for extra fields. Derived loggers
// share the writer but never the field map.
func (l *Logger) clone(extra int) *Logger {
	next := &Logger{
		level:    l.level,
		output:   l.output,
		prefix:   l.prefix,
		fields:   make(map[string]any, len(l.fields)+extra),
		disabled: l.disabled,
	}
	for k, v := range l.fields {
		next.fields[k] = v
	}
	return next
}

// WithField returns a derived logger that tags every line with
// key=value.
func (l *Logger) WithField(key string, value any) *Logger {
	next := l.clone(1)
	next.fields[key] = value
	return next
}

// WithFields returns a derived logger tagged with all given fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	next := l.clone(len(fields))
	for k, v := range fields {
		next.fields[k] = v
	}
	return next
}

// WithComponent tags lines with the engine component they come from.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// SetLevel sets the minimum level that reaches the writer.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetOutput redirects the logger to w.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// Disable drops all output until Enable.
func (l *Logger) Disable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disabled = true
}

// Enable restores output after Disable.
func (l *Logger) Enable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disabled = false
}

// Debug logs at debug level. The message is a Printf format when args
// are given; the other level methods work the same way.
func (l *Logger) Debug(msg string, args ...any) {
	l.emit(LogLevelDebug, msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.emit(LogLevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.emit(LogLevelWarn, msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.emit(LogLevelError, msg, args...)
}

func (l *Logger) emit(level LogLevel, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.disabled || level < l.level {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02T15:04:05.000"))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	if l.prefix != "" {
		b.WriteString(l.prefix)
		b.WriteString(": ")
	}
	b.WriteString(msg)

	// Fields render in sorted order so lines stay stable under grep.
	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, l.fields[k])
		}
		b.WriteByte('}')
	}
	b.WriteByte('\n')

	// One Write per line keeps concurrent loggers from interleaving.
	_, _ = io.WriteString(l.output, b.String())
}

// NullLogger discards everything.
var NullLogger = &Logger{disabled: true}

var (
	sharedLogger *Logger
	sharedOnce   sync.Once
)

// GetLogger returns the process-wide logger, creating a default one on
// first use.
func GetLogger() *Logger {
	sharedOnce.Do(func() {
		if sharedLogger == nil {
			sharedLogger = NewLogger(DefaultLoggerConfig())
		}
	})
	return sharedLogger
}

// SetLogger replaces the process-wide logger. Call it during startup,
// before anything logs.
func SetLogger(l *Logger) {
	sharedLogger = l
}
