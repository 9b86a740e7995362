// Package logger is the structured logging facade used across moodlens.
// Callers log through the Logger interface and Field helpers; the slog
// backend lives in slog.go.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is a log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "info"
}

// ParseLevel maps a config value to a Level. Unknown values mean info.
func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return LevelWarn
	}
	for l, name := range levelNames {
		if name == s {
			return l
		}
	}
	return LevelInfo
}

// Field is one structured key/value pair
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field {
	return Field{key, value}
}

func Int(key string, value int) Field {
	return Field{key, value}
}

func Float64(key string, value float64) Field {
	return Field{key, value}
}

func Duration(key string, value time.Duration) Field {
	return Field{key, value}
}

func Time(key string, value time.Time) Field {
	return Field{key, value}
}

func Any(key string, value any) Field {
	return Field{key, value}
}

// Err records err's message under "error"
func Err(err error) Field {
	if err == nil {
		return Field{"error", nil}
	}
	return Field{"error", err.Error()}
}

// Domain keys, so every package spells them the same way

func UserID(id string) Field {
	return Field{"user_id", id}
}

func EntryID(id string) Field {
	return Field{"entry_id", id}
}

func InsightID(id string) Field {
	return Field{"insight_id", id}
}

func Topic(topic string) Field {
	return Field{"topic", topic}
}

// Logger is implemented by each logging backend
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a child logger that always carries fields
	With(fields ...Field) Logger
	// WithContext adds the request id, user id and analysis trigger found
	// in ctx
	WithContext(ctx context.Context) Logger

	Level() Level
}

// Config selects level, encoding and destination
type Config struct {
	Level Level
	// Format is "json" or "text"
	Format    string
	AddSource bool
	// Output defaults to stdout
	Output io.Writer
	// Service, when set, is attached to every line
	Service string
}

func DefaultConfig() Config {
	return Config{
		Level:   LevelInfo,
		Format:  "json",
		Output:  os.Stdout,
		Service: "moodlens-api",
	}
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger
)

// SetDefault replaces the process-wide logger returned by Default
func SetDefault(l Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// Default returns the process-wide logger, creating a JSON stdout logger on
// first use
func Default() Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewSlogLogger(DefaultConfig())
	}
	return defaultLogger
}
