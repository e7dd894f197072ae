// internal/logging/logger.go

// Package logging provides the leveled, field-aware logger used across
// the pipeline. Adapter outcomes and discard decisions are logged at Info
// or above so callers can always observe them.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Logger is the logging interface used throughout the application.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// Level represents the severity of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// ParseLevel converts a configuration string into a Level. Unknown values
// fall back to Info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

type textLogger struct {
	level  Level
	out    io.Writer
	fields map[string]interface{}
	mu     *sync.Mutex
}

// New creates a logger writing to stderr at the given level.
func New(level Level) Logger {
	return NewWithWriter(level, os.Stderr)
}

// NewWithWriter creates a logger writing to the given writer; tests use
// this to capture output.
func NewWithWriter(level Level, out io.Writer) Logger {
	return &textLogger{
		level:  level,
		out:    out,
		fields: map[string]interface{}{},
		mu:     &sync.Mutex{},
	}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return NewWithWriter(ErrorLevel+1, io.Discard)
}

func (l *textLogger) Debug(msg string)                          { l.log(DebugLevel, msg) }
func (l *textLogger) Debugf(format string, args ...interface{}) { l.log(DebugLevel, fmt.Sprintf(format, args...)) }
func (l *textLogger) Info(msg string)                           { l.log(InfoLevel, msg) }
func (l *textLogger) Infof(format string, args ...interface{})  { l.log(InfoLevel, fmt.Sprintf(format, args...)) }
func (l *textLogger) Warn(msg string)                           { l.log(WarnLevel, msg) }
func (l *textLogger) Warnf(format string, args ...interface{})  { l.log(WarnLevel, fmt.Sprintf(format, args...)) }
func (l *textLogger) Error(msg string)                          { l.log(ErrorLevel, msg) }
func (l *textLogger) Errorf(format string, args ...interface{}) { l.log(ErrorLevel, fmt.Sprintf(format, args...)) }

func (l *textLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *textLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &textLogger{level: l.level, out: l.out, fields: merged, mu: l.mu}
}

func (l *textLogger) log(level Level, msg string) {
	if level < l.level {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02 15:04:05"))
	b.WriteString(" [")
	b.WriteString(levelNames[level])
	b.WriteString("] ")
	b.WriteString(msg)

	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, l.fields[k])
		}
	}
	b.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.out, b.String())
}
