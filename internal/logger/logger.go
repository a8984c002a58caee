// Package logger provides structured logging for the application, backed by
// zerolog. A Logger can additionally capture its warning and error lines into
// an in-memory ring buffer so a run can attach a log tail to its summary
// notification.
//
// Example usage:
//
//	capture := logger.NewCapture(200)
//	log := logger.New(logger.LevelInfo, capture)
//	log.Warn("bind not confirmed", map[string]interface{}{"broadcast_id": id})
//	tail := capture.Lines()
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level represents the severity level of a log message
type Level int

const (
	// LevelDebug is for detailed debugging information
	LevelDebug Level = iota
	// LevelInfo is for general informational messages
	LevelInfo
	// LevelWarn is for warning messages
	LevelWarn
	// LevelError is for error messages
	LevelError
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Capture is a thread-safe ring buffer of formatted warning and error lines.
// One Capture is created per run and its contents ride along in the run
// summary email.
type Capture struct {
	mu       sync.Mutex
	lines    []string
	capacity int
	head     int
	count    int
}

// NewCapture creates a capture buffer holding up to capacity lines
func NewCapture(capacity int) *Capture {
	if capacity <= 0 {
		capacity = 200
	}
	return &Capture{
		lines:    make([]string, capacity),
		capacity: capacity,
	}
}

// Add appends a line, evicting the oldest when the buffer is full
func (c *Capture) Add(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines[c.head] = line
	c.head = (c.head + 1) % c.capacity
	if c.count < c.capacity {
		c.count++
	}
}

// Lines returns the captured lines in chronological order
func (c *Capture) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]string, 0, c.count)
	start := 0
	if c.count == c.capacity {
		start = c.head
	}
	for i := 0; i < c.count; i++ {
		result = append(result, c.lines[(start+i)%c.capacity])
	}
	return result
}

// Logger provides leveled structured logging. The zero value is not usable;
// construct instances with New or Nop.
type Logger struct {
	zl      zerolog.Logger
	capture *Capture
}

// New creates a Logger writing human-readable output to stdout. A non-nil
// capture receives every warning and error line.
func New(level Level, capture *Capture) *Logger {
	return NewWithWriter(level, capture, os.Stdout)
}

// NewWithWriter creates a Logger writing to the given writer
func NewWithWriter(level Level, capture *Capture, w io.Writer) *Logger {
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	zl := zerolog.New(console).Level(level.zerolog()).With().Timestamp().Logger()
	return &Logger{zl: zl, capture: capture}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// log writes a log message with the specified level
func (l *Logger) log(level Level, msg string, fields map[string]interface{}) {
	ev := l.zl.WithLevel(level.zerolog())
	for _, k := range sortedKeys(fields) {
		ev = ev.Interface(k, fields[k])
	}
	ev.Msg(msg)

	if l.capture != nil && level >= LevelWarn {
		l.capture.Add(formatLine(level, msg, fields))
	}
}

// formatLine renders a capture line deterministically (fields sorted by key)
func formatLine(level Level, msg string, fields map[string]interface{}) string {
	var b strings.Builder
	b.WriteString(level.String())
	b.WriteString(": ")
	b.WriteString(msg)
	for _, k := range sortedKeys(fields) {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}

func sortedKeys(fields map[string]interface{}) []string {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.log(LevelDebug, msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.log(LevelInfo, msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.log(LevelWarn, msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.log(LevelError, msg, fields)
}
