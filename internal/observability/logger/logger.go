// Package logger implements JSON structured logging suitable for log
// aggregation. Each entry is one JSON object per line with consistent field
// names: timestamp, level, service, env, hostname, message.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Fields holds structured logging fields as key-value pairs.
type Fields map[string]interface{}

// Level is the severity of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel converts a level name to a Level. Unknown names default to
// InfoLevel.
func ParseLevel(level string) Level {
	switch level {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return "unknown"
	}
}

// Logger writes JSON log entries to an io.Writer. It is safe for
// concurrent use.
type Logger struct {
	mu               sync.Mutex
	output           io.Writer
	serviceName      string
	environment      string
	hostname         string
	minLevel         Level
	persistentFields Fields
}

// New creates a Logger. A nil output defaults to os.Stdout.
func New(serviceName, environment, logLevel string, output io.Writer, fields Fields) *Logger {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	if output == nil {
		output = os.Stdout
	}
	return &Logger{
		output:           output,
		serviceName:      serviceName,
		environment:      environment,
		hostname:         hostname,
		minLevel:         ParseLevel(logLevel),
		persistentFields: fields,
	}
}

// Info logs at INFO level.
func (l *Logger) Info(ctx context.Context, msg string, fields Fields) {
	if l.minLevel > InfoLevel {
		return
	}
	l.log(ctx, InfoLevel, msg, nil, fields)
}

// Warn logs at WARN level.
func (l *Logger) Warn(ctx context.Context, msg string, fields Fields) {
	if l.minLevel > WarnLevel {
		return
	}
	l.log(ctx, WarnLevel, msg, nil, fields)
}

// Error logs at ERROR level with the associated error.
func (l *Logger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.log(ctx, ErrorLevel, msg, err, fields)
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(ctx context.Context, msg string, fields Fields) {
	if l.minLevel > DebugLevel {
		return
	}
	l.log(ctx, DebugLevel, msg, nil, fields)
}

// WithFields returns a new Logger that includes the given fields in every
// entry.
func (l *Logger) WithFields(fields Fields) *Logger {
	merged := make(Fields, len(l.persistentFields)+len(fields))
	for k, v := range l.persistentFields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{
		output:           l.output,
		serviceName:      l.serviceName,
		environment:      l.environment,
		hostname:         l.hostname,
		minLevel:         l.minLevel,
		persistentFields: merged,
	}
}

func (l *Logger) log(ctx context.Context, level Level, msg string, err error, fields Fields) {
	entry := make(Fields, 8+len(l.persistentFields)+len(fields))

	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["service"] = l.serviceName
	entry["env"] = l.environment
	entry["hostname"] = l.hostname
	entry["message"] = msg

	if traceID, ok := ctx.Value("trace_id").(string); ok {
		entry["trace_id"] = traceID
	}
	if requestID, ok := ctx.Value("request_id").(string); ok {
		entry["request_id"] = requestID
	}

	if err != nil {
		entry["error"] = err.Error()
		entry["error_type"] = fmt.Sprintf("%T", err)
	}

	for k, v := range l.persistentFields {
		entry[k] = v
	}
	for k, v := range fields {
		entry[k] = v
	}

	data, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write(data)
	l.output.Write([]byte("\n"))
}
