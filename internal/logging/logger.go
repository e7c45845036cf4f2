// Package logging provides structured JSON logging with request trace IDs.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger is the logging interface used across the service.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	DebugContext(ctx context.Context, msg string, fields ...any)
	InfoContext(ctx context.Context, msg string, fields ...any)
	WarnContext(ctx context.Context, msg string, fields ...any)
	ErrorContext(ctx context.Context, msg string, fields ...any)

	WithComponent(component string) Logger
}

// Level controls which entries a logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string onto a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

type contextKey string

const traceIDKey contextKey = "trace_id"

// NewTraceID returns a fresh trace identifier.
func NewTraceID() string {
	return uuid.New().String()
}

// WithTraceID stores a trace ID in the context, generating one if empty.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = NewTraceID()
	}
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID extracts the trace ID from the context, if any.
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return ""
}

type entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Component string         `json:"component,omitempty"`
	TraceID   string         `json:"trace_id,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// StructuredLogger writes one JSON object per line.
type StructuredLogger struct {
	mu        *sync.Mutex
	out       io.Writer
	level     Level
	component string
}

// New creates a logger writing to stderr at the given level.
func New(level Level) *StructuredLogger {
	return NewWithWriter(level, os.Stderr)
}

// NewWithWriter creates a logger writing to the given writer.
func NewWithWriter(level Level, out io.Writer) *StructuredLogger {
	return &StructuredLogger{mu: &sync.Mutex{}, out: out, level: level}
}

// WithComponent returns a logger tagging every entry with the component name.
func (l *StructuredLogger) WithComponent(component string) Logger {
	return &StructuredLogger{mu: l.mu, out: l.out, level: l.level, component: component}
}

func (l *StructuredLogger) Debug(msg string, fields ...any) { l.log(LevelDebug, "", msg, fields) }
func (l *StructuredLogger) Info(msg string, fields ...any)  { l.log(LevelInfo, "", msg, fields) }
func (l *StructuredLogger) Warn(msg string, fields ...any)  { l.log(LevelWarn, "", msg, fields) }
func (l *StructuredLogger) Error(msg string, fields ...any) { l.log(LevelError, "", msg, fields) }

func (l *StructuredLogger) DebugContext(ctx context.Context, msg string, fields ...any) {
	l.log(LevelDebug, TraceID(ctx), msg, fields)
}

func (l *StructuredLogger) InfoContext(ctx context.Context, msg string, fields ...any) {
	l.log(LevelInfo, TraceID(ctx), msg, fields)
}

func (l *StructuredLogger) WarnContext(ctx context.Context, msg string, fields ...any) {
	l.log(LevelWarn, TraceID(ctx), msg, fields)
}

func (l *StructuredLogger) ErrorContext(ctx context.Context, msg string, fields ...any) {
	l.log(LevelError, TraceID(ctx), msg, fields)
}

func (l *StructuredLogger) log(level Level, traceID, msg string, fields []any) {
	if level < l.level {
		return
	}

	var fieldMap map[string]any
	if len(fields) > 0 {
		fieldMap = make(map[string]any, len(fields)/2)
		for i := 0; i+1 < len(fields); i += 2 {
			fieldMap[fmt.Sprintf("%v", fields[i])] = fields[i+1]
		}
		if len(fields)%2 != 0 {
			fieldMap["extra"] = fields[len(fields)-1]
		}
	}

	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
		Component: l.component,
		TraceID:   traceID,
		Fields:    fieldMap,
	}

	data, err := json.Marshal(e)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: marshal entry: %v\n", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(append(data, '\n'))
}

// NewNop returns a logger that discards everything. Intended for tests.
func NewNop() Logger {
	return NewWithWriter(LevelError+1, io.Discard)
}
