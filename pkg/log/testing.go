package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// TestLogger captures log records in memory as JSON lines so tests can
// assert on messages and fields. Loggers derived through With share the
// same buffer.
type TestLogger struct {
	mu     *sync.Mutex
	buffer *bytes.Buffer
	level  Level
	fields map[string]interface{}
}

// NewTestLogger creates a TestLogger that records messages at or above level.
//
// Example:
//
//	logger, buffer := log.NewTestLogger(log.LevelDebug)
//	model := linear.NewGDRegressor(linear.WithLogger(logger))
//	...
//	if !logger.ContainsMessage("Training completed") { ... }
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	return &TestLogger{
		mu:     &sync.Mutex{},
		buffer: buffer,
		level:  level,
		fields: make(map[string]interface{}),
	}, buffer
}

// Debug implements Logger.Debug.
func (t *TestLogger) Debug(msg string, fields ...any) { t.write(LevelDebug, msg, fields) }

// Info implements Logger.Info.
func (t *TestLogger) Info(msg string, fields ...any) { t.write(LevelInfo, msg, fields) }

// Warn implements Logger.Warn.
func (t *TestLogger) Warn(msg string, fields ...any) { t.write(LevelWarn, msg, fields) }

// Error implements Logger.Error.
func (t *TestLogger) Error(msg string, fields ...any) {
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			fields = append([]any{ErrorKey, err}, fields[1:]...)
		}
	}
	t.write(LevelError, msg, fields)
}

// With implements Logger.With.
func (t *TestLogger) With(fields ...any) Logger {
	merged := make(map[string]interface{}, len(t.fields)+len(fields)/2)
	for k, v := range t.fields {
		merged[k] = v
	}
	addFields(merged, fields)
	return &TestLogger{mu: t.mu, buffer: t.buffer, level: t.level, fields: merged}
}

// Enabled implements Logger.Enabled.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}

func (t *TestLogger) write(level Level, msg string, fields []any) {
	if level < t.level {
		return
	}
	entry := map[string]interface{}{
		"level":   level.String(),
		"message": msg,
	}
	for k, v := range t.fields {
		entry[k] = v
	}
	addFields(entry, fields)

	data, _ := json.Marshal(entry)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buffer.Write(data)
	t.buffer.WriteByte('\n')
}

func addFields(dst map[string]interface{}, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		if err, ok := fields[i+1].(error); ok {
			dst[key] = err.Error()
			continue
		}
		dst[key] = fields[i+1]
	}
}

// Entries parses the captured output. Numbers decode as float64.
func (t *TestLogger) Entries() ([]map[string]interface{}, error) {
	t.mu.Lock()
	raw := t.buffer.String()
	t.mu.Unlock()

	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// EntriesWithMessage returns the captured entries whose message equals msg.
func (t *TestLogger) EntriesWithMessage(msg string) []map[string]interface{} {
	entries, err := t.Entries()
	if err != nil {
		return nil
	}
	var out []map[string]interface{}
	for _, e := range entries {
		if e["message"] == msg {
			out = append(out, e)
		}
	}
	return out
}

// ContainsMessage reports whether any captured entry contains message.
func (t *TestLogger) ContainsMessage(message string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Contains(t.buffer.String(), message)
}

// ContainsField reports whether any captured entry has key set to value.
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	entries, err := t.Entries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if v, ok := entry[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Clear drops all captured output.
func (t *TestLogger) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buffer.Reset()
}
