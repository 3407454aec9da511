package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	gdErrors "github.com/YuminosukeSato/gdreg/pkg/errors"
)

// ZerologLogger implements Logger on top of a zerolog.Logger.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog.Logger.
func NewZerologLogger(logger zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger: logger}
}

// Debug implements Logger.Debug.
func (z *ZerologLogger) Debug(msg string, fields ...any) {
	emit(z.logger.Debug(), msg, fields)
}

// Info implements Logger.Info.
func (z *ZerologLogger) Info(msg string, fields ...any) {
	emit(z.logger.Info(), msg, fields)
}

// Warn implements Logger.Warn.
func (z *ZerologLogger) Warn(msg string, fields ...any) {
	emit(z.logger.Warn(), msg, fields)
}

// Error implements Logger.Error. A leading error value is logged under ErrorKey.
func (z *ZerologLogger) Error(msg string, fields ...any) {
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			fields = append([]any{ErrorKey, err}, fields[1:]...)
		}
	}
	emit(z.logger.Error(), msg, fields)
}

// With implements Logger.With.
func (z *ZerologLogger) With(fields ...any) Logger {
	ctx := z.logger.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok {
			ctx = ctx.Str(key, err.Error())
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &ZerologLogger{logger: ctx.Logger()}
}

// Enabled implements Logger.Enabled.
func (z *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	zl := toZerologLevel(level)
	return zl >= z.logger.GetLevel() && zl >= zerolog.GlobalLevel()
}

func emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			e.Interface("!BADKEY", fields[i])
			break
		}
		key := fmt.Sprint(fields[i])
		switch v := fields[i+1].(type) {
		case error:
			addError(e, key, v)
		case zerolog.LogObjectMarshaler:
			e.Object(key, v)
		default:
			e.Interface(key, v)
		}
	}
	e.Msg(msg)
}

// addError logs the message, the structured details of a typed error from
// pkg/errors and the stack trace recorded by cockroachdb/errors.
func addError(e *zerolog.Event, key string, err error) {
	e.Str(key, err.Error())
	var details zerolog.LogObjectMarshaler
	if errors.As(err, &details) {
		e.Object(key+".details", details)
	}
	if st := extractStacktrace(err); st != "" {
		e.Str(StacktraceKey, st)
	}
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// ZerologProvider is the default LoggerProvider.
type ZerologProvider struct {
	mu   sync.RWMutex
	base zerolog.Logger
}

// NewZerologProvider creates a provider writing JSON lines to w at level.
func NewZerologProvider(w io.Writer, level Level) *ZerologProvider {
	base := zerolog.New(w).With().Timestamp().Logger().Level(toZerologLevel(level))
	return &ZerologProvider{base: base}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return NewZerologLogger(p.base)
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = p.base.Level(toZerologLevel(level))
}

var (
	providerMu sync.RWMutex
	provider   LoggerProvider = NewZerologProvider(os.Stderr, LevelInfo)
)

func init() {
	gdErrors.SetZerologWarnFunc(func(w error) {
		GetLogger().Warn("warning", ErrorKey, w)
	})
}

// SetProvider replaces the global provider. Loggers obtained earlier keep
// writing to the previous backend.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
}

// GetLogger returns the global default logger.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLogger()
}

// GetLoggerWithName returns the global logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLoggerWithName(name)
}

// SetLevel changes the minimum level of the global provider.
func SetLevel(level Level) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	provider.SetLevel(level)
}
