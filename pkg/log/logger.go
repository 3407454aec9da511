package log

import (
	"io"
	"os"

	gdErrors "github.com/YuminosukeSato/gdreg/pkg/errors"
)

// SetupLogger installs a zerolog-backed global provider writing to w.
// A nil writer means stderr.
func SetupLogger(loglevel string, w io.Writer) error {
	level, err := ParseLevel(loglevel)
	if err != nil {
		return err
	}
	if w == nil {
		w = os.Stderr
	}
	SetProvider(NewZerologProvider(w, level))
	return nil
}

// ParseLevel converts "debug", "info", "warn" or "error" to a Level.
func ParseLevel(level string) (Level, error) {
	switch level {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, gdErrors.NewValidationError("log-level", "must be one of debug, info, warn, error", level)
	}
}
