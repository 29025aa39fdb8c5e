package app

import (
	"io"
	"log/slog"
)

// newLogger builds the slog.Logger every heatgrid role logs through. It does
// not touch the global logger, so each App (and each test) gets an isolated
// instance writing to its own output.
//
// Unrecognized levels fall back to info rather than erroring: by the time
// this runs the CLI has already validated the flag, so a bad value here only
// means the caller constructed a Config by hand.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler)
}
