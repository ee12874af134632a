// Package logger installs the process-wide slog default: a text
// handler with short timestamps writing to stderr and, optionally, a
// log file. Code everywhere else logs through log/slog directly.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Init parses the level, builds the handler and sets it as the slog
// default. Unknown levels fall back to info.
func Init(level string, logFile string) error {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Shorten time format
			if a.Key == slog.TimeKey {
				return slog.String("time", a.Value.Time().Format("15:04:05"))
			}
			return a
		},
	})

	slog.SetDefault(slog.New(handler))
	return nil
}
