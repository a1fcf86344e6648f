// Package logging provides leveled logging for claybuild.
// Operational output goes to stderr through a slog.Logger; pipeline stage
// banners are formatted through Header and Subheader.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// LevelTrace is a custom slog level below Debug for full content logging.
// At this level, raw engine stdout/stderr reports are included.
const LevelTrace = slog.LevelDebug - 4

// lineLength is the width of header banners in log output.
const lineLength = 100

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, handlerOptions(level)))
}

// NewJSONLogger creates a leveled slog.Logger emitting JSON records to w.
func NewJSONLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, handlerOptions(level)))
}

func handlerOptions(level string) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
}

// Header formats a top-level pipeline banner.
func Header(msg string) string {
	bar := strings.Repeat("=", lineLength)
	return bar + "\n" + msg + "\n" + bar
}

// Subheader formats a pipeline stage banner.
func Subheader(msg string) string {
	return msg + "\n" + strings.Repeat("-", len(msg))
}
