package log

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Log output formats.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

// LevelForVerbosity maps the number of -v flags to a log level:
// 0 is error, 1 is info, 2 and more is debug.
func LevelForVerbosity(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return slog.LevelError
	case verbosity == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// NewLogger creates a logger writing to w in the given format, with the
// level derived from verbosity. Every format goes through SecureHandler.
//
// The pretty format is a colored, human oriented output for terminals.
func NewLogger(w io.Writer, verbosity int, format string) (*slog.Logger, error) {
	level := LevelForVerbosity(verbosity)

	var handler slog.Handler
	switch format {
	case FormatText, "":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case FormatPretty:
		handler = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(level),
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
			Prefix:          "linkscan",
		})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return slog.New(NewSecureHandler(handler)), nil
}
