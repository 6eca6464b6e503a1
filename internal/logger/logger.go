// Package logger holds the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is usable before InitLogger runs; it then logs at info to stderr.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// InitLogger configures Logger. format is "json" or "console".
func InitLogger(verbose bool, format string) {
	Logger = New(os.Stderr, verbose, format)
}

func New(w io.Writer, verbose bool, format string) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
