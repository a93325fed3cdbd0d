// Package logging builds the process logger and the per-category event
// log files.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New constructs the process logger. Format "text" renders a console
// writer; anything else emits JSON lines to stdout.
func New(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if format == "text" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	return logger.Level(lvl).With().
		Timestamp().
		Str("service", "pool-tracker").
		Logger()
}
