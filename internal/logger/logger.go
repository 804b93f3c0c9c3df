// Package logger builds the structured logger shared by every command.
package logger

import (
	"io"

	"github.com/rs/zerolog"
)

// Disabled is the level name that turns logging off entirely.
const Disabled = "disabled"

// New returns a console logger writing to w at the given level.
// Unknown levels fall back to info; "disabled" returns a no-op logger.
func New(level string, w io.Writer) zerolog.Logger {
	if level == Disabled || w == nil {
		return zerolog.Nop()
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: true}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// ForCLI returns the logger of the one-shot commands: debug output on
// verbose, nothing otherwise.
func ForCLI(verbose bool, w io.Writer) zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	return New(zerolog.DebugLevel.String(), w)
}
