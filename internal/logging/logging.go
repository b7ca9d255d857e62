// Package logging builds the zerolog logger used by the CLI.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Options controls the logger built by New.
type Options struct {
	Debug   bool
	NoColor bool
	// JSON writes raw JSON lines instead of the console format.
	JSON bool
}

// New returns a logger writing to out, at debug level when opts.Debug is set
// and info level otherwise.
func New(out io.Writer, opts Options) zerolog.Logger {
	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	w := out
	if !opts.JSON {
		w = consoleWriter(out, opts.NoColor)
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func consoleWriter(out io.Writer, noColor bool) zerolog.ConsoleWriter {
	writer := zerolog.ConsoleWriter{Out: out, NoColor: noColor}
	writer.TimeFormat = time.TimeOnly
	writer.PartsOrder = []string{
		zerolog.TimestampFieldName,
		zerolog.LevelFieldName,
		zerolog.MessageFieldName,
	}
	return writer
}
