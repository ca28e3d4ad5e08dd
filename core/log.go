package core

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. Unknown levels fall back to info.
func NewLogger(w io.Writer, level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// LogObserver reports dropped units to a zerolog logger at debug level.
type LogObserver struct {
	Logger zerolog.Logger
}

func (o LogObserver) SegmentDropped(format FormatID, unit string) {
	o.Logger.Debug().
		Str("format", string(format)).
		Str("unit", unit).
		Msg("metadata unit dropped")
}
