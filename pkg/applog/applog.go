// Package applog provides the structured, leveled logging the container
// engine uses for its "logs and continues" error class. pkg/log
// documented itself as "API inspired by zerolog"; this package keeps
// that same leveled-event shape but is built directly on zerolog instead
// of a bespoke sqlite-backed store.
package applog

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger scoped to one component name, matching a
// per-monitor logger-with-component-tag convention.
type Logger struct {
	z zerolog.Logger
}

var base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

// New returns a Logger tagged with component.
func New(component string) Logger {
	return Logger{z: base.With().Str("component", component).Logger()}
}

// Warn logs a non-fatal condition: a flush-at-finalize error, a skipped
// optional box, or similar case where the engine logs and continues
// rather than aborting.
func (l Logger) Warn(msg string, err error) {
	ev := l.z.Warn()
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg(msg)
}

// Info logs a routine lifecycle event (movie opened, fragment closed).
func (l Logger) Info(msg string) {
	l.z.Info().Msg(msg)
}

// Error logs a condition the caller will also surface as a returned error,
// kept for operators tailing logs rather than inspecting return values.
func (l Logger) Error(msg string, err error) {
	l.z.Error().Err(err).Msg(msg)
}
