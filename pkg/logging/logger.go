// Package logging defines the minimal logging seam the runtime uses to
// report ambient events (invocation failures, sync-adapter background
// write failures) without forcing a particular logging library on the
// host.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the interface the runtime depends on. Hosts may supply their
// own implementation; the variadic Field arguments attach structured
// key/value pairs to the message without committing callers to a specific
// logging library.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
}

// Field is a structured key/value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

// F builds a Field inline at the call site.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// zerologLogger is the default Logger, backed by zerolog. It is used
// whenever the host does not supply its own implementation.
type zerologLogger struct {
	base zerolog.Logger
}

// NewDefaultLogger builds the zerolog-backed default Logger, writing
// human-readable console output to w (os.Stderr when w is nil).
func NewDefaultLogger(w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	return &zerologLogger{base: zerolog.New(out).With().Timestamp().Logger()}
}

// NewNopLogger discards everything; useful for tests that don't care about
// log output.
func NewNopLogger() Logger {
	return &zerologLogger{base: zerolog.Nop()}
}

func apply(ev *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	return ev
}

func (l *zerologLogger) Debug(msg string, fields ...Field) {
	apply(l.base.Debug(), fields).Msg(msg)
}

func (l *zerologLogger) Info(msg string, fields ...Field) {
	apply(l.base.Info(), fields).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, fields ...Field) {
	apply(l.base.Warn(), fields).Msg(msg)
}

func (l *zerologLogger) Error(msg string, err error, fields ...Field) {
	apply(l.base.Error().Err(err), fields).Msg(msg)
}
