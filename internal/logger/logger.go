// Package logger wraps zerolog the way the rest of the Selkies core expects
// to use it: a small facade returning *zerolog.Event, plus an adapter onto
// pion's own logging interface so the WebRTC stack's diagnostics end up in
// the same stream.
package logger

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Level mirrors zerolog.Level so callers don't need to import zerolog
// directly just to pick a level.
type Level int8

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
	TraceLevel Level = -1
)

var pid = os.Getpid()

type Logger struct {
	z zerolog.Logger
}

// New builds a structured logger writing to stderr. isDebug lowers the
// minimum level to Debug.
func New(isDebug bool) *Logger {
	lvl := zerolog.InfoLevel
	if isDebug {
		lvl = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	z := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Int("pid", pid).Logger()
	return &Logger{z: z}
}

// NewConsole builds a human-readable console logger, used by streamctl.
func NewConsole(isDebug bool, tag string) *Logger {
	lvl := zerolog.InfoLevel
	if isDebug {
		lvl = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05.000"}
	z := zerolog.New(out).Level(lvl).With().Timestamp().Str("c", tag).Logger()
	return &Logger{z: z}
}

func (l *Logger) With() zerolog.Context { return l.z.With() }

func (l *Logger) Debug() *zerolog.Event { return l.z.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.z.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.z.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.z.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.z.Fatal() }

// WithLevel starts an event at an arbitrary level, used for TraceLevel
// which zerolog itself does not expose as a named method.
func (l *Logger) WithLevel(lvl Level) *zerolog.Event { return l.z.WithLevel(zerolog.Level(lvl)) }

// Extend returns a child logger with extra context fields baked in.
func (l *Logger) Extend(ctx zerolog.Context) *Logger { return &Logger{z: ctx.Logger()} }

// Level returns a child logger pinned to the given zerolog level.
func (l *Logger) Level(lvl zerolog.Level) zerolog.Context { return l.z.Level(lvl).With() }

func (lv Level) String() string {
	switch lv {
	case TraceLevel:
		return "trace"
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case FatalLevel:
		return "fatal"
	}
	return strconv.Itoa(int(lv))
}
