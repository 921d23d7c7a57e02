package logger

import (
	"github.com/pion/logging"
	"github.com/rs/zerolog"
)

// PionLogger adapts Logger onto pion's logging.LoggerFactory so the WebRTC
// stack's internal diagnostics (ICE, DTLS, SCTP...) flow through the same
// zerolog sink as the rest of the core.
type PionLogger struct {
	log *Logger
}

// NewPionLogger builds a factory pinned to the given level.
func NewPionLogger(root *Logger, level zerolog.Level) *PionLogger {
	return &PionLogger{log: root.Extend(root.Level(level))}
}

func (p PionLogger) NewLogger(scope string) logging.LeveledLogger {
	return PionLogger{log: p.log.Extend(p.log.With().Str("mod", scope))}
}

func (p PionLogger) Trace(msg string)                  { p.log.WithLevel(TraceLevel).Msg(msg) }
func (p PionLogger) Tracef(format string, args ...any)  { p.log.WithLevel(TraceLevel).Msgf(format, args...) }
func (p PionLogger) Debug(msg string)                  { p.log.Debug().Msg(msg) }
func (p PionLogger) Debugf(format string, args ...any)  { p.log.Debug().Msgf(format, args...) }
func (p PionLogger) Info(msg string)                   { p.log.Info().Msg(msg) }
func (p PionLogger) Infof(format string, args ...any)   { p.log.Info().Msgf(format, args...) }
func (p PionLogger) Warn(msg string)                   { p.log.Warn().Msg(msg) }
func (p PionLogger) Warnf(format string, args ...any)   { p.log.Warn().Msgf(format, args...) }
func (p PionLogger) Error(msg string)                  { p.log.Error().Msg(msg) }
func (p PionLogger) Errorf(format string, args ...any)  { p.log.Error().Msgf(format, args...) }
