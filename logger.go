package handledb

import (
	"fmt"

	"github.com/rs/zerolog"
)

type Logger interface {
	// Debug logs a message at the debug level with context key/value pairs
	Debug(msg string, ctx ...any)

	// Info logs a message at the info level with context key/value pairs
	Info(msg string, ctx ...any)

	// Warn logs a message at the warn level with context key/value pairs
	Warn(msg string, ctx ...any)

	// Error logs a message at the error level with context key/value pairs
	Error(msg string, ctx ...any)
}

// ZerologLogger writes handledb and engine logs to a zerolog.Logger. Besides
// Logger it implements the printf-style logger the engine expects, so the
// engine's own output lands in the same sink.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger wraps zl.
func NewZerologLogger(zl zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{zl: zl}
}

func (l *ZerologLogger) Debug(msg string, ctx ...any) { l.zl.Debug().Fields(ctx).Msg(msg) }
func (l *ZerologLogger) Info(msg string, ctx ...any)  { l.zl.Info().Fields(ctx).Msg(msg) }
func (l *ZerologLogger) Warn(msg string, ctx ...any)  { l.zl.Warn().Fields(ctx).Msg(msg) }
func (l *ZerologLogger) Error(msg string, ctx ...any) { l.zl.Error().Fields(ctx).Msg(msg) }

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.zl.Info().Str("component", "engine").Msg(fmt.Sprintf(format, args...))
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.zl.Error().Str("component", "engine").Msg(fmt.Sprintf(format, args...))
}

// Fatalf logs at fatal level, which exits the process like the engine expects.
func (l *ZerologLogger) Fatalf(format string, args ...any) {
	l.zl.Fatal().Str("component", "engine").Msg(fmt.Sprintf(format, args...))
}

var nopLogger = NewZerologLogger(zerolog.Nop())
