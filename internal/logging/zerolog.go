package logging

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

type ZeroLogger struct {
	l zerolog.Logger
}

// New builds a JSON logger writing to w at the named level
// (debug, info, warn, error). Unknown names mean info.
func New(w io.Writer, level string) *ZeroLogger {
	zl := zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
	return &ZeroLogger{l: zl}
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (z *ZeroLogger) Info(ctx context.Context, msg string, args ...any) {
	z.l.Info().Ctx(ctx).Fields(args).Msg(msg)
}

func (z *ZeroLogger) Warn(ctx context.Context, msg string, args ...any) {
	z.l.Warn().Ctx(ctx).Fields(args).Msg(msg)
}

func (z *ZeroLogger) Error(ctx context.Context, msg string, args ...any) {
	z.l.Error().Ctx(ctx).Fields(args).Msg(msg)
}

func (z *ZeroLogger) With(args ...any) Logger {
	return &ZeroLogger{l: z.l.With().Fields(args).Logger()}
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return &ZeroLogger{l: zerolog.Nop()}
}
