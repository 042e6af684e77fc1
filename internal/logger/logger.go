package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger()

// InitLogging writes to the console and, when path is set, appends to that
// file as JSON lines.
func InitLogging(path string) {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("cannot open log file, logging to console only")
		} else {
			out = zerolog.MultiLevelWriter(out, f)
		}
	}
	log = zerolog.New(out).With().Timestamp().Logger()
}

// SetOutput replaces the log destination.
func SetOutput(w io.Writer) {
	log = zerolog.New(w).With().Timestamp().Logger()
}

// WithFields returns a context whose log lines carry the given fields.
func WithFields(ctx context.Context, fields map[string]interface{}) context.Context {
	l := fromContext(ctx).With().Fields(fields).Logger()
	return context.WithValue(ctx, ctxKey{}, l)
}

func fromContext(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
			return l
		}
	}
	return log
}

func DebugLog(ctx context.Context, format string, args ...interface{}) {
	l := fromContext(ctx)
	l.Debug().Msgf(format, args...)
}

func InfoLog(ctx context.Context, format string, args ...interface{}) {
	l := fromContext(ctx)
	l.Info().Msgf(format, args...)
}

func WarnLog(ctx context.Context, format string, args ...interface{}) {
	l := fromContext(ctx)
	l.Warn().Msgf(format, args...)
}

func ErrorLog(ctx context.Context, format string, args ...interface{}) {
	l := fromContext(ctx)
	l.Error().Msgf(format, args...)
}
