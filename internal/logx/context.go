package logx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithLogger returns a context carrying l. Stages pick their logger from the
// run context, which is how a run-scoped Capture reaches them.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored by WithLogger, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
