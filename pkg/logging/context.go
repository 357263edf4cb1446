package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey int

// loggerKey is the context key for the logger.
const loggerKey contextKey = iota

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// WithGroup returns a context whose logger carries the group name.
func WithGroup(ctx context.Context, name string) context.Context {
	logger := FromContext(ctx).With().Str("group", name).Logger()
	return WithLogger(ctx, &logger)
}

// WithPhase returns a context whose logger carries the sync phase name.
func WithPhase(ctx context.Context, phase string) context.Context {
	logger := FromContext(ctx).With().Str("phase", phase).Logger()
	return WithLogger(ctx, &logger)
}
