package http

import (
	"context"
	"log/slog"

	"github.com/example/campus-calendar-agent/internal/logging"
)

type contextKey string

const (
	calendarIDContextKey contextKey = "calendar_id"
	eventIDContextKey    contextKey = "event_id"
)

// ContextWithLogger returns a derived context carrying the request logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts the request logger from the context if available.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// ContextWithCalendarID injects the calendar identifier resolved from the
// request path.
func ContextWithCalendarID(ctx context.Context, calendarID string) context.Context {
	return context.WithValue(ctx, calendarIDContextKey, calendarID)
}

// CalendarIDFromContext extracts a calendar identifier previously associated
// with the context.
func CalendarIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(calendarIDContextKey).(string)
	return id, ok
}

// ContextWithEventID injects the event identifier resolved from the request
// path.
func ContextWithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, eventIDContextKey, eventID)
}

// EventIDFromContext extracts an event identifier previously associated with
// the context.
func EventIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(eventIDContextKey).(string)
	return id, ok
}
