// Package correlation carries the correlation id of a command through context and logs.
package correlation

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogKey is the attribute name used for the correlation id in log records.
const LogKey = "correlation_id"

type ctxKey struct{}

// WithID returns a copy of ctx carrying id. An empty id leaves ctx unchanged.
func WithID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the correlation id stored in ctx, or an empty string.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Ensure returns ctx and its correlation id, generating a UUIDv7 when ctx has none.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := NewID()
	return WithID(ctx, id), id
}

// NewID generates a new time-ordered correlation id.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Handler is a slog.Handler that adds the context correlation id to every record.
type Handler struct {
	next slog.Handler
}

// NewLogHandler wraps next so that records logged with a context carrying a correlation id
// include it under LogKey.
func NewLogHandler(next slog.Handler) *Handler {
	return &Handler{next: next}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if id := FromContext(ctx); id != "" {
		r = r.Clone()
		r.AddAttrs(slog.String(LogKey, id))
	}
	return h.next.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{next: h.next.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name)}
}
