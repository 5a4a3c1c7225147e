package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Context keys for common log fields.
type contextKey string

const (
	// SessionKey is the context key for export session identifiers.
	SessionKey contextKey = "session"

	// JobKey is the context key for job names.
	JobKey contextKey = "job"

	// TypeKey is the context key for record type names.
	TypeKey contextKey = "type"

	// DestinationKey is the context key for export destinations.
	DestinationKey contextKey = "destination"
)

// contextKeys lists the keys in the order they are logged.
var contextKeys = []contextKey{SessionKey, JobKey, TypeKey, DestinationKey}

// WithSession adds a session identifier to the context.
func WithSession(ctx context.Context, session string) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// NewSession adds a fresh random session identifier to the context.
func NewSession(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return WithSession(ctx, id), id
}

// GetSession retrieves the session identifier from the context.
func GetSession(ctx context.Context) string {
	return getString(ctx, SessionKey)
}

// WithJob adds a job name to the context.
func WithJob(ctx context.Context, job string) context.Context {
	return context.WithValue(ctx, JobKey, job)
}

// GetJob retrieves the job name from the context.
func GetJob(ctx context.Context) string {
	return getString(ctx, JobKey)
}

// WithType adds a record type name to the context.
func WithType(ctx context.Context, typeName string) context.Context {
	return context.WithValue(ctx, TypeKey, typeName)
}

// GetType retrieves the record type name from the context.
func GetType(ctx context.Context) string {
	return getString(ctx, TypeKey)
}

// WithDestination adds an export destination to the context.
func WithDestination(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, DestinationKey, path)
}

// GetDestination retrieves the export destination from the context.
func GetDestination(ctx context.Context) string {
	return getString(ctx, DestinationKey)
}

func getString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any
	for _, key := range contextKeys {
		if v := getString(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}
	return fields
}

// contextHandler adds the context fields to every record logged with a
// context.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, key := range contextKeys {
		if v := getString(ctx, key); v != "" {
			r.AddAttrs(slog.String(string(key), v))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
