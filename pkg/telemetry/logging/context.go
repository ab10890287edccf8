package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// RunIDKey is the context key for the cleaning run ID.
	RunIDKey contextKey = "run_id"

	// EnvironmentKey is the context key for an import-map environment.
	EnvironmentKey contextKey = "environment"
)

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run ID from the context.
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// WithEnvironment adds an import-map environment to the context.
func WithEnvironment(ctx context.Context, env string) context.Context {
	return context.WithValue(ctx, EnvironmentKey, env)
}

// GetEnvironment retrieves the import-map environment from the context.
func GetEnvironment(ctx context.Context) string {
	if env, ok := ctx.Value(EnvironmentKey).(string); ok {
		return env
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
func extractContextFields(ctx context.Context) []slog.Attr {
	var fields []slog.Attr

	if runID := GetRunID(ctx); runID != "" {
		fields = append(fields, slog.String(string(RunIDKey), runID))
	}
	if env := GetEnvironment(ctx); env != "" {
		fields = append(fields, slog.String(string(EnvironmentKey), env))
	}

	return fields
}

// contextHandler adds context fields to records logged with a context.
// Fields already bound with Logger.With are not repeated.
type contextHandler struct {
	next  slog.Handler
	bound map[string]bool
	group bool
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		var add []slog.Attr
		for _, f := range extractContextFields(ctx) {
			if !h.bound[f.Key] {
				add = append(add, f)
			}
		}
		if len(add) > 0 {
			r = r.Clone()
			r.AddAttrs(add...)
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := h.bound
	if !h.group {
		bound = make(map[string]bool, len(h.bound)+len(attrs))
		for k := range h.bound {
			bound[k] = true
		}
		for _, a := range attrs {
			bound[a.Key] = true
		}
	}
	return &contextHandler{next: h.next.WithAttrs(attrs), bound: bound, group: h.group}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), bound: h.bound, group: true}
}
