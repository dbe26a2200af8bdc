package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldDomain is the standardized structured logging key for analysis domains (series, collection, discography).
	FieldDomain = "domain"
	// FieldUnit is the standardized structured logging key for logical unit keys (series title, collection name, artist).
	FieldUnit = "unit"
	// FieldRunID is the standardized structured logging key for batch run identifiers.
	FieldRunID = "run_id"
	// FieldProvider is the standardized structured logging key for library provider names.
	FieldProvider = "provider"
	// FieldDecisionType is the standardized structured logging key for decision log categories.
	FieldDecisionType = "decision_type"
)

type contextKey struct{ name string }

var runIDKey = contextKey{"run_id"}

// WithRunID stores a batch run identifier on the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext extracts a batch run identifier from the context.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if id, ok := RunIDFromContext(ctx); ok {
		return logger.With(String(FieldRunID, id))
	}
	return logger
}
