package logging

import (
	"context"
	"log/slog"

	"gaincalc/internal/services"
)

// Standard structured logging keys.
const (
	FieldComponent     = "component"
	FieldAtom          = "atom"
	FieldCacheKey      = "cache_key"
	FieldStage         = "stage"
	FieldCorrelationID = "correlation_id"
	FieldEventType     = "event_type"
	FieldErrorHint     = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if key, ok := services.CacheKeyFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCacheKey, key))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
