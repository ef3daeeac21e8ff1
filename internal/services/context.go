package services

import "context"

type contextKey string

const (
	batchIDKey   contextKey = "batch_id"
	recordKeyKey contextKey = "record_key"
)

// WithBatchID annotates context with the dedup batch identifier.
func WithBatchID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, batchIDKey, id)
}

// BatchIDFromContext extracts the dedup batch identifier if present.
func BatchIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(batchIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRecordKey annotates context with the library record key under evaluation.
func WithRecordKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, recordKeyKey, key)
}

// RecordKeyFromContext extracts the record key if present.
func RecordKeyFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(recordKeyKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
