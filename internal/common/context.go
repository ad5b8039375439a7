package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyBatchID  contextKey = "batch_id"
	ContextKeyRecordID contextKey = "record_id"
)

// WithBatchID tags ctx with the metadata batch being processed.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, ContextKeyBatchID, batchID)
}

// BatchIDFromContext extracts the batch ID from context
func BatchIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyBatchID).(string); ok {
		return id
	}
	return ""
}

// WithRecordID tags ctx with the raw record being processed.
func WithRecordID(ctx context.Context, recordID string) context.Context {
	return context.WithValue(ctx, ContextKeyRecordID, recordID)
}

// RecordIDFromContext extracts the record ID from context
func RecordIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRecordID).(string); ok {
		return id
	}
	return ""
}
