package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// AuditService records lifecycle events. Writes are best effort: a failed
// audit write never fails the operation that produced it.
type AuditService struct {
	store EventStore
}

func NewAuditService(store EventStore) *AuditService {
	return &AuditService{store: store}
}

func (a *AuditService) Record(ctx context.Context, eventType string, mint *string, metadata map[string]any) {
	payload, err := json.Marshal(metadata)
	if err != nil {
		zap.L().Warn("audit: marshal metadata", zap.String("event", eventType), zap.Error(err))
		return
	}
	if err := a.store.AppendEvent(ctx, eventType, mint, payload); err != nil {
		zap.L().Warn("audit: append event", zap.String("event", eventType), zap.Error(err))
	}
}
