package event

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditRecord is one persisted audit log row
type AuditRecord struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	EventType     string
	AggregateType string
	AggregateID   uuid.UUID
	Payload       []byte
	OccurredAt    time.Time
}

// AuditLogStore persists audit records
type AuditLogStore interface {
	Append(ctx context.Context, record AuditRecord) error
}

// AuditLogHandler writes every payables event it receives to the audit log
type AuditLogHandler struct {
	store      AuditLogStore
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(store AuditLogStore, serializer *EventSerializer, logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{
		store:      store,
		serializer: serializer,
		logger:     logger,
	}
}

// Handle serializes the event and appends it to the audit log.
// The event ID doubles as the record ID, so a redelivered event is rejected by the store.
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", event.EventType(), err)
	}

	record := AuditRecord{
		ID:            event.EventID(),
		TenantID:      event.TenantID(),
		EventType:     event.EventType(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		Payload:       payload,
		OccurredAt:    event.OccurredAt(),
	}
	if err := h.store.Append(ctx, record); err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}

	h.logger.Debug("audit record written",
		zap.String("event_type", record.EventType),
		zap.String("aggregate_id", record.AggregateID.String()),
	)
	return nil
}

// EventTypes returns no types: the handler records every event
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Ensure AuditLogHandler implements EventHandler
var _ shared.EventHandler = (*AuditLogHandler)(nil)
