package payables

import (
	"context"

	"github.com/erp/ledger/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditUnit collects the domain events of one operation and publishes them
// after the transaction commits. With change events suppressed, only events
// passed to Record are published.
type AuditUnit struct {
	publisher  shared.EventPublisher
	logger     *zap.Logger
	suppressed bool
	events     []shared.DomainEvent
}

// NewAuditUnit creates a unit publishing to publisher. A nil publisher drops events.
func NewAuditUnit(publisher shared.EventPublisher, logger *zap.Logger) *AuditUnit {
	return &AuditUnit{
		publisher: publisher,
		logger:    logger,
	}
}

// SuppressChangeEvents stops events pulled from aggregates from being published
func (u *AuditUnit) SuppressChangeEvents() {
	u.suppressed = true
}

// Collect takes the pending events of each aggregate
func (u *AuditUnit) Collect(aggregates ...shared.AggregateRoot) {
	for _, agg := range aggregates {
		if !u.suppressed {
			u.events = append(u.events, agg.GetDomainEvents()...)
		}
		agg.ClearDomainEvents()
	}
}

// Record adds an explicit audit event
func (u *AuditUnit) Record(event shared.DomainEvent) {
	u.events = append(u.events, event)
}

// Events returns the collected events
func (u *AuditUnit) Events() []shared.DomainEvent {
	return u.events
}

// Discard drops everything collected so far
func (u *AuditUnit) Discard() {
	u.events = nil
}

// Flush publishes the collected events. Publishing failures are logged, the
// operation they describe has already committed.
func (u *AuditUnit) Flush(ctx context.Context) {
	if u.publisher == nil || len(u.events) == 0 {
		u.events = nil
		return
	}
	if err := u.publisher.Publish(ctx, u.events...); err != nil {
		u.logger.Error("Failed to publish audit events",
			zap.Int("event_count", len(u.events)),
			zap.Error(err),
		)
	}
	u.events = nil
}
