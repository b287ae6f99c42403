package event

import (
	"encoding/json"
	"fmt"

	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/domain/shared"
)

// EventSerializer encodes domain events as audit payloads. Decoding needs a
// factory per event type; the serializer is read-only once built.
type EventSerializer struct {
	factories map[string]func() shared.DomainEvent
}

// NewEventSerializer creates a serializer that decodes no event types
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{factories: make(map[string]func() shared.DomainEvent)}
}

// NewPayablesSerializer decodes every event raised by documents, payments and adjustments
func NewPayablesSerializer() *EventSerializer {
	s := NewEventSerializer()
	s.Register(payables.EventTypeDocumentCreated, func() shared.DomainEvent { return &payables.DocumentCreatedEvent{} })
	s.Register(payables.EventTypeDocumentUpdated, func() shared.DomainEvent { return &payables.DocumentUpdatedEvent{} })
	s.Register(payables.EventTypeDocumentStatusChanged, func() shared.DomainEvent { return &payables.DocumentStatusChangedEvent{} })
	s.Register(payables.EventTypeDocumentVoided, func() shared.DomainEvent { return &payables.DocumentVoidedEvent{} })
	s.Register(payables.EventTypeVendorPaymentCreated, func() shared.DomainEvent { return &payables.VendorPaymentCreatedEvent{} })
	s.Register(payables.EventTypeVendorPaymentApplied, func() shared.DomainEvent { return &payables.VendorPaymentAppliedEvent{} })
	s.Register(payables.EventTypeVendorPaymentDeleted, func() shared.DomainEvent { return &payables.VendorPaymentDeletedEvent{} })
	s.Register(payables.EventTypeVendorAdjustmentCreated, func() shared.DomainEvent { return &payables.VendorAdjustmentCreatedEvent{} })
	s.Register(payables.EventTypeVendorAdjustmentDeleted, func() shared.DomainEvent { return &payables.VendorAdjustmentDeletedEvent{} })
	return s
}

// Register sets the factory Deserialize uses for eventType. Call it before
// the serializer is shared.
func (s *EventSerializer) Register(eventType string, factory func() shared.DomainEvent) {
	s.factories[eventType] = factory
}

// Serialize encodes event as JSON
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Deserialize decodes an audit payload back into its event type
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	factory, ok := s.factories[eventType]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
	event := factory()
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s event: %w", eventType, err)
	}
	return event, nil
}

// IsRegistered reports whether Deserialize can decode eventType
func (s *EventSerializer) IsRegistered(eventType string) bool {
	_, ok := s.factories[eventType]
	return ok
}
