package payables

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type names used in domain events
const (
	AggregateTypeDocument         = "Document"
	AggregateTypeVendorPayment    = "VendorPayment"
	AggregateTypeVendorAdjustment = "VendorAdjustment"
	AggregateTypePaymentBatch     = "VendorPaymentBatch"
)

// Event types recorded in the audit log
const (
	EventTypeDocumentCreated         = "DocumentCreated"
	EventTypeDocumentUpdated         = "DocumentUpdated"
	EventTypeDocumentStatusChanged   = "DocumentStatusChanged"
	EventTypeDocumentVoided          = "DocumentVoided"
	EventTypeVendorPaymentCreated    = "VendorPaymentCreated"
	EventTypeVendorPaymentApplied    = "VendorPaymentApplied"
	EventTypeVendorPaymentDeleted    = "VendorPaymentDeleted"
	EventTypeVendorAdjustmentCreated = "VendorAdjustmentCreated"
	EventTypeVendorAdjustmentDeleted = "VendorAdjustmentDeleted"
)

// DocumentCreatedEvent is raised when a document is first saved
type DocumentCreatedEvent struct {
	shared.BaseDomainEvent
	Kind           DocumentKind   `json:"kind"`
	Number         string         `json:"number"`
	CounterpartyID uuid.UUID      `json:"counterparty_id"`
	Currency       string         `json:"currency"`
	Status         DocumentStatus `json:"status"`
}

// NewDocumentCreatedEvent creates a new DocumentCreatedEvent
func NewDocumentCreatedEvent(d *Document) *DocumentCreatedEvent {
	return &DocumentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentCreated, AggregateTypeDocument, d.ID, d.TenantID),
		Kind:            d.Kind,
		Number:          d.Number,
		CounterpartyID:  d.CounterpartyID,
		Currency:        string(d.Currency),
		Status:          d.Status,
	}
}

// DocumentUpdatedEvent is raised when an edit changed the document totals or details
type DocumentUpdatedEvent struct {
	shared.BaseDomainEvent
	Kind          DocumentKind    `json:"kind"`
	Number        string          `json:"number"`
	Total         decimal.Decimal `json:"total"`
	LineItemCount int             `json:"line_item_count"`
}

// NewDocumentUpdatedEvent creates a new DocumentUpdatedEvent
func NewDocumentUpdatedEvent(d *Document) *DocumentUpdatedEvent {
	return &DocumentUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentUpdated, AggregateTypeDocument, d.ID, d.TenantID),
		Kind:            d.Kind,
		Number:          d.Number,
		Total:           d.Total,
		LineItemCount:   len(d.LineItems),
	}
}

// DocumentStatusChangedEvent is raised on every status transition
type DocumentStatusChangedEvent struct {
	shared.BaseDomainEvent
	Kind    DocumentKind    `json:"kind"`
	Number  string          `json:"number"`
	From    DocumentStatus  `json:"from"`
	To      DocumentStatus  `json:"to"`
	Balance decimal.Decimal `json:"balance"`
}

// NewDocumentStatusChangedEvent creates a new DocumentStatusChangedEvent
func NewDocumentStatusChangedEvent(d *Document, from DocumentStatus) *DocumentStatusChangedEvent {
	return &DocumentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentStatusChanged, AggregateTypeDocument, d.ID, d.TenantID),
		Kind:            d.Kind,
		Number:          d.Number,
		From:            from,
		To:              d.Status,
		Balance:         d.Balance,
	}
}

// DocumentVoidedEvent is raised when a document is voided
type DocumentVoidedEvent struct {
	shared.BaseDomainEvent
	Kind           DocumentKind    `json:"kind"`
	Number         string          `json:"number"`
	PreviousStatus DocumentStatus  `json:"previous_status"`
	Total          decimal.Decimal `json:"total"`
	DateVoided     time.Time       `json:"date_voided"`
}

// NewDocumentVoidedEvent creates a new DocumentVoidedEvent for a void at the given time
func NewDocumentVoidedEvent(d *Document, from DocumentStatus, at time.Time) *DocumentVoidedEvent {
	return &DocumentVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentVoided, AggregateTypeDocument, d.ID, d.TenantID),
		Kind:            d.Kind,
		Number:          d.Number,
		PreviousStatus:  from,
		Total:           d.Total,
		DateVoided:      at,
	}
}
