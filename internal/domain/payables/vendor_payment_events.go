package payables

import (
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VendorPaymentCreatedEvent is raised when a vendor payment is created
type VendorPaymentCreatedEvent struct {
	shared.BaseDomainEvent
	VendorID uuid.UUID       `json:"vendor_id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewVendorPaymentCreatedEvent creates a new VendorPaymentCreatedEvent
func NewVendorPaymentCreatedEvent(p *VendorPayment) *VendorPaymentCreatedEvent {
	return &VendorPaymentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorPaymentCreated, AggregateTypeVendorPayment, p.ID, p.TenantID),
		VendorID:        p.VendorID,
		Amount:          p.Amount,
		Currency:        string(p.Currency),
	}
}

// VendorPaymentAppliedEvent is raised when the payment's applied items change
type VendorPaymentAppliedEvent struct {
	shared.BaseDomainEvent
	VendorID  uuid.UUID       `json:"vendor_id"`
	Amount    decimal.Decimal `json:"amount"`
	ItemCount int             `json:"item_count"`
}

// NewVendorPaymentAppliedEvent creates a new VendorPaymentAppliedEvent
func NewVendorPaymentAppliedEvent(p *VendorPayment) *VendorPaymentAppliedEvent {
	return &VendorPaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorPaymentApplied, AggregateTypeVendorPayment, p.ID, p.TenantID),
		VendorID:        p.VendorID,
		Amount:          p.Amount,
		ItemCount:       len(p.Items),
	}
}

// PaymentItemSnapshot captures one applied item in an audit record
type PaymentItemSnapshot struct {
	ID             uuid.UUID       `json:"id"`
	Type           PaymentItemType `json:"type"`
	BillID         *uuid.UUID      `json:"bill_id,omitempty"`
	VendorCreditID *uuid.UUID      `json:"vendor_credit_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
}

// VendorPaymentDeletedEvent is the deletion-style audit record written when a
// payment is voided. It describes the payment as it was before the void.
type VendorPaymentDeletedEvent struct {
	shared.BaseDomainEvent
	VendorID    uuid.UUID             `json:"vendor_id"`
	Amount      decimal.Decimal       `json:"amount"`
	Currency    string                `json:"currency"`
	CheckNumber *int                  `json:"check_number,omitempty"`
	BatchID     *uuid.UUID            `json:"batch_id,omitempty"`
	Items       []PaymentItemSnapshot `json:"items"`
}

// NewVendorPaymentDeletedEvent snapshots the payment before it is voided
func NewVendorPaymentDeletedEvent(p *VendorPayment) *VendorPaymentDeletedEvent {
	items := make([]PaymentItemSnapshot, len(p.Items))
	for i, item := range p.Items {
		items[i] = PaymentItemSnapshot{
			ID:             item.ID,
			Type:           item.Type,
			BillID:         item.BillID,
			VendorCreditID: item.VendorCreditID,
			Amount:         item.Amount,
		}
	}
	return &VendorPaymentDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorPaymentDeleted, AggregateTypeVendorPayment, p.ID, p.TenantID),
		VendorID:        p.VendorID,
		Amount:          p.Amount,
		Currency:        string(p.Currency),
		CheckNumber:     p.CheckNumber,
		BatchID:         p.BatchID,
		Items:           items,
	}
}
