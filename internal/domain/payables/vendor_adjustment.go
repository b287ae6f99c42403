package payables

import (
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VendorAdjustment changes what is owed to a vendor outside of bills and payments.
// A positive amount increases the payable, a negative amount reduces it.
type VendorAdjustment struct {
	shared.TenantAggregateRoot
	VendorID       uuid.UUID            `json:"vendor_id"`
	Amount         decimal.Decimal      `json:"amount"`
	Currency       valueobject.Currency `json:"currency"`
	AdjustmentDate time.Time            `json:"adjustment_date"`
	AccountCode    string               `json:"account_code"`
	Memo           string               `json:"memo"`
	Voided         bool                 `json:"voided"`
	DateVoided     *time.Time           `json:"date_voided,omitempty"`
}

// NewVendorAdjustment creates a new vendor adjustment
func NewVendorAdjustment(
	tenantID uuid.UUID,
	vendorID uuid.UUID,
	amount valueobject.Money,
	adjustmentDate time.Time,
	accountCode string,
	memo string,
) (*VendorAdjustment, error) {
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor ID cannot be empty")
	}
	if amount.Currency() == "" {
		return nil, shared.NewDomainError("CURRENCY_REQUIRED", "Currency cannot be unset")
	}
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Adjustment amount cannot be zero")
	}
	if adjustmentDate.IsZero() {
		adjustmentDate = time.Now()
	}

	a := &VendorAdjustment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		VendorID:            vendorID,
		Amount:              amount.Amount(),
		Currency:            amount.Currency(),
		AdjustmentDate:      adjustmentDate,
		AccountCode:         accountCode,
		Memo:                memo,
	}

	a.AddDomainEvent(NewVendorAdjustmentCreatedEvent(a))

	return a, nil
}

// AmountMoney returns the signed adjustment amount as Money
func (a *VendorAdjustment) AmountMoney() valueobject.Money {
	return valueobject.MustMoney(a.Amount, a.Currency)
}

// Void marks the adjustment voided. Voiding is irreversible.
func (a *VendorAdjustment) Void(at time.Time) error {
	if a.Voided {
		return shared.NewDomainError("ALREADY_VOIDED", fmt.Sprintf("Vendor adjustment %s has already been voided", a.ID))
	}
	a.Voided = true
	a.DateVoided = &at
	a.UpdatedAt = at
	return nil
}

// VendorAdjustmentCreatedEvent is raised when an adjustment is recorded
type VendorAdjustmentCreatedEvent struct {
	shared.BaseDomainEvent
	VendorID uuid.UUID       `json:"vendor_id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewVendorAdjustmentCreatedEvent creates a new VendorAdjustmentCreatedEvent
func NewVendorAdjustmentCreatedEvent(a *VendorAdjustment) *VendorAdjustmentCreatedEvent {
	return &VendorAdjustmentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorAdjustmentCreated, AggregateTypeVendorAdjustment, a.ID, a.TenantID),
		VendorID:        a.VendorID,
		Amount:          a.Amount,
		Currency:        string(a.Currency),
	}
}

// VendorAdjustmentDeletedEvent is the deletion-style audit record written when
// an adjustment is voided
type VendorAdjustmentDeletedEvent struct {
	shared.BaseDomainEvent
	VendorID       uuid.UUID       `json:"vendor_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	AccountCode    string          `json:"account_code"`
	AdjustmentDate time.Time       `json:"adjustment_date"`
	Memo           string          `json:"memo"`
}

// NewVendorAdjustmentDeletedEvent snapshots the adjustment before it is voided
func NewVendorAdjustmentDeletedEvent(a *VendorAdjustment) *VendorAdjustmentDeletedEvent {
	return &VendorAdjustmentDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorAdjustmentDeleted, AggregateTypeVendorAdjustment, a.ID, a.TenantID),
		VendorID:        a.VendorID,
		Amount:          a.Amount,
		Currency:        string(a.Currency),
		AccountCode:     a.AccountCode,
		AdjustmentDate:  a.AdjustmentDate,
		Memo:            a.Memo,
	}
}
