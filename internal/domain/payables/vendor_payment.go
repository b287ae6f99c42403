package payables

import (
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentItemType distinguishes document applications from flat fees
type PaymentItemType string

const (
	PaymentItemTypeApplication    PaymentItemType = "APPLICATION"
	PaymentItemTypeConvenienceFee PaymentItemType = "CONVENIENCE_FEE"
)

// IsValid checks if the item type is known
func (t PaymentItemType) IsValid() bool {
	return t == PaymentItemTypeApplication || t == PaymentItemTypeConvenienceFee
}

// PaymentItem applies part of a payment to one bill or vendor credit, or records a fee
type PaymentItem struct {
	ID             uuid.UUID            `json:"id"`
	TenantID       uuid.UUID            `json:"tenant_id"`
	PaymentID      uuid.UUID            `json:"payment_id"`
	Type           PaymentItemType      `json:"type"`
	BillID         *uuid.UUID           `json:"bill_id,omitempty"`
	VendorCreditID *uuid.UUID           `json:"vendor_credit_id,omitempty"`
	Amount         decimal.Decimal      `json:"amount"`
	Currency       valueobject.Currency `json:"currency"`
}

// AmountMoney returns the item amount as Money
func (i *PaymentItem) AmountMoney() valueobject.Money {
	return valueobject.MustMoney(i.Amount, i.Currency)
}

// TargetID returns the targeted bill or vendor credit, nil for fees
func (i *PaymentItem) TargetID() *uuid.UUID {
	if i.BillID != nil {
		return i.BillID
	}
	return i.VendorCreditID
}

// IsFee returns true for convenience fee items
func (i *PaymentItem) IsFee() bool {
	return i.Type == PaymentItemTypeConvenienceFee
}

// VendorPayment is the aggregate root for money paid to a vendor.
// Its items describe how the amount is applied across open documents.
type VendorPayment struct {
	shared.TenantAggregateRoot
	VendorID        uuid.UUID            `json:"vendor_id"`
	Amount          decimal.Decimal      `json:"amount"`
	Currency        valueobject.Currency `json:"currency"`
	PaymentDate     time.Time            `json:"payment_date"`
	PaymentMethodID string               `json:"payment_method_id"`
	CheckNumber     *int                 `json:"check_number,omitempty"`
	Reference       string               `json:"reference"`
	Memo            string               `json:"memo"`
	BatchID         *uuid.UUID           `json:"batch_id,omitempty"`
	Voided          bool                 `json:"voided"`
	DateVoided      *time.Time           `json:"date_voided,omitempty"`
	Items           []PaymentItem        `json:"items"`
}

// NewVendorPayment creates a new vendor payment without items
func NewVendorPayment(
	tenantID uuid.UUID,
	vendorID uuid.UUID,
	amount valueobject.Money,
	paymentDate time.Time,
	paymentMethodID string,
) (*VendorPayment, error) {
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor ID cannot be empty")
	}
	if amount.Currency() == "" {
		return nil, shared.NewDomainError("CURRENCY_REQUIRED", "Currency cannot be unset")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount cannot be negative")
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	p := &VendorPayment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		VendorID:            vendorID,
		Amount:              amount.Amount(),
		Currency:            amount.Currency(),
		PaymentDate:         paymentDate,
		PaymentMethodID:     paymentMethodID,
		Items:               make([]PaymentItem, 0),
	}

	p.AddDomainEvent(NewVendorPaymentCreatedEvent(p))

	return p, nil
}

// AmountMoney returns the payment amount as Money
func (p *VendorPayment) AmountMoney() valueobject.Money {
	return valueobject.MustMoney(p.Amount, p.Currency)
}

// EnsureMutable fails if the payment has been voided
func (p *VendorPayment) EnsureMutable() error {
	if p.Voided {
		return shared.NewDomainError("ALREADY_VOIDED", fmt.Sprintf("Vendor payment %s has already been voided", p.ID))
	}
	return nil
}

// FindItem returns the item with the given id, or nil
func (p *VendorPayment) FindItem(id uuid.UUID) *PaymentItem {
	for i := range p.Items {
		if p.Items[i].ID == id {
			return &p.Items[i]
		}
	}
	return nil
}

// ChangeAmount updates the payment amount and currency.
// The currency cannot be unset and cannot change while items exist.
func (p *VendorPayment) ChangeAmount(amount valueobject.Money) error {
	if err := p.EnsureMutable(); err != nil {
		return err
	}
	if amount.Currency() == "" {
		return shared.NewDomainError("CURRENCY_REQUIRED", "Currency cannot be unset")
	}
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount cannot be negative")
	}
	if amount.Currency() != p.Currency && len(p.Items) > 0 {
		return shared.NewDomainError("CURRENCY_LOCKED", "Payment currency cannot change while it is applied to documents")
	}
	p.Amount = amount.Amount()
	p.Currency = amount.Currency()
	p.UpdatedAt = time.Now()
	return nil
}

// UpdateDetails changes descriptive fields
func (p *VendorPayment) UpdateDetails(paymentDate time.Time, reference, memo string) error {
	if err := p.EnsureMutable(); err != nil {
		return err
	}
	if !paymentDate.IsZero() {
		p.PaymentDate = paymentDate
	}
	p.Reference = reference
	p.Memo = memo
	p.UpdatedAt = time.Now()
	return nil
}

// ReplaceItems installs the planned item set
func (p *VendorPayment) ReplaceItems(items []PaymentItem) error {
	if err := p.EnsureMutable(); err != nil {
		return err
	}
	p.Items = items
	p.UpdatedAt = time.Now()
	p.AddDomainEvent(NewVendorPaymentAppliedEvent(p))
	return nil
}

// AttachToBatch records the batch and check number that produced this payment
func (p *VendorPayment) AttachToBatch(batchID uuid.UUID, checkNumber *int) {
	p.BatchID = &batchID
	p.CheckNumber = checkNumber
}

// Void marks the payment voided. Voiding is irreversible.
func (p *VendorPayment) Void(at time.Time) error {
	if err := p.EnsureMutable(); err != nil {
		return err
	}
	p.Voided = true
	p.DateVoided = &at
	p.UpdatedAt = at
	return nil
}
