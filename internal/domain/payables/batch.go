package payables

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchStatus represents the lifecycle of a vendor payment batch
type BatchStatus string

const (
	BatchStatusCreated    BatchStatus = "CREATED"
	BatchStatusProcessing BatchStatus = "PROCESSING"
	BatchStatusFinished   BatchStatus = "FINISHED"
	BatchStatusVoided     BatchStatus = "VOIDED"
)

// IsValid checks if the status is a valid BatchStatus
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusCreated, BatchStatusProcessing, BatchStatusFinished, BatchStatusVoided:
		return true
	}
	return false
}

// CanVoid returns true if a batch in this status may be voided
func (s BatchStatus) CanVoid() bool {
	return s == BatchStatusCreated
}

// IsDone returns true once a run has completed or the batch was voided
func (s BatchStatus) IsDone() bool {
	return s == BatchStatusFinished || s == BatchStatusVoided
}

// BatchBill is one bill scheduled for payment within a batch.
// PaymentID is set once the bill has been paid; Error holds the last failure.
type BatchBill struct {
	ID          uuid.UUID            `json:"id"`
	TenantID    uuid.UUID            `json:"tenant_id"`
	BatchID     uuid.UUID            `json:"batch_id"`
	BillID      uuid.UUID            `json:"bill_id"`
	VendorID    uuid.UUID            `json:"vendor_id"`
	Amount      decimal.Decimal      `json:"amount"`
	Currency    valueobject.Currency `json:"currency"`
	PaymentID   *uuid.UUID           `json:"payment_id,omitempty"`
	CheckNumber *int                 `json:"check_number,omitempty"`
	Error       *string              `json:"error,omitempty"`
	AttemptedAt *time.Time           `json:"attempted_at,omitempty"`
}

// AmountMoney returns the scheduled amount as Money
func (b *BatchBill) AmountMoney() valueobject.Money {
	return valueobject.MustMoney(b.Amount, b.Currency)
}

// IsPaid returns true once a payment has been recorded for this row
func (b *BatchBill) IsPaid() bool {
	return b.PaymentID != nil
}

// VendorGroup is the set of unpaid batch rows for one vendor
type VendorGroup struct {
	VendorID uuid.UUID
	Bills    []*BatchBill
}

// Total sums the group amounts in the given currency
func (g VendorGroup) Total(currency valueobject.Currency) (valueobject.Money, error) {
	total := valueobject.Zero(currency)
	for _, b := range g.Bills {
		next, err := total.Add(b.AmountMoney())
		if err != nil {
			return valueobject.Money{}, err
		}
		total = next
	}
	return total, nil
}

// IdempotencyKey identifies the payment attempt for this group of rows.
// Retrying the same rows of the same batch yields the same key.
func (g VendorGroup) IdempotencyKey(batchID uuid.UUID) uuid.UUID {
	ids := make([]string, len(g.Bills))
	for i, b := range g.Bills {
		ids[i] = b.BillID.String()
	}
	sort.Strings(ids)
	return uuid.NewSHA1(batchID, []byte(g.VendorID.String()+":"+strings.Join(ids, ",")))
}

// VendorPaymentBatch pays many bills at once, one payment per vendor
type VendorPaymentBatch struct {
	shared.TenantAggregateRoot
	Status             BatchStatus          `json:"status"`
	PaymentMethodID    string               `json:"payment_method_id"`
	BankAccountID      *uuid.UUID           `json:"bank_account_id,omitempty"`
	CardID             *uuid.UUID           `json:"card_id,omitempty"`
	Currency           valueobject.Currency `json:"currency"`
	InitialCheckNumber *int                 `json:"initial_check_number,omitempty"`
	PaymentDate        time.Time            `json:"payment_date"`
	Total              decimal.Decimal      `json:"total"`
	Memo               string               `json:"memo"`
	Bills              []BatchBill          `json:"bills"`
}

// BatchBillInput is one requested row of a new batch
type BatchBillInput struct {
	BillID   uuid.UUID
	VendorID uuid.UUID
	Amount   valueobject.Money
}

// NewVendorPaymentBatch creates a batch with its rows; the total is the Money sum of the rows
func NewVendorPaymentBatch(
	tenantID uuid.UUID,
	paymentMethodID string,
	currency valueobject.Currency,
	paymentDate time.Time,
	rows []BatchBillInput,
) (*VendorPaymentBatch, error) {
	if paymentMethodID == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method cannot be empty")
	}
	if currency == "" {
		return nil, shared.NewDomainError("CURRENCY_REQUIRED", "Currency cannot be unset")
	}
	if len(rows) == 0 {
		return nil, shared.NewDomainError("INVALID_BATCH", "Batch must contain at least one bill")
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	b := &VendorPaymentBatch{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Status:              BatchStatusCreated,
		PaymentMethodID:     paymentMethodID,
		Currency:            currency,
		PaymentDate:         paymentDate,
		Bills:               make([]BatchBill, 0, len(rows)),
	}

	total := valueobject.Zero(currency)
	for i, row := range rows {
		if row.BillID == uuid.Nil || row.VendorID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_BATCH", fmt.Sprintf("Row %d must reference a bill and a vendor", i+1))
		}
		if !row.Amount.IsPositive() {
			return nil, shared.NewDomainError("INVALID_AMOUNT", fmt.Sprintf("Row %d amount must be positive", i+1))
		}
		next, err := total.Add(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		total = next
		b.Bills = append(b.Bills, BatchBill{
			ID:       uuid.New(),
			TenantID: tenantID,
			BatchID:  b.ID,
			BillID:   row.BillID,
			VendorID: row.VendorID,
			Amount:   row.Amount.Amount(),
			Currency: row.Amount.Currency(),
		})
	}
	b.Total = total.Amount()

	return b, nil
}

// UsesCheckNumbers returns true when the batch prints numbered checks
func (b *VendorPaymentBatch) UsesCheckNumbers() bool {
	return b.InitialCheckNumber != nil
}

// NextCheckNumber returns the first check number for a run:
// the initial number, or one past the highest already assigned, whichever is larger.
func (b *VendorPaymentBatch) NextCheckNumber() *int {
	if b.InitialCheckNumber == nil {
		return nil
	}
	next := *b.InitialCheckNumber
	for _, bill := range b.Bills {
		if bill.CheckNumber != nil && *bill.CheckNumber+1 > next {
			next = *bill.CheckNumber + 1
		}
	}
	return &next
}

// UnpaidGroups groups rows without a payment by vendor, in order of first appearance
func (b *VendorPaymentBatch) UnpaidGroups() []VendorGroup {
	index := make(map[uuid.UUID]int)
	groups := make([]VendorGroup, 0)
	for i := range b.Bills {
		bill := &b.Bills[i]
		if bill.IsPaid() {
			continue
		}
		pos, ok := index[bill.VendorID]
		if !ok {
			pos = len(groups)
			index[bill.VendorID] = pos
			groups = append(groups, VendorGroup{VendorID: bill.VendorID})
		}
		groups[pos].Bills = append(groups[pos].Bills, bill)
	}
	return groups
}

// StartProcessing moves the batch into PROCESSING
func (b *VendorPaymentBatch) StartProcessing() error {
	if b.Status.IsDone() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Batch %s is already %s", b.ID, b.Status))
	}
	b.Status = BatchStatusProcessing
	b.UpdatedAt = time.Now()
	return nil
}

// Finish marks the run complete, regardless of per-group failures
func (b *VendorPaymentBatch) Finish() {
	b.Status = BatchStatusFinished
	b.UpdatedAt = time.Now()
}

// Void marks the batch voided
func (b *VendorPaymentBatch) Void() error {
	if !b.Status.CanVoid() {
		return shared.NewDomainError("BATCH_NOT_VOIDABLE", fmt.Sprintf("Batch %s cannot be voided while %s", b.ID, b.Status))
	}
	b.Status = BatchStatusVoided
	b.UpdatedAt = time.Now()
	return nil
}

// MarkPaid records a successful payment on a batch row and clears any prior error
func (b *BatchBill) MarkPaid(paymentID uuid.UUID, checkNumber *int, at time.Time) {
	b.PaymentID = &paymentID
	b.CheckNumber = checkNumber
	b.Error = nil
	b.AttemptedAt = &at
}

// MarkFailed records the failure message on a batch row
func (b *BatchBill) MarkFailed(message string, at time.Time) {
	b.Error = &message
	b.AttemptedAt = &at
}
