package payables

import (
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/approval"
	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// LineItemParams is one submitted document line. A nil ID creates a new line.
type LineItemParams struct {
	ID          *uuid.UUID `json:"id"`
	Description string     `json:"description" validate:"max=500"`
	Amount      string     `json:"amount" validate:"required,numeric"`
}

// CreateDocumentParams holds the fields of a new bill, vendor credit or receivable document
type CreateDocumentParams struct {
	TenantID       uuid.UUID               `json:"tenant_id" validate:"required"`
	Number         string                  `json:"number" validate:"required,max=50"`
	CounterpartyID uuid.UUID               `json:"counterparty_id" validate:"required"`
	Currency       string                  `json:"currency" validate:"required,len=3"`
	IssueDate      time.Time               `json:"issue_date"`
	DueDate        *time.Time              `json:"due_date"`
	Memo           string                  `json:"memo" validate:"max=2000"`
	Status         payables.DocumentStatus `json:"status"`
	LineItems      []LineItemParams        `json:"line_items" validate:"dive"`
	Approval       approval.Assignment     `json:"-"`
}

// EditDocumentParams holds the changes of a document edit. Nil fields are left unchanged.
// A non-nil LineItems replaces the whole line-item set.
type EditDocumentParams struct {
	Number    *string                  `json:"number" validate:"omitempty,max=50"`
	IssueDate *time.Time               `json:"issue_date"`
	DueDate   *time.Time               `json:"due_date"`
	Memo      *string                  `json:"memo" validate:"omitempty,max=2000"`
	Currency  *string                  `json:"currency"`
	Status    *payables.DocumentStatus `json:"status"`
	LineItems *[]LineItemParams        `json:"line_items" validate:"omitempty,dive"`
	Approval  approval.Assignment      `json:"-"`
}

// PaymentParams holds the header fields of a vendor payment
type PaymentParams struct {
	TenantID        uuid.UUID  `json:"tenant_id" validate:"required"`
	VendorID        uuid.UUID  `json:"vendor_id" validate:"required"`
	Amount          string     `json:"amount" validate:"required,numeric"`
	Currency        string     `json:"currency" validate:"required,len=3"`
	PaymentDate     time.Time  `json:"payment_date"`
	PaymentMethodID string     `json:"payment_method_id" validate:"required,max=50"`
	CheckNumber     *int       `json:"check_number" validate:"omitempty,gt=0"`
	Reference       string     `json:"reference" validate:"max=100"`
	Memo            string     `json:"memo" validate:"max=2000"`
	BatchID         *uuid.UUID `json:"batch_id"`
}

// EditPaymentParams holds the header changes of a payment edit. Nil fields are left unchanged.
type EditPaymentParams struct {
	Amount      *string    `json:"amount" validate:"omitempty,numeric"`
	Currency    *string    `json:"currency"`
	PaymentDate *time.Time `json:"payment_date"`
	Reference   *string    `json:"reference" validate:"omitempty,max=100"`
	Memo        *string    `json:"memo" validate:"omitempty,max=2000"`
}

// PaymentItemParams is one row of the applied-to set of a payment
type PaymentItemParams struct {
	ID             *uuid.UUID               `json:"id"`
	Type           payables.PaymentItemType `json:"type"`
	BillID         *uuid.UUID               `json:"bill_id"`
	VendorCreditID *uuid.UUID               `json:"vendor_credit_id"`
	Amount         string                   `json:"amount" validate:"required,numeric"`
}

// AdjustmentParams holds the fields of a vendor adjustment
type AdjustmentParams struct {
	TenantID       uuid.UUID `json:"tenant_id" validate:"required"`
	VendorID       uuid.UUID `json:"vendor_id" validate:"required"`
	Amount         string    `json:"amount" validate:"required,numeric"`
	Currency       string    `json:"currency" validate:"required,len=3"`
	AdjustmentDate time.Time `json:"adjustment_date"`
	AccountCode    string    `json:"account_code" validate:"max=20"`
	Memo           string    `json:"memo" validate:"max=2000"`
}

// BatchBillParams is one bill scheduled in a new batch
type BatchBillParams struct {
	BillID   uuid.UUID `json:"bill_id" validate:"required"`
	VendorID uuid.UUID `json:"vendor_id" validate:"required"`
	Amount   string    `json:"amount" validate:"required,numeric"`
}

// CreateBatchParams holds the fields of a new vendor payment batch
type CreateBatchParams struct {
	TenantID           uuid.UUID         `json:"tenant_id" validate:"required"`
	PaymentMethodID    string            `json:"payment_method_id" validate:"required,max=50"`
	Currency           string            `json:"currency" validate:"required,len=3"`
	PaymentDate        time.Time         `json:"payment_date"`
	BankAccountID      *uuid.UUID        `json:"bank_account_id"`
	CardID             *uuid.UUID        `json:"card_id"`
	InitialCheckNumber *int              `json:"initial_check_number" validate:"omitempty,gt=0"`
	Memo               string            `json:"memo" validate:"max=2000"`
	Bills              []BatchBillParams `json:"bills" validate:"required,min=1,dive"`
}

func validateParams(params any) error {
	if err := validate.Struct(params); err != nil {
		return validationError(err)
	}
	return nil
}

func parseCurrency(code string) (valueobject.Currency, error) {
	if code == "" {
		return "", shared.NewDomainError("CURRENCY_REQUIRED", "Currency cannot be unset")
	}
	c, err := valueobject.ParseCurrency(code)
	if err != nil {
		return "", shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}
	return c, nil
}

func parseMoney(currency valueobject.Currency, amount string) (valueobject.Money, error) {
	m, err := valueobject.FromDecimal(currency, amount)
	if err != nil {
		return valueobject.Money{}, shared.NewDomainError("INVALID_AMOUNT", fmt.Sprintf("Invalid amount %q", amount))
	}
	return m, nil
}

// restateAmount carries a stored amount into another currency as is.
func restateAmount(amount decimal.Decimal, currency valueobject.Currency) (valueobject.Money, error) {
	m, err := valueobject.NewMoney(amount, currency)
	if err != nil {
		return valueobject.Money{}, shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}
	restated, err := m.Restate(currency)
	if err != nil {
		return valueobject.Money{}, shared.NewDomainError("INVALID_AMOUNT", fmt.Sprintf("Amount %s cannot be expressed in %s", amount, currency))
	}
	return restated, nil
}

func lineItemInputs(currency valueobject.Currency, params []LineItemParams) ([]payables.LineItemInput, error) {
	inputs := make([]payables.LineItemInput, len(params))
	for i, p := range params {
		amount, err := parseMoney(currency, p.Amount)
		if err != nil {
			return nil, err
		}
		inputs[i] = payables.LineItemInput{
			ID:          p.ID,
			Description: p.Description,
			Amount:      amount,
		}
	}
	return inputs, nil
}

func paymentItemInputs(currency valueobject.Currency, params []PaymentItemParams) ([]payables.PaymentItemInput, error) {
	rows := make([]payables.PaymentItemInput, len(params))
	for i, p := range params {
		amount, err := parseMoney(currency, p.Amount)
		if err != nil {
			return nil, err
		}
		rows[i] = payables.PaymentItemInput{
			ID:             p.ID,
			Type:           p.Type,
			BillID:         p.BillID,
			VendorCreditID: p.VendorCreditID,
			Amount:         amount,
		}
	}
	return rows, nil
}
