package payables

import (
	"context"

	"github.com/erp/ledger/internal/domain/payables"
	"github.com/google/uuid"
)

// PaymentOptions carries the funding details of one gateway payment
type PaymentOptions struct {
	BankAccountID *uuid.UUID
	CardID        *uuid.UUID
	CheckNumber   *int

	// IdempotencyKey is stable across retries of the same payment attempt.
	// Methods fall back to the payment id when it is empty.
	IdempotencyKey string
}

// PaymentMethod sends money to a vendor.
// Pay receives an unsaved payment and returns it completed with the gateway's
// reference; a gateway failure is returned as *payables.PaymentError.
type PaymentMethod interface {
	Name() string
	Pay(ctx context.Context, payment *payables.VendorPayment, opts PaymentOptions) (*payables.VendorPayment, error)
}

// PaymentMethodFactory resolves a payment method by id
type PaymentMethodFactory interface {
	Get(id string) (PaymentMethod, error)
}
