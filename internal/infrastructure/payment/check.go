package payment

import (
	"context"
	"fmt"

	app "github.com/erp/ledger/internal/application/payables"
	"github.com/erp/ledger/internal/domain/payables"
)

// MethodCheck is the id of the printed check method
const MethodCheck = "check"

// CheckMethod records a payment made by printed check.
// Nothing leaves the system; the check number becomes the reference.
type CheckMethod struct{}

// NewCheckMethod creates a new CheckMethod
func NewCheckMethod() *CheckMethod {
	return &CheckMethod{}
}

// Name returns the method id
func (m *CheckMethod) Name() string {
	return MethodCheck
}

// Pay stamps the check number on the payment
func (m *CheckMethod) Pay(ctx context.Context, payment *payables.VendorPayment, opts app.PaymentOptions) (*payables.VendorPayment, error) {
	if err := ctx.Err(); err != nil {
		return nil, payables.NewPaymentError(MethodCheck, "cancelled", err)
	}
	if opts.CheckNumber == nil {
		return nil, payables.NewPaymentError(MethodCheck, "check number is required", nil)
	}
	if *opts.CheckNumber <= 0 {
		return nil, payables.NewPaymentError(MethodCheck, fmt.Sprintf("invalid check number %d", *opts.CheckNumber), nil)
	}

	number := *opts.CheckNumber
	payment.CheckNumber = &number
	payment.Reference = fmt.Sprintf("CHK-%06d", number)
	return payment, nil
}

var _ app.PaymentMethod = (*CheckMethod)(nil)
