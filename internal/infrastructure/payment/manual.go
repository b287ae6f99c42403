package payment

import (
	"context"
	"strings"

	app "github.com/erp/ledger/internal/application/payables"
	"github.com/erp/ledger/internal/domain/payables"
)

// MethodManual is the id of the manual method
const MethodManual = "manual"

// ManualMethod records a payment settled outside the system, such as a wire sent from the bank portal
type ManualMethod struct{}

// NewManualMethod creates a new ManualMethod
func NewManualMethod() *ManualMethod {
	return &ManualMethod{}
}

// Name returns the method id
func (m *ManualMethod) Name() string {
	return MethodManual
}

// Pay keeps a caller-supplied reference or derives one from the payment id
func (m *ManualMethod) Pay(ctx context.Context, payment *payables.VendorPayment, opts app.PaymentOptions) (*payables.VendorPayment, error) {
	if err := ctx.Err(); err != nil {
		return nil, payables.NewPaymentError(MethodManual, "cancelled", err)
	}
	if payment.Reference == "" {
		payment.Reference = "MAN-" + strings.ToUpper(payment.ID.String()[:8])
	}
	return payment, nil
}

var _ app.PaymentMethod = (*ManualMethod)(nil)
