package payables

import (
	"fmt"
)

// PaymentError is returned when a payment gateway refuses or fails a payment
type PaymentError struct {
	Gateway string
	Message string
	Err     error
}

// Error implements the error interface
func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment via %s failed: %s: %v", e.Gateway, e.Message, e.Err)
	}
	return fmt.Sprintf("payment via %s failed: %s", e.Gateway, e.Message)
}

// Unwrap returns the underlying gateway error
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new PaymentError
func NewPaymentError(gateway, message string, err error) *PaymentError {
	return &PaymentError{Gateway: gateway, Message: message, Err: err}
}
