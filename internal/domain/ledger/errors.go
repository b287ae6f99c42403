package ledger

import "fmt"

// LedgerError reports an internal ledger inconsistency such as an unsupported
// currency, unbalanced postings or a broken document reference.
type LedgerError struct {
	Message string
	Err     error
}

// Error implements the error interface
func (e *LedgerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ledger: %s: %v", e.Message, e.Err)
	}
	return "ledger: " + e.Message
}

// Unwrap returns the underlying error
func (e *LedgerError) Unwrap() error {
	return e.Err
}

func newLedgerError(format string, args ...any) *LedgerError {
	return &LedgerError{Message: fmt.Sprintf(format, args...)}
}
