package payables

import (
	"errors"
	"fmt"
	"strings"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/go-playground/validator/v10"
)

// ErrLedgerSyncFailed is the code of a ledger failure surfaced to callers
const ErrLedgerSyncFailed = "LEDGER_SYNC_FAILED"

// WrapLedgerError converts a ledger failure into a domain error that keeps
// the ledger message. Other errors are returned unchanged.
func WrapLedgerError(err error) error {
	var le *ledger.LedgerError
	if errors.As(err, &le) {
		return shared.NewDomainError(ErrLedgerSyncFailed, le.Error())
	}
	return err
}

// validationError turns validator failures into a VALIDATION_FAILED domain error
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return shared.NewDomainError("VALIDATION_FAILED", strings.Join(msgs, "; "))
}
