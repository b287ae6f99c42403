package ledger

import (
	"fmt"

	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Posting is a desired ledger line before it is diffed against what is already posted
type Posting struct {
	Account          string
	Side             Side
	Amount           valueobject.Money
	TargetDocumentID *uuid.UUID
	Source           string // discriminates otherwise identical lines, e.g. a line item id
}

// Key derives the deterministic posting key for a document.
// Identical postings of the same document always yield the same key.
func (p Posting) Key(documentID uuid.UUID) uuid.UUID {
	target := "-"
	if p.TargetDocumentID != nil {
		target = p.TargetDocumentID.String()
	}
	amount := p.Amount.ToDecimal()
	if !p.Amount.IsNormalized() {
		amount = p.Amount.Amount().String()
	}
	name := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		p.Account, p.Side, target, amount, p.Amount.Currency(), p.Source)
	return uuid.NewSHA1(documentID, []byte(name))
}

// checkBalanced verifies that debits equal credits
func checkBalanced(currency valueobject.Currency, postings []Posting) error {
	debits := valueobject.Zero(currency)
	credits := valueobject.Zero(currency)
	for _, p := range postings {
		var err error
		if p.Side == SideDebit {
			debits, err = debits.Add(p.Amount)
		} else {
			credits, err = credits.Add(p.Amount)
		}
		if err != nil {
			return &LedgerError{Message: fmt.Sprintf("posting to %s is not in %s", p.Account, currency), Err: err}
		}
		if p.Amount.IsNegative() {
			return newLedgerError("posting to %s has a negative amount %s", p.Account, p.Amount)
		}
	}
	if !debits.Equals(credits) {
		return newLedgerError("postings are unbalanced: debits %s, credits %s", debits, credits)
	}
	return nil
}
