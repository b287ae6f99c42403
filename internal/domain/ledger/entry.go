package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is the debit or credit side of an entry
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// Entry is one posted line of the general ledger, owned by the document that produced it.
// Entries are never updated in place: a changed posting supersedes the old entry.
type Entry struct {
	ID               uuid.UUID            `json:"id"`
	TenantID         uuid.UUID            `json:"tenant_id"`
	DocumentID       uuid.UUID            `json:"document_id"`
	DocumentKind     string               `json:"document_kind"`
	Account          string               `json:"account"`
	Side             Side                 `json:"side"`
	Amount           decimal.Decimal      `json:"amount"`
	Currency         valueobject.Currency `json:"currency"`
	CounterpartyID   uuid.UUID            `json:"counterparty_id"`
	TargetDocumentID *uuid.UUID           `json:"target_document_id,omitempty"`
	PostingKey       uuid.UUID            `json:"posting_key"`
	Superseded       bool                 `json:"superseded"`
	SupersededAt     *time.Time           `json:"superseded_at,omitempty"`
	PostedAt         time.Time            `json:"posted_at"`
}

// AmountMoney returns the entry amount as Money
func (e *Entry) AmountMoney() valueobject.Money {
	return valueobject.MustMoney(e.Amount, e.Currency)
}

// Signed returns the amount as seen from an account whose normal balance is on side normal
func (e *Entry) Signed(normal Side) valueobject.Money {
	m := e.AmountMoney()
	if e.Side != normal {
		return m.Negate()
	}
	return m
}
