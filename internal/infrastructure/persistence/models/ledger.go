package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntryModel is the persistence model for a posted ledger line.
// Rows are only ever inserted or flagged superseded.
type LedgerEntryModel struct {
	ID               uuid.UUID            `gorm:"type:uuid;primary_key"`
	TenantID         uuid.UUID            `gorm:"type:uuid;not null;index:idx_ledger_entries_document,priority:1;index:idx_ledger_entries_target,priority:1"`
	DocumentID       uuid.UUID            `gorm:"type:uuid;not null;index:idx_ledger_entries_document,priority:2"`
	DocumentKind     string               `gorm:"type:varchar(30);not null"`
	Account          string               `gorm:"type:varchar(20);not null"`
	Side             ledger.Side          `gorm:"type:varchar(10);not null"`
	Amount           decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency         valueobject.Currency `gorm:"type:varchar(3);not null"`
	CounterpartyID   uuid.UUID            `gorm:"type:uuid;not null"`
	TargetDocumentID *uuid.UUID           `gorm:"type:uuid;index:idx_ledger_entries_target,priority:2"`
	PostingKey       uuid.UUID            `gorm:"type:uuid;not null"`
	Superseded       bool                 `gorm:"not null;default:false"`
	SupersededAt     *time.Time
	PostedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain Entry
func (m *LedgerEntryModel) ToDomain() ledger.Entry {
	return ledger.Entry{
		ID:               m.ID,
		TenantID:         m.TenantID,
		DocumentID:       m.DocumentID,
		DocumentKind:     m.DocumentKind,
		Account:          m.Account,
		Side:             m.Side,
		Amount:           m.Amount,
		Currency:         m.Currency,
		CounterpartyID:   m.CounterpartyID,
		TargetDocumentID: m.TargetDocumentID,
		PostingKey:       m.PostingKey,
		Superseded:       m.Superseded,
		SupersededAt:     m.SupersededAt,
		PostedAt:         m.PostedAt,
	}
}

// LedgerEntryModelFromDomain creates a persistence model from a domain Entry
func LedgerEntryModelFromDomain(e ledger.Entry) LedgerEntryModel {
	return LedgerEntryModel{
		ID:               e.ID,
		TenantID:         e.TenantID,
		DocumentID:       e.DocumentID,
		DocumentKind:     e.DocumentKind,
		Account:          e.Account,
		Side:             e.Side,
		Amount:           e.Amount,
		Currency:         e.Currency,
		CounterpartyID:   e.CounterpartyID,
		TargetDocumentID: e.TargetDocumentID,
		PostingKey:       e.PostingKey,
		Superseded:       e.Superseded,
		SupersededAt:     e.SupersededAt,
		PostedAt:         e.PostedAt,
	}
}
