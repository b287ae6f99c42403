package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EntryRepository defines the interface for ledger entry persistence
type EntryRepository interface {
	// FindActiveByDocument finds the entries a document currently has posted
	FindActiveByDocument(ctx context.Context, tenantID, documentID uuid.UUID) ([]Entry, error)

	// FindActiveByTarget finds active entries that reference a target document
	FindActiveByTarget(ctx context.Context, tenantID, targetID uuid.UUID) ([]Entry, error)

	// CreateBatch inserts new entries
	CreateBatch(ctx context.Context, entries []Entry) error

	// Supersede marks entries as no longer active
	Supersede(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, at time.Time) error
}
