package persistence

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// entryInsertBatchSize bounds the rows sent per INSERT statement
const entryInsertBatchSize = 100

// GormEntryRepository implements EntryRepository using GORM
type GormEntryRepository struct {
	db *gorm.DB
}

// NewGormEntryRepository creates a new GormEntryRepository
func NewGormEntryRepository(db *gorm.DB) *GormEntryRepository {
	return &GormEntryRepository{db: db}
}

func (r *GormEntryRepository) findActive(ctx context.Context, column string, tenantID, id uuid.UUID) ([]ledger.Entry, error) {
	var entryModels []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND "+column+" = ? AND superseded = ?", tenantID, id, false).
		Order("posted_at ASC, id ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]ledger.Entry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}

// FindActiveByDocument finds the entries a document currently has posted
func (r *GormEntryRepository) FindActiveByDocument(ctx context.Context, tenantID, documentID uuid.UUID) ([]ledger.Entry, error) {
	return r.findActive(ctx, "document_id", tenantID, documentID)
}

// FindActiveByTarget finds active entries of any document that point at targetID
func (r *GormEntryRepository) FindActiveByTarget(ctx context.Context, tenantID, targetID uuid.UUID) ([]ledger.Entry, error) {
	return r.findActive(ctx, "target_document_id", tenantID, targetID)
}

// CreateBatch inserts new entries
func (r *GormEntryRepository) CreateBatch(ctx context.Context, entries []ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	entryModels := make([]models.LedgerEntryModel, len(entries))
	for i := range entries {
		entryModels[i] = models.LedgerEntryModelFromDomain(entries[i])
	}
	return r.db.WithContext(ctx).CreateInBatches(&entryModels, entryInsertBatchSize).Error
}

// Supersede flags entries as replaced at the given time
func (r *GormEntryRepository) Supersede(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Where("tenant_id = ? AND id IN ? AND superseded = ?", tenantID, ids, false).
		Updates(map[string]any{
			"superseded":    true,
			"superseded_at": at,
		}).Error
}

// Ensure GormEntryRepository implements EntryRepository
var _ ledger.EntryRepository = (*GormEntryRepository)(nil)
