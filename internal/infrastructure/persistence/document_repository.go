package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDocumentRepository implements DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

func preloadLineItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByIDForTenant finds a document with its line items within a tenant
func (r *GormDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payables.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).
		Preload("LineItems", preloadLineItems).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDsForTenant finds documents by their IDs; unknown ids are skipped
func (r *GormDocumentRepository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*payables.Document, error) {
	if len(ids) == 0 {
		return []*payables.Document{}, nil
	}

	var docModels []models.DocumentModel
	if err := r.db.WithContext(ctx).
		Preload("LineItems", preloadLineItems).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&docModels).Error; err != nil {
		return nil, err
	}

	docs := make([]*payables.Document, len(docModels))
	for i := range docModels {
		docs[i] = docModels[i].ToDomain()
	}
	return docs, nil
}

// FindAllForTenant finds documents for a tenant with filtering
func (r *GormDocumentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter payables.DocumentFilter) ([]payables.Document, error) {
	query := r.db.WithContext(ctx).Model(&models.DocumentModel{}).Where("tenant_id = ?", tenantID)

	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CounterpartyID != nil {
		query = query.Where("counterparty_id = ?", *filter.CounterpartyID)
	}
	if !filter.IncludeVoided {
		query = query.Where("voided = ?", false)
	}

	query = query.Order(orderBy(filter.Filter, documentSortColumns, "issue_date"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var docModels []models.DocumentModel
	if err := query.Preload("LineItems", preloadLineItems).Find(&docModels).Error; err != nil {
		return nil, err
	}

	docs := make([]payables.Document, len(docModels))
	for i := range docModels {
		docs[i] = *docModels[i].ToDomain()
	}
	return docs, nil
}

// Create inserts a new document together with its line items
func (r *GormDocumentRepository) Create(ctx context.Context, doc *payables.Document) error {
	model := models.DocumentModelFromDomain(doc)
	return r.db.WithContext(ctx).Create(model).Error
}

// SaveWithLock updates the document header with optimistic locking
func (r *GormDocumentRepository) SaveWithLock(ctx context.Context, doc *payables.Document) error {
	model := models.DocumentModelFromDomain(doc)
	return saveWithLock(ctx, r.db, model, &model.Version, doc.TenantID, doc.ID, doc)
}

// SaveLineItems inserts new line items and overwrites existing ones
func (r *GormDocumentRepository) SaveLineItems(ctx context.Context, items []payables.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	lineModels := make([]models.LineItemModel, len(items))
	for i := range items {
		lineModels[i] = models.LineItemModelFromDomain(items[i])
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&lineModels).Error
}

// DeleteMissingLineItems deletes the document's lines whose id is not in keepIDs
func (r *GormDocumentRepository) DeleteMissingLineItems(ctx context.Context, tenantID, documentID uuid.UUID, keepIDs []uuid.UUID) error {
	return deleteMissing(ctx, r.db, &models.LineItemModel{}, "document_id", tenantID, documentID, keepIDs)
}

// Ensure GormDocumentRepository implements DocumentRepository
var _ payables.DocumentRepository = (*GormDocumentRepository)(nil)
