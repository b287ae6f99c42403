package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormNetworkDocumentRepository implements NetworkDocumentRepository using GORM
type GormNetworkDocumentRepository struct {
	db *gorm.DB
}

// NewGormNetworkDocumentRepository creates a new GormNetworkDocumentRepository
func NewGormNetworkDocumentRepository(db *gorm.DB) *GormNetworkDocumentRepository {
	return &GormNetworkDocumentRepository{db: db}
}

// FindByDocument returns the network document mirrored by a bill, or nil
func (r *GormNetworkDocumentRepository) FindByDocument(ctx context.Context, tenantID, documentID uuid.UUID) (*payables.NetworkDocument, error) {
	var model models.NetworkDocumentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND document_id = ?", tenantID, documentID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save writes the network document status
func (r *GormNetworkDocumentRepository) Save(ctx context.Context, doc *payables.NetworkDocument) error {
	return r.db.WithContext(ctx).Save(models.NetworkDocumentModelFromDomain(doc)).Error
}

// Ensure GormNetworkDocumentRepository implements NetworkDocumentRepository
var _ payables.NetworkDocumentRepository = (*GormNetworkDocumentRepository)(nil)
