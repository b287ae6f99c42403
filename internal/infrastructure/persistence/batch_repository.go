package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByIDForTenant finds a batch with its rows in scheduling order
func (r *GormBatchRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payables.VendorPaymentBatch, error) {
	var model models.PaymentBatchModel
	if err := r.db.WithContext(ctx).
		Preload("Bills", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new batch together with its rows
func (r *GormBatchRepository) Create(ctx context.Context, batch *payables.VendorPaymentBatch) error {
	return r.db.WithContext(ctx).Create(models.PaymentBatchModelFromDomain(batch)).Error
}

// SaveWithLock updates the batch header with optimistic locking
func (r *GormBatchRepository) SaveWithLock(ctx context.Context, batch *payables.VendorPaymentBatch) error {
	model := models.PaymentBatchModelFromDomain(batch)
	return saveWithLock(ctx, r.db, model, &model.Version, batch.TenantID, batch.ID, batch)
}

// SaveBills records the outcome of each row's last attempt
func (r *GormBatchRepository) SaveBills(ctx context.Context, bills []*payables.BatchBill) error {
	for _, b := range bills {
		result := r.db.WithContext(ctx).
			Model(&models.BatchBillModel{}).
			Where("tenant_id = ? AND id = ?", b.TenantID, b.ID).
			Updates(map[string]any{
				"payment_id":   b.PaymentID,
				"check_number": b.CheckNumber,
				"error":        b.Error,
				"attempted_at": b.AttemptedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
	}
	return nil
}

// Ensure GormBatchRepository implements BatchRepository
var _ payables.BatchRepository = (*GormBatchRepository)(nil)
