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

// GormVendorPaymentRepository implements VendorPaymentRepository using GORM
type GormVendorPaymentRepository struct {
	db *gorm.DB
}

// NewGormVendorPaymentRepository creates a new GormVendorPaymentRepository
func NewGormVendorPaymentRepository(db *gorm.DB) *GormVendorPaymentRepository {
	return &GormVendorPaymentRepository{db: db}
}

// FindByIDForTenant finds a payment with its items within a tenant
func (r *GormVendorPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payables.VendorPayment, error) {
	var model models.VendorPaymentModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBatch finds the payments a batch produced, oldest first
func (r *GormVendorPaymentRepository) FindByBatch(ctx context.Context, tenantID, batchID uuid.UUID) ([]*payables.VendorPayment, error) {
	var paymentModels []models.VendorPaymentModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND batch_id = ?", tenantID, batchID).
		Order("created_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]*payables.VendorPayment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = paymentModels[i].ToDomain()
	}
	return payments, nil
}

// Create inserts a new payment together with its items
func (r *GormVendorPaymentRepository) Create(ctx context.Context, payment *payables.VendorPayment) error {
	model := models.VendorPaymentModelFromDomain(payment)
	return r.db.WithContext(ctx).Create(model).Error
}

// SaveWithLock updates the payment header with optimistic locking
func (r *GormVendorPaymentRepository) SaveWithLock(ctx context.Context, payment *payables.VendorPayment) error {
	model := models.VendorPaymentModelFromDomain(payment)
	return saveWithLock(ctx, r.db, model, &model.Version, payment.TenantID, payment.ID, payment)
}

// SaveItems inserts new items and overwrites existing ones
func (r *GormVendorPaymentRepository) SaveItems(ctx context.Context, items []payables.PaymentItem) error {
	if len(items) == 0 {
		return nil
	}
	itemModels := make([]models.PaymentItemModel, len(items))
	for i := range items {
		itemModels[i] = models.PaymentItemModelFromDomain(items[i])
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&itemModels).Error
}

// DeleteMissingItems deletes the payment's items whose id is not in keepIDs
func (r *GormVendorPaymentRepository) DeleteMissingItems(ctx context.Context, tenantID, paymentID uuid.UUID, keepIDs []uuid.UUID) error {
	return deleteMissing(ctx, r.db, &models.PaymentItemModel{}, "payment_id", tenantID, paymentID, keepIDs)
}

// GormVendorAdjustmentRepository implements VendorAdjustmentRepository using GORM
type GormVendorAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormVendorAdjustmentRepository creates a new GormVendorAdjustmentRepository
func NewGormVendorAdjustmentRepository(db *gorm.DB) *GormVendorAdjustmentRepository {
	return &GormVendorAdjustmentRepository{db: db}
}

// FindByIDForTenant finds an adjustment within a tenant
func (r *GormVendorAdjustmentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payables.VendorAdjustment, error) {
	var model models.VendorAdjustmentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new adjustment
func (r *GormVendorAdjustmentRepository) Create(ctx context.Context, adjustment *payables.VendorAdjustment) error {
	return r.db.WithContext(ctx).Create(models.VendorAdjustmentModelFromDomain(adjustment)).Error
}

// SaveWithLock updates the adjustment with optimistic locking
func (r *GormVendorAdjustmentRepository) SaveWithLock(ctx context.Context, adjustment *payables.VendorAdjustment) error {
	model := models.VendorAdjustmentModelFromDomain(adjustment)
	return saveWithLock(ctx, r.db, model, &model.Version, adjustment.TenantID, adjustment.ID, adjustment)
}

var (
	_ payables.VendorPaymentRepository    = (*GormVendorPaymentRepository)(nil)
	_ payables.VendorAdjustmentRepository = (*GormVendorAdjustmentRepository)(nil)
)
