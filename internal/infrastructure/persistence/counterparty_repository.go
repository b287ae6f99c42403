package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/approval"
	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCounterpartyRepository reads vendors and customers from the counterparties table
type GormCounterpartyRepository struct {
	db *gorm.DB
}

// NewGormCounterpartyRepository creates a new GormCounterpartyRepository
func NewGormCounterpartyRepository(db *gorm.DB) *GormCounterpartyRepository {
	return &GormCounterpartyRepository{db: db}
}

func (r *GormCounterpartyRepository) find(ctx context.Context, tenantID, id uuid.UUID) (*models.CounterpartyModel, error) {
	var model models.CounterpartyModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &model, nil
}

// FindByIDForTenant finds a vendor within a tenant
func (r *GormCounterpartyRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payables.Vendor, error) {
	model, err := r.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if model.Kind != models.CounterpartyKindVendor {
		return nil, shared.ErrNotFound
	}
	return model.ToVendor(), nil
}

// DefaultWorkflowID returns the approval workflow configured on a vendor or customer.
// An unknown counterparty has no default.
func (r *GormCounterpartyRepository) DefaultWorkflowID(ctx context.Context, tenantID, counterpartyID uuid.UUID) (*uuid.UUID, error) {
	model, err := r.find(ctx, tenantID, counterpartyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.DefaultApprovalWorkflowID, nil
}

var (
	_ payables.VendorRepository      = (*GormCounterpartyRepository)(nil)
	_ approval.CounterpartyDirectory = (*GormCounterpartyRepository)(nil)
)
