package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// immutableColumns are never rewritten by an aggregate save
var immutableColumns = []string{"id", "tenant_id", "created_at", "created_by"}

// versioned is an aggregate root carrying an optimistic lock token
type versioned interface {
	GetVersion() int
	IncrementVersion()
}

// saveWithLock writes every header column of model when the stored row still has
// the aggregate's version. On success the aggregate's version is bumped to match the row.
// Zero values are written too, so clearing a nullable column is persisted.
func saveWithLock(ctx context.Context, db *gorm.DB, model any, version *int, tenantID, id uuid.UUID, aggregate versioned) error {
	expected := aggregate.GetVersion()
	*version = expected + 1

	result := db.WithContext(ctx).
		Model(model).
		Where("tenant_id = ? AND id = ? AND version = ?", tenantID, id, expected).
		Select("*").
		Omit(append([]string{clause.Associations}, immutableColumns...)...).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	aggregate.IncrementVersion()
	return nil
}

// deleteMissing deletes child rows of parent that are not listed in keepIDs.
// An empty keep list deletes every child row.
func deleteMissing(ctx context.Context, db *gorm.DB, model any, parentColumn string, tenantID, parentID uuid.UUID, keepIDs []uuid.UUID) error {
	query := db.WithContext(ctx).Where("tenant_id = ? AND "+parentColumn+" = ?", tenantID, parentID)
	if len(keepIDs) > 0 {
		query = query.Where("id NOT IN ?", keepIDs)
	}
	return query.Delete(model).Error
}
