package persistence

import (
	"context"

	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditLogRepository stores audit records in the audit_logs table
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Append inserts one audit record
func (r *GormAuditLogRepository) Append(ctx context.Context, record event.AuditRecord) error {
	model := &models.AuditLogModel{
		ID:            record.ID,
		TenantID:      record.TenantID,
		EventType:     record.EventType,
		AggregateType: record.AggregateType,
		AggregateID:   record.AggregateID,
		Payload:       string(record.Payload),
		OccurredAt:    record.OccurredAt,
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByAggregate lists the audit records of an aggregate in the order they occurred
func (r *GormAuditLogRepository) FindByAggregate(ctx context.Context, tenantID, aggregateID uuid.UUID) ([]event.AuditRecord, error) {
	var logModels []models.AuditLogModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND aggregate_id = ?", tenantID, aggregateID).
		Order("occurred_at ASC").
		Find(&logModels).Error; err != nil {
		return nil, err
	}

	records := make([]event.AuditRecord, len(logModels))
	for i, m := range logModels {
		records[i] = event.AuditRecord{
			ID:            m.ID,
			TenantID:      m.TenantID,
			EventType:     m.EventType,
			AggregateType: m.AggregateType,
			AggregateID:   m.AggregateID,
			Payload:       []byte(m.Payload),
			OccurredAt:    m.OccurredAt,
		}
	}
	return records, nil
}

// Ensure GormAuditLogRepository implements AuditLogStore
var _ event.AuditLogStore = (*GormAuditLogRepository)(nil)
