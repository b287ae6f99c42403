package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogModel stores one published domain event
type AuditLogModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index"`
	EventType     string    `gorm:"type:varchar(100);not null;index"`
	AggregateType string    `gorm:"type:varchar(50);not null"`
	AggregateID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Payload       string    `gorm:"type:text;not null"`
	OccurredAt    time.Time `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// All returns every persistence model, for AutoMigrate in tests
func All() []any {
	return []any{
		&CounterpartyModel{},
		&DocumentModel{},
		&LineItemModel{},
		&NetworkDocumentModel{},
		&VendorPaymentModel{},
		&PaymentItemModel{},
		&VendorAdjustmentModel{},
		&PaymentBatchModel{},
		&BatchBillModel{},
		&LedgerEntryModel{},
		&ApprovalWorkflowModel{},
		&ApprovalPathModel{},
		&ApprovalRuleModel{},
		&ApprovalStepModel{},
		&ApprovalStepAssigneeModel{},
		&ApprovalTaskModel{},
		&RoleMemberModel{},
		&AuditLogModel{},
	}
}
