package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel carries the identity and timestamps shared by every table
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TenantAggregateModel is the header of a tenant-scoped aggregate row.
// Version is the optimistic lock token checked by SaveWithLock.
type TenantAggregateModel struct {
	BaseModel
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	Version   int        `gorm:"not null;default:1"`
}

func (m *TenantAggregateModel) fromRoot(root shared.TenantAggregateRoot) {
	m.ID = root.ID
	m.CreatedAt = root.CreatedAt
	m.UpdatedAt = root.UpdatedAt
	m.Version = root.Version
	m.TenantID = root.TenantID
	m.CreatedBy = root.CreatedBy
}

func (m *TenantAggregateModel) root() shared.TenantAggregateRoot {
	var root shared.TenantAggregateRoot
	root.ID = m.ID
	root.CreatedAt = m.CreatedAt
	root.UpdatedAt = m.UpdatedAt
	root.Version = m.Version
	root.TenantID = m.TenantID
	root.CreatedBy = m.CreatedBy
	return root
}
