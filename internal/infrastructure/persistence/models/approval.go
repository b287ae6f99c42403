package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/approval"
	"github.com/google/uuid"
)

// ApprovalWorkflowModel is the persistence model for an approval workflow
type ApprovalWorkflowModel struct {
	BaseModel
	TenantID  uuid.UUID           `gorm:"type:uuid;not null;index"`
	Name      string              `gorm:"type:varchar(100);not null"`
	Enabled   bool                `gorm:"not null;default:true"`
	IsDefault bool                `gorm:"not null;default:false"`
	Paths     []ApprovalPathModel `gorm:"foreignKey:WorkflowID;references:ID"`
}

// TableName returns the table name for GORM
func (ApprovalWorkflowModel) TableName() string {
	return "approval_workflows"
}

// ToDomain converts the persistence model to a domain Workflow.
// Paths, rules and steps must be preloaded in position order.
func (m *ApprovalWorkflowModel) ToDomain() *approval.Workflow {
	wf := &approval.Workflow{
		ID:        m.ID,
		TenantID:  m.TenantID,
		Name:      m.Name,
		Enabled:   m.Enabled,
		IsDefault: m.IsDefault,
		Paths:     make([]approval.Path, len(m.Paths)),
	}
	for i := range m.Paths {
		wf.Paths[i] = m.Paths[i].ToDomain()
	}
	return wf
}

// ApprovalPathModel is the persistence model for a workflow path
type ApprovalPathModel struct {
	ID         uuid.UUID           `gorm:"type:uuid;primary_key"`
	WorkflowID uuid.UUID           `gorm:"type:uuid;not null;index"`
	Position   int                 `gorm:"not null"`
	Rules      []ApprovalRuleModel `gorm:"foreignKey:PathID;references:ID"`
	Steps      []ApprovalStepModel `gorm:"foreignKey:PathID;references:ID"`
}

// TableName returns the table name for GORM
func (ApprovalPathModel) TableName() string {
	return "approval_paths"
}

// ToDomain converts the persistence model to a domain Path
func (m *ApprovalPathModel) ToDomain() approval.Path {
	p := approval.Path{
		ID:         m.ID,
		WorkflowID: m.WorkflowID,
		Position:   m.Position,
		Rules:      make([]approval.Rule, len(m.Rules)),
		Steps:      make([]approval.Step, len(m.Steps)),
	}
	for i, r := range m.Rules {
		p.Rules[i] = approval.Rule{ID: r.ID, PathID: r.PathID, Field: r.Field, Operator: r.Operator, Value: r.Value}
	}
	for i := range m.Steps {
		p.Steps[i] = m.Steps[i].ToDomain()
	}
	return p
}

// ApprovalRuleModel is the persistence model for a path rule
type ApprovalRuleModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	PathID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Field    string    `gorm:"type:varchar(50);not null"`
	Operator string    `gorm:"type:varchar(10);not null"`
	Value    string    `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (ApprovalRuleModel) TableName() string {
	return "approval_rules"
}

// AssigneeKind tells whether a step assignee is a user or a role
type AssigneeKind string

const (
	AssigneeKindMember AssigneeKind = "MEMBER"
	AssigneeKindRole   AssigneeKind = "ROLE"
)

// ApprovalStepModel is the persistence model for a path step
type ApprovalStepModel struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primary_key"`
	WorkflowID       uuid.UUID                   `gorm:"type:uuid;not null;index"`
	PathID           uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Position         int                         `gorm:"not null"`
	MinimumApprovers int                         `gorm:"not null;default:1"`
	Assignees        []ApprovalStepAssigneeModel `gorm:"foreignKey:StepID;references:ID"`
}

// TableName returns the table name for GORM
func (ApprovalStepModel) TableName() string {
	return "approval_steps"
}

// ToDomain converts the persistence model to a domain Step
func (m *ApprovalStepModel) ToDomain() approval.Step {
	s := approval.Step{
		ID:               m.ID,
		WorkflowID:       m.WorkflowID,
		PathID:           m.PathID,
		Position:         m.Position,
		MinimumApprovers: m.MinimumApprovers,
		MemberIDs:        make([]uuid.UUID, 0),
		RoleIDs:          make([]uuid.UUID, 0),
	}
	for _, a := range m.Assignees {
		switch a.Kind {
		case AssigneeKindMember:
			s.MemberIDs = append(s.MemberIDs, a.AssigneeID)
		case AssigneeKindRole:
			s.RoleIDs = append(s.RoleIDs, a.AssigneeID)
		}
	}
	return s
}

// ApprovalStepAssigneeModel links a step to a user or a role
type ApprovalStepAssigneeModel struct {
	StepID     uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Kind       AssigneeKind `gorm:"type:varchar(10);primaryKey"`
	AssigneeID uuid.UUID    `gorm:"type:uuid;primaryKey"`
}

// TableName returns the table name for GORM
func (ApprovalStepAssigneeModel) TableName() string {
	return "approval_step_assignees"
}

// ApprovalTaskModel is the persistence model for an approval task.
// document_id carries no foreign key so tasks can be created before their document.
type ApprovalTaskModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index:idx_approval_tasks_document,priority:1"`
	DocumentID  uuid.UUID `gorm:"type:uuid;not null;index:idx_approval_tasks_document,priority:2"`
	WorkflowID  uuid.UUID `gorm:"type:uuid;not null"`
	StepID      uuid.UUID `gorm:"type:uuid;not null"`
	AssigneeID  uuid.UUID `gorm:"type:uuid;not null"`
	CompletedAt *time.Time
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ApprovalTaskModel) TableName() string {
	return "approval_tasks"
}

// ToDomain converts the persistence model to a domain Task
func (m *ApprovalTaskModel) ToDomain() approval.Task {
	return approval.Task{
		ID:          m.ID,
		TenantID:    m.TenantID,
		DocumentID:  m.DocumentID,
		WorkflowID:  m.WorkflowID,
		StepID:      m.StepID,
		AssigneeID:  m.AssigneeID,
		CompletedAt: m.CompletedAt,
		CreatedAt:   m.CreatedAt,
	}
}

// ApprovalTaskModelFromDomain creates a persistence model from a domain Task
func ApprovalTaskModelFromDomain(t approval.Task) ApprovalTaskModel {
	return ApprovalTaskModel{
		ID:          t.ID,
		TenantID:    t.TenantID,
		DocumentID:  t.DocumentID,
		WorkflowID:  t.WorkflowID,
		StepID:      t.StepID,
		AssigneeID:  t.AssigneeID,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
	}
}

// RoleMemberModel maps a user into a role
type RoleMemberModel struct {
	TenantID uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoleID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey"`
}

// TableName returns the table name for GORM
func (RoleMemberModel) TableName() string {
	return "role_members"
}
