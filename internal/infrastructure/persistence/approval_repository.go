package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/approval"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormWorkflowRepository implements WorkflowRepository using GORM
type GormWorkflowRepository struct {
	db *gorm.DB
}

// NewGormWorkflowRepository creates a new GormWorkflowRepository
func NewGormWorkflowRepository(db *gorm.DB) *GormWorkflowRepository {
	return &GormWorkflowRepository{db: db}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *GormWorkflowRepository) withTree(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Paths", byPosition).
		Preload("Paths.Rules").
		Preload("Paths.Steps", byPosition).
		Preload("Paths.Steps.Assignees")
}

// FindByIDForTenant finds a workflow with its paths, rules and steps
func (r *GormWorkflowRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*approval.Workflow, error) {
	var model models.ApprovalWorkflowModel
	if err := r.withTree(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindDefault finds the tenant's enabled default workflow, or nil if none is configured
func (r *GormWorkflowRepository) FindDefault(ctx context.Context, tenantID uuid.UUID) (*approval.Workflow, error) {
	var model models.ApprovalWorkflowModel
	if err := r.withTree(ctx).
		Where("tenant_id = ? AND is_default = ? AND enabled = ?", tenantID, true, true).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindStep finds a step with its assignees. The owning workflow must belong to tenantID.
func (r *GormWorkflowRepository) FindStep(ctx context.Context, tenantID, stepID uuid.UUID) (*approval.Step, error) {
	var model models.ApprovalStepModel
	if err := r.db.WithContext(ctx).
		Preload("Assignees").
		Joins("JOIN approval_workflows ON approval_workflows.id = approval_steps.workflow_id").
		Where("approval_workflows.tenant_id = ? AND approval_steps.id = ?", tenantID, stepID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	step := model.ToDomain()
	return &step, nil
}

// GormTaskRepository implements TaskRepository using GORM
type GormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GormTaskRepository
func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// FindByDocument lists the tasks of a document, oldest first
func (r *GormTaskRepository) FindByDocument(ctx context.Context, tenantID, documentID uuid.UUID) ([]approval.Task, error) {
	var taskModels []models.ApprovalTaskModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND document_id = ?", tenantID, documentID).
		Order("created_at ASC").
		Find(&taskModels).Error; err != nil {
		return nil, err
	}

	tasks := make([]approval.Task, len(taskModels))
	for i := range taskModels {
		tasks[i] = taskModels[i].ToDomain()
	}
	return tasks, nil
}

// CreateBatch inserts tasks
func (r *GormTaskRepository) CreateBatch(ctx context.Context, tasks []approval.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	taskModels := make([]models.ApprovalTaskModel, len(tasks))
	for i := range tasks {
		taskModels[i] = models.ApprovalTaskModelFromDomain(tasks[i])
	}
	return r.db.WithContext(ctx).Create(&taskModels).Error
}

// DeleteIncomplete deletes the document's open tasks for a step
func (r *GormTaskRepository) DeleteIncomplete(ctx context.Context, tenantID, documentID, stepID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND document_id = ? AND step_id = ? AND completed_at IS NULL", tenantID, documentID, stepID).
		Delete(&models.ApprovalTaskModel{}).Error
}

// GormRoleDirectory expands roles into users from the role_members table
type GormRoleDirectory struct {
	db *gorm.DB
}

// NewGormRoleDirectory creates a new GormRoleDirectory
func NewGormRoleDirectory(db *gorm.DB) *GormRoleDirectory {
	return &GormRoleDirectory{db: db}
}

// MembersOfRole returns the users currently holding a role
func (r *GormRoleDirectory) MembersOfRole(ctx context.Context, tenantID, roleID uuid.UUID) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.RoleMemberModel{}).
		Where("tenant_id = ? AND role_id = ?", tenantID, roleID).
		Order("user_id ASC").
		Pluck("user_id", &userIDs).Error; err != nil {
		return nil, err
	}
	return userIDs, nil
}

var (
	_ approval.WorkflowRepository = (*GormWorkflowRepository)(nil)
	_ approval.TaskRepository     = (*GormTaskRepository)(nil)
	_ approval.RoleDirectory      = (*GormRoleDirectory)(nil)
)
