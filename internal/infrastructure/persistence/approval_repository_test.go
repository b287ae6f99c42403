package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/approval"
	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type seededWorkflow struct {
	workflow   models.ApprovalWorkflowModel
	largePath  uuid.UUID
	firstStep  uuid.UUID
	secondStep uuid.UUID
	memberID   uuid.UUID
	roleID     uuid.UUID
}

// seedWorkflow stores a workflow with a rule-bearing path for large bills and a catch-all path.
// Rows are inserted out of position order.
func seedWorkflow(t *testing.T, db *gorm.DB, tenantID uuid.UUID, enabled, isDefault bool) seededWorkflow {
	t.Helper()
	s := seededWorkflow{
		largePath:  uuid.New(),
		firstStep:  uuid.New(),
		secondStep: uuid.New(),
		memberID:   uuid.New(),
		roleID:     uuid.New(),
	}
	now := time.Now()
	s.workflow = models.ApprovalWorkflowModel{
		BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		TenantID:  tenantID,
		Name:      "Bills",
		Enabled:   enabled,
		IsDefault: isDefault,
	}
	wfID := s.workflow.ID
	catchAll := uuid.New()

	require.NoError(t, db.Omit("Paths").Create(&s.workflow).Error)
	// gorm skips false bools with a default tag on insert
	require.NoError(t, db.Model(&s.workflow).Updates(map[string]any{"enabled": enabled, "is_default": isDefault}).Error)
	require.NoError(t, db.Create(&[]models.ApprovalPathModel{
		{ID: catchAll, WorkflowID: wfID, Position: 1},
		{ID: s.largePath, WorkflowID: wfID, Position: 0},
	}).Error)
	require.NoError(t, db.Create(&models.ApprovalRuleModel{
		ID: uuid.New(), PathID: s.largePath, Field: approval.FieldAmount, Operator: approval.OpGte, Value: "1000",
	}).Error)
	require.NoError(t, db.Create(&[]models.ApprovalStepModel{
		{ID: s.secondStep, WorkflowID: wfID, PathID: s.largePath, Position: 1, MinimumApprovers: 1},
		{ID: s.firstStep, WorkflowID: wfID, PathID: s.largePath, Position: 0, MinimumApprovers: 2},
	}).Error)
	require.NoError(t, db.Create(&[]models.ApprovalStepAssigneeModel{
		{StepID: s.firstStep, Kind: models.AssigneeKindMember, AssigneeID: s.memberID},
		{StepID: s.firstStep, Kind: models.AssigneeKindRole, AssigneeID: s.roleID},
	}).Error)
	return s
}

func TestGormWorkflowRepository_FindByIDForTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormWorkflowRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	seeded := seedWorkflow(t, db, tenantID, true, false)

	wf, err := repo.FindByIDForTenant(ctx, tenantID, seeded.workflow.ID)
	require.NoError(t, err)
	assert.True(t, wf.Enabled)
	require.Len(t, wf.Paths, 2)
	assert.Equal(t, seeded.largePath, wf.Paths[0].ID)
	require.Len(t, wf.Paths[0].Rules, 1)
	assert.Equal(t, approval.OpGte, wf.Paths[0].Rules[0].Operator)
	require.Len(t, wf.Paths[0].Steps, 2)
	assert.Equal(t, seeded.firstStep, wf.Paths[0].Steps[0].ID)
	assert.Equal(t, []uuid.UUID{seeded.memberID}, wf.Paths[0].Steps[0].MemberIDs)
	assert.Equal(t, []uuid.UUID{seeded.roleID}, wf.Paths[0].Steps[0].RoleIDs)
	assert.Empty(t, wf.Paths[1].Steps)

	_, err = repo.FindByIDForTenant(ctx, uuid.New(), seeded.workflow.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormWorkflowRepository_FindDefault(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormWorkflowRepository(db)
	ctx := context.Background()

	t.Run("enabled default is returned", func(t *testing.T) {
		tenantID := uuid.New()
		seeded := seedWorkflow(t, db, tenantID, true, true)
		wf, err := repo.FindDefault(ctx, tenantID)
		require.NoError(t, err)
		require.NotNil(t, wf)
		assert.Equal(t, seeded.workflow.ID, wf.ID)
	})

	t.Run("disabled default is ignored", func(t *testing.T) {
		tenantID := uuid.New()
		seedWorkflow(t, db, tenantID, false, true)
		wf, err := repo.FindDefault(ctx, tenantID)
		require.NoError(t, err)
		assert.Nil(t, wf)
	})

	t.Run("non-default is ignored", func(t *testing.T) {
		tenantID := uuid.New()
		seedWorkflow(t, db, tenantID, true, false)
		wf, err := repo.FindDefault(ctx, tenantID)
		require.NoError(t, err)
		assert.Nil(t, wf)
	})
}

func TestGormWorkflowRepository_FindStep(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormWorkflowRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	seeded := seedWorkflow(t, db, tenantID, true, false)

	step, err := repo.FindStep(ctx, tenantID, seeded.firstStep)
	require.NoError(t, err)
	assert.Equal(t, 2, step.MinimumApprovers)
	assert.Equal(t, seeded.workflow.ID, step.WorkflowID)
	assert.Len(t, step.MemberIDs, 1)

	_, err = repo.FindStep(ctx, uuid.New(), seeded.firstStep)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormTaskRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormTaskRepository(db)
	ctx := context.Background()
	tenantID, documentID, workflowID, stepID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	completedAt := base.Add(time.Hour)

	open := approval.Task{ID: uuid.New(), TenantID: tenantID, DocumentID: documentID, WorkflowID: workflowID,
		StepID: stepID, AssigneeID: uuid.New(), CreatedAt: base}
	done := approval.Task{ID: uuid.New(), TenantID: tenantID, DocumentID: documentID, WorkflowID: workflowID,
		StepID: stepID, AssigneeID: uuid.New(), CreatedAt: base.Add(time.Second), CompletedAt: &completedAt}
	otherStep := approval.Task{ID: uuid.New(), TenantID: tenantID, DocumentID: documentID, WorkflowID: workflowID,
		StepID: uuid.New(), AssigneeID: uuid.New(), CreatedAt: base.Add(2 * time.Second)}

	require.NoError(t, repo.CreateBatch(ctx, []approval.Task{open, done, otherStep}))
	require.NoError(t, repo.CreateBatch(ctx, nil))

	tasks, err := repo.FindByDocument(ctx, tenantID, documentID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, open.ID, tasks[0].ID)

	require.NoError(t, repo.DeleteIncomplete(ctx, tenantID, documentID, stepID))

	tasks, err = repo.FindByDocument(ctx, tenantID, documentID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, done.ID, tasks[0].ID)
	assert.True(t, tasks[0].IsComplete())
	assert.Equal(t, otherStep.ID, tasks[1].ID)
}

func TestGormRoleDirectory_MembersOfRole(t *testing.T) {
	db := setupTestDB(t)
	dir := NewGormRoleDirectory(db)
	ctx := context.Background()
	tenantID, roleID := uuid.New(), uuid.New()
	alice, bob := uuid.New(), uuid.New()

	require.NoError(t, db.Create(&[]models.RoleMemberModel{
		{TenantID: tenantID, RoleID: roleID, UserID: alice},
		{TenantID: tenantID, RoleID: roleID, UserID: bob},
		{TenantID: uuid.New(), RoleID: roleID, UserID: uuid.New()},
	}).Error)

	members, err := dir.MembersOfRole(ctx, tenantID, roleID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, members)

	members, err = dir.MembersOfRole(ctx, tenantID, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestGormCounterpartyRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCounterpartyRepository(db)
	ctx := context.Background()
	tenantID, workflowID := uuid.New(), uuid.New()
	now := time.Now()

	vendor := models.CounterpartyModel{
		BaseModel:                 models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		TenantID:                  tenantID,
		Kind:                      models.CounterpartyKindVendor,
		Name:                      "Acme Supplies",
		DefaultApprovalWorkflowID: &workflowID,
	}
	customer := models.CounterpartyModel{
		BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		TenantID:  tenantID,
		Kind:      models.CounterpartyKindCustomer,
		Name:      "Globex",
	}
	require.NoError(t, db.Create(&[]models.CounterpartyModel{vendor, customer}).Error)

	found, err := repo.FindByIDForTenant(ctx, tenantID, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Supplies", found.Name)
	assert.Equal(t, workflowID, *found.DefaultApprovalWorkflowID)

	_, err = repo.FindByIDForTenant(ctx, tenantID, customer.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound, "customers are not vendors")

	defaultID, err := repo.DefaultWorkflowID(ctx, tenantID, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, workflowID, *defaultID)

	defaultID, err = repo.DefaultWorkflowID(ctx, tenantID, customer.ID)
	require.NoError(t, err)
	assert.Nil(t, defaultID)

	defaultID, err = repo.DefaultWorkflowID(ctx, tenantID, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, defaultID)
}

func TestGormNetworkDocumentRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormNetworkDocumentRepository(db)
	ctx := context.Background()
	tenantID, documentID := uuid.New(), uuid.New()

	missing, err := repo.FindByDocument(ctx, tenantID, documentID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	doc := &payables.NetworkDocument{
		ID:         uuid.New(),
		TenantID:   tenantID,
		DocumentID: documentID,
		Status:     payables.NetworkStatusAccepted,
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, repo.Save(ctx, doc))

	require.True(t, doc.TryTransition(payables.NetworkStatusPaid))
	require.NoError(t, repo.Save(ctx, doc))

	found, err := repo.FindByDocument(ctx, tenantID, documentID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, payables.NetworkStatusPaid, found.Status)

	other, err := repo.FindByDocument(ctx, uuid.New(), documentID)
	require.NoError(t, err)
	assert.Nil(t, other)
}
