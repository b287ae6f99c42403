package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Assignment carries the caller's explicit workflow and step choice.
// The *Set flags distinguish "not supplied" from "explicitly cleared".
type Assignment struct {
	WorkflowID  *uuid.UUID
	WorkflowSet bool
	StepID      *uuid.UUID
	StepSet     bool
}

// Touched returns true when the caller supplied a workflow or a step
func (a Assignment) Touched() bool {
	return a.WorkflowSet || a.StepSet
}

// clears returns true when either field was explicitly set to nil
func (a Assignment) clears() bool {
	return (a.WorkflowSet && a.WorkflowID == nil) || (a.StepSet && a.StepID == nil)
}

// Resolver determines which workflow and step apply to a document and
// keeps approval tasks in line with that choice.
type Resolver struct {
	workflows      WorkflowRepository
	tasks          TaskRepository
	roles          RoleDirectory
	counterparties CounterpartyDirectory
}

// NewResolver creates a new Resolver
func NewResolver(
	workflows WorkflowRepository,
	tasks TaskRepository,
	roles RoleDirectory,
	counterparties CounterpartyDirectory,
) *Resolver {
	return &Resolver{
		workflows:      workflows,
		tasks:          tasks,
		roles:          roles,
		counterparties: counterparties,
	}
}

// CalculateWorkflow resolves the workflow for a subject: an explicit id wins,
// then the counterparty's default, then the tenant's default-and-enabled workflow.
// Returns nil when none applies.
func (r *Resolver) CalculateWorkflow(ctx context.Context, s Subject, explicitID *uuid.UUID) (*Workflow, error) {
	tenantID := s.SubjectTenantID()
	if explicitID != nil {
		wf, err := r.workflows.FindByIDForTenant(ctx, tenantID, *explicitID)
		if err != nil {
			return nil, fmt.Errorf("failed to load approval workflow %s: %w", *explicitID, err)
		}
		return wf, nil
	}

	if r.counterparties != nil {
		defaultID, err := r.counterparties.DefaultWorkflowID(ctx, tenantID, s.SubjectCounterpartyID())
		if err != nil {
			return nil, fmt.Errorf("failed to look up counterparty workflow: %w", err)
		}
		if defaultID != nil {
			wf, err := r.workflows.FindByIDForTenant(ctx, tenantID, *defaultID)
			if err != nil {
				return nil, fmt.Errorf("failed to load approval workflow %s: %w", *defaultID, err)
			}
			if wf.Enabled {
				return wf, nil
			}
		}
	}

	wf, err := r.workflows.FindDefault(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load default approval workflow: %w", err)
	}
	if wf == nil || !wf.Enabled {
		return nil, nil
	}
	return wf, nil
}

// CalculateWorkflowStep resolves the step: an explicit id wins, otherwise the
// first step of the first matching path. Returns nil when no path matches.
// A step that belongs to another workflow than wf is a programming error and panics.
func (r *Resolver) CalculateWorkflowStep(ctx context.Context, s Subject, wf *Workflow, explicitStepID *uuid.UUID) (*Step, error) {
	if explicitStepID != nil {
		var step *Step
		if wf != nil {
			step = wf.FindStep(*explicitStepID)
		}
		if step == nil {
			loaded, err := r.workflows.FindStep(ctx, s.SubjectTenantID(), *explicitStepID)
			if err != nil {
				return nil, fmt.Errorf("failed to load approval step %s: %w", *explicitStepID, err)
			}
			step = loaded
		}
		if wf != nil && step.WorkflowID != wf.ID {
			panic(fmt.Sprintf("approval step %s belongs to workflow %s, not %s", step.ID, step.WorkflowID, wf.ID))
		}
		return step, nil
	}

	if wf == nil {
		return nil, nil
	}
	path := wf.DeterminePath(s)
	if path == nil {
		return nil, nil
	}
	return path.FirstStep(), nil
}

// resolve applies the assignment rules and returns the resulting ids
func (r *Resolver) resolve(ctx context.Context, s Subject, workflowID, stepID *uuid.UUID) (*uuid.UUID, *Step, error) {
	if workflowID == nil && stepID != nil {
		step, err := r.workflows.FindStep(ctx, s.SubjectTenantID(), *stepID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load approval step %s: %w", *stepID, err)
		}
		workflowID = &step.WorkflowID
	}

	wf, err := r.CalculateWorkflow(ctx, s, workflowID)
	if err != nil {
		return nil, nil, err
	}
	step, err := r.CalculateWorkflowStep(ctx, s, wf, stepID)
	if err != nil {
		return nil, nil, err
	}
	if wf == nil {
		return nil, step, nil
	}
	id := wf.ID
	return &id, step, nil
}

// Assign resolves the workflow and step of a new document and creates its tasks
func (r *Resolver) Assign(ctx context.Context, s Subject, a Assignment) error {
	if a.clears() {
		s.AssignApproval(nil, nil)
		return nil
	}

	workflowID, step, err := r.resolve(ctx, s, a.WorkflowID, a.StepID)
	if err != nil {
		return err
	}
	if step == nil {
		s.AssignApproval(workflowID, nil)
		return nil
	}

	stepID := step.ID
	s.AssignApproval(workflowID, &stepID)
	return r.createTasks(ctx, s, step)
}

// Reassign applies an explicit workflow or step change on edit. Incomplete
// tasks of the previous step are deleted and tasks for the new step created.
// Clearing either field clears both. Returns true when the step changed.
func (r *Resolver) Reassign(ctx context.Context, s Subject, a Assignment) (bool, error) {
	if !a.Touched() {
		return false, nil
	}
	oldWorkflowID, oldStepID := s.CurrentApproval()

	var (
		newWorkflowID *uuid.UUID
		newStep       *Step
	)
	if !a.clears() {
		var workflowID, stepID *uuid.UUID
		if a.WorkflowSet {
			workflowID = a.WorkflowID
		}
		if a.StepSet {
			stepID = a.StepID
		} else if sameID(workflowID, oldWorkflowID) {
			stepID = oldStepID
		}

		var err error
		newWorkflowID, newStep, err = r.resolve(ctx, s, workflowID, stepID)
		if err != nil {
			return false, err
		}
	}

	var newStepID *uuid.UUID
	if newStep != nil {
		id := newStep.ID
		newStepID = &id
	}
	s.AssignApproval(newWorkflowID, newStepID)

	if sameID(oldStepID, newStepID) {
		return false, nil
	}
	if oldStepID != nil {
		if err := r.tasks.DeleteIncomplete(ctx, s.SubjectTenantID(), s.SubjectID(), *oldStepID); err != nil {
			return false, fmt.Errorf("failed to delete outdated approval tasks: %w", err)
		}
	}
	if newStep != nil {
		if err := r.createTasks(ctx, s, newStep); err != nil {
			return false, err
		}
	}
	return true, nil
}

// createTasks expands role ids to their current members and creates one task per distinct assignee
func (r *Resolver) createTasks(ctx context.Context, s Subject, step *Step) error {
	assignees := make([]uuid.UUID, 0, len(step.MemberIDs))
	seen := make(map[uuid.UUID]bool)
	add := func(id uuid.UUID) {
		if !seen[id] {
			seen[id] = true
			assignees = append(assignees, id)
		}
	}

	for _, id := range step.MemberIDs {
		add(id)
	}
	for _, roleID := range step.RoleIDs {
		members, err := r.roles.MembersOfRole(ctx, s.SubjectTenantID(), roleID)
		if err != nil {
			return fmt.Errorf("failed to expand role %s: %w", roleID, err)
		}
		for _, id := range members {
			add(id)
		}
	}
	if len(assignees) == 0 {
		return nil
	}

	now := time.Now()
	tasks := make([]Task, len(assignees))
	for i, assignee := range assignees {
		tasks[i] = Task{
			ID:         uuid.New(),
			TenantID:   s.SubjectTenantID(),
			DocumentID: s.SubjectID(),
			WorkflowID: step.WorkflowID,
			StepID:     step.ID,
			AssigneeID: assignee,
			CreatedAt:  now,
		}
	}
	if err := r.tasks.CreateBatch(ctx, tasks); err != nil {
		return fmt.Errorf("failed to create approval tasks: %w", err)
	}
	return nil
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
