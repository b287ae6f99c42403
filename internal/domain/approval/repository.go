package approval

import (
	"context"

	"github.com/google/uuid"
)

// WorkflowRepository reads approval workflows with their paths, rules and steps
type WorkflowRepository interface {
	// FindByIDForTenant finds a workflow by ID
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Workflow, error)

	// FindDefault finds the tenant's default and enabled workflow, or nil
	FindDefault(ctx context.Context, tenantID uuid.UUID) (*Workflow, error)

	// FindStep finds a step by ID
	FindStep(ctx context.Context, tenantID, stepID uuid.UUID) (*Step, error)
}

// TaskRepository defines the interface for approval task persistence
type TaskRepository interface {
	// FindByDocument lists the tasks of a document
	FindByDocument(ctx context.Context, tenantID, documentID uuid.UUID) ([]Task, error)

	// CreateBatch inserts tasks
	CreateBatch(ctx context.Context, tasks []Task) error

	// DeleteIncomplete deletes the document's incomplete tasks for a step
	DeleteIncomplete(ctx context.Context, tenantID, documentID, stepID uuid.UUID) error
}

// RoleDirectory expands roles into their current members
type RoleDirectory interface {
	MembersOfRole(ctx context.Context, tenantID, roleID uuid.UUID) ([]uuid.UUID, error)
}

// CounterpartyDirectory looks up the default workflow configured on a vendor or customer
type CounterpartyDirectory interface {
	DefaultWorkflowID(ctx context.Context, tenantID, counterpartyID uuid.UUID) (*uuid.UUID, error)
}
