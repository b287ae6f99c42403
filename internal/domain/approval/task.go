package approval

import (
	"time"

	"github.com/google/uuid"
)

// Task asks one member to approve a document at a given step
type Task struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	DocumentID  uuid.UUID  `json:"document_id"`
	WorkflowID  uuid.UUID  `json:"workflow_id"`
	StepID      uuid.UUID  `json:"step_id"`
	AssigneeID  uuid.UUID  `json:"assignee_id"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsComplete returns true once the assignee has acted on the task
func (t *Task) IsComplete() bool {
	return t.CompletedAt != nil
}

// Complete records the assignee's decision time
func (t *Task) Complete(at time.Time) {
	t.CompletedAt = &at
}
