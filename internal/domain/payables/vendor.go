package payables

import (
	"github.com/google/uuid"
)

// Vendor is the counterparty of payable documents. Only the fields the
// payables flows consult are modeled here.
type Vendor struct {
	ID                        uuid.UUID  `json:"id"`
	TenantID                  uuid.UUID  `json:"tenant_id"`
	Name                      string     `json:"name"`
	DefaultApprovalWorkflowID *uuid.UUID `json:"default_approval_workflow_id,omitempty"`
}
