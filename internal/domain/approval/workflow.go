package approval

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Subject is a document that can be routed through an approval workflow
type Subject interface {
	SubjectID() uuid.UUID
	SubjectTenantID() uuid.UUID
	SubjectCounterpartyID() uuid.UUID
	SubjectKind() string
	SubjectAmount() decimal.Decimal
	SubjectCurrency() string
	CurrentApproval() (workflowID, stepID *uuid.UUID)
	AssignApproval(workflowID, stepID *uuid.UUID)
}

// Rule fields
const (
	FieldAmount       = "amount"
	FieldCurrency     = "currency"
	FieldCounterparty = "counterparty"
	FieldKind         = "kind"
)

// Rule operators
const (
	OpEq  = "eq"
	OpNe  = "ne"
	OpGt  = "gt"
	OpGte = "gte"
	OpLt  = "lt"
	OpLte = "lte"
	OpIn  = "in"
)

// Rule is a single condition a path applies to a document attribute
type Rule struct {
	ID       uuid.UUID `json:"id"`
	PathID   uuid.UUID `json:"path_id"`
	Field    string    `json:"field"`
	Operator string    `json:"operator"`
	Value    string    `json:"value"`
}

// Matches evaluates the rule against the subject. Unknown fields or
// operators never match.
func (r Rule) Matches(s Subject) bool {
	switch r.Field {
	case FieldAmount:
		return r.matchAmount(s.SubjectAmount())
	case FieldCurrency:
		return r.matchString(s.SubjectCurrency())
	case FieldCounterparty:
		return r.matchString(s.SubjectCounterpartyID().String())
	case FieldKind:
		return r.matchString(s.SubjectKind())
	}
	return false
}

func (r Rule) matchAmount(amount decimal.Decimal) bool {
	if r.Operator == OpIn {
		for _, v := range splitValues(r.Value) {
			d, err := decimal.NewFromString(v)
			if err == nil && amount.Equal(d) {
				return true
			}
		}
		return false
	}
	value, err := decimal.NewFromString(strings.TrimSpace(r.Value))
	if err != nil {
		return false
	}
	switch r.Operator {
	case OpEq:
		return amount.Equal(value)
	case OpNe:
		return !amount.Equal(value)
	case OpGt:
		return amount.GreaterThan(value)
	case OpGte:
		return amount.GreaterThanOrEqual(value)
	case OpLt:
		return amount.LessThan(value)
	case OpLte:
		return amount.LessThanOrEqual(value)
	}
	return false
}

func (r Rule) matchString(actual string) bool {
	switch r.Operator {
	case OpEq:
		return strings.EqualFold(actual, strings.TrimSpace(r.Value))
	case OpNe:
		return !strings.EqualFold(actual, strings.TrimSpace(r.Value))
	case OpIn:
		for _, v := range splitValues(r.Value) {
			if strings.EqualFold(actual, v) {
				return true
			}
		}
	}
	return false
}

func splitValues(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}

// Step is an ordered stage of a path. RoleIDs are expanded to members only
// when tasks are created.
type Step struct {
	ID               uuid.UUID   `json:"id"`
	WorkflowID       uuid.UUID   `json:"workflow_id"`
	PathID           uuid.UUID   `json:"path_id"`
	Position         int         `json:"position"`
	MinimumApprovers int         `json:"minimum_approvers"`
	MemberIDs        []uuid.UUID `json:"member_ids"`
	RoleIDs          []uuid.UUID `json:"role_ids"`
}

// Path is a rule-matched branch of a workflow
type Path struct {
	ID         uuid.UUID `json:"id"`
	WorkflowID uuid.UUID `json:"workflow_id"`
	Position   int       `json:"position"`
	Rules      []Rule    `json:"rules"`
	Steps      []Step    `json:"steps"`
}

// Matches returns true when every rule matches; a path without rules matches everything
func (p *Path) Matches(s Subject) bool {
	for _, rule := range p.Rules {
		if !rule.Matches(s) {
			return false
		}
	}
	return true
}

// FirstStep returns the lowest-positioned step, or nil for an empty path
func (p *Path) FirstStep() *Step {
	var first *Step
	for i := range p.Steps {
		if first == nil || p.Steps[i].Position < first.Position {
			first = &p.Steps[i]
		}
	}
	return first
}

// Workflow is a tenant's multi-step approval chain
type Workflow struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
	IsDefault bool      `json:"is_default"`
	Paths     []Path    `json:"paths"`
}

// DeterminePath returns the first path, by position, whose rules match the subject
func (w *Workflow) DeterminePath(s Subject) *Path {
	var match *Path
	for i := range w.Paths {
		p := &w.Paths[i]
		if !p.Matches(s) {
			continue
		}
		if match == nil || p.Position < match.Position {
			match = p
		}
	}
	return match
}

// FindStep returns the step with the given id, or nil
func (w *Workflow) FindStep(id uuid.UUID) *Step {
	for i := range w.Paths {
		for j := range w.Paths[i].Steps {
			if w.Paths[i].Steps[j].ID == id {
				return &w.Paths[i].Steps[j]
			}
		}
	}
	return nil
}
