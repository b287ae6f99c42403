package payables

import (
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is an ordered amount line owned by a document
type LineItem struct {
	ID          uuid.UUID            `json:"id"`
	TenantID    uuid.UUID            `json:"tenant_id"`
	DocumentID  uuid.UUID            `json:"document_id"`
	Order       int                  `json:"order"`
	Description string               `json:"description"`
	Amount      decimal.Decimal      `json:"amount"`
	Currency    valueobject.Currency `json:"currency"`
}

// AmountMoney returns the line amount as Money
func (l *LineItem) AmountMoney() valueobject.Money {
	return valueobject.MustMoney(l.Amount, l.Currency)
}

// Document is the aggregate root shared by bills, vendor credits and receivable documents.
// Once voided it is terminal: no status, total or line-item mutation is accepted.
type Document struct {
	shared.TenantAggregateRoot
	Kind                   DocumentKind         `json:"kind"`
	Number                 string               `json:"number"`
	CounterpartyID         uuid.UUID            `json:"counterparty_id"`
	Currency               valueobject.Currency `json:"currency"`
	Total                  decimal.Decimal      `json:"total"`
	Balance                decimal.Decimal      `json:"balance"`
	Status                 DocumentStatus       `json:"status"`
	Voided                 bool                 `json:"voided"`
	DateVoided             *time.Time           `json:"date_voided,omitempty"`
	IssueDate              time.Time            `json:"issue_date"`
	DueDate                *time.Time           `json:"due_date,omitempty"`
	Memo                   string               `json:"memo"`
	ApprovalWorkflowID     *uuid.UUID           `json:"approval_workflow_id,omitempty"`
	ApprovalWorkflowStepID *uuid.UUID           `json:"approval_workflow_step_id,omitempty"`
	LineItems              []LineItem           `json:"line_items"`
}

// NewDocument creates a new document in the given initial status
func NewDocument(
	tenantID uuid.UUID,
	kind DocumentKind,
	number string,
	counterpartyID uuid.UUID,
	currency valueobject.Currency,
	issueDate time.Time,
	status DocumentStatus,
) (*Document, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", fmt.Sprintf("Unknown document kind %q", kind))
	}
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Document number cannot be empty")
	}
	if len(number) > 50 {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Document number cannot exceed 50 characters")
	}
	if counterpartyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COUNTERPARTY", "Counterparty ID cannot be empty")
	}
	if currency == "" {
		return nil, shared.NewDomainError("CURRENCY_REQUIRED", "Currency cannot be unset")
	}
	switch status {
	case DocumentStatusDraft, DocumentStatusIssued, DocumentStatusApproved:
	default:
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Documents cannot be created in %s status", status))
	}

	doc := &Document{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Kind:                kind,
		Number:              number,
		CounterpartyID:      counterpartyID,
		Currency:            currency,
		Total:               decimal.Zero,
		Balance:             decimal.Zero,
		Status:              status,
		IssueDate:           issueDate,
		LineItems:           make([]LineItem, 0),
	}

	doc.AddDomainEvent(NewDocumentCreatedEvent(doc))

	return doc, nil
}

// TotalMoney returns the total as Money
func (d *Document) TotalMoney() valueobject.Money {
	return valueobject.MustMoney(d.Total, d.Currency)
}

// BalanceMoney returns the open balance as Money
func (d *Document) BalanceMoney() valueobject.Money {
	return valueobject.MustMoney(d.Balance, d.Currency)
}

// EnsureMutable fails if the document has been voided
func (d *Document) EnsureMutable() error {
	if d.Voided || d.Status == DocumentStatusVoided {
		return shared.NewDomainError("ALREADY_VOIDED", fmt.Sprintf("%s %s has already been voided", d.Kind, d.Number))
	}
	return nil
}

// ReplaceLineItems installs a recalculated line-item set and total
func (d *Document) ReplaceLineItems(items []LineItem, total valueobject.Money) error {
	if err := d.EnsureMutable(); err != nil {
		return err
	}
	if total.Currency() != d.Currency {
		return shared.NewDomainError("CURRENCY_MISMATCH", fmt.Sprintf("Total currency %s does not match document currency %s", total.Currency(), d.Currency))
	}
	d.LineItems = items
	d.Total = total.Amount()
	if !d.Status.IsPosted() {
		d.Balance = d.Total
	}
	d.UpdatedAt = time.Now()
	return nil
}

// ChangeCurrency switches the document currency.
// A currency cannot be unset, and cannot change once payments have reduced the balance.
func (d *Document) ChangeCurrency(currency valueobject.Currency) error {
	if err := d.EnsureMutable(); err != nil {
		return err
	}
	if currency == "" {
		return shared.NewDomainError("CURRENCY_REQUIRED", "Currency cannot be unset")
	}
	if currency == d.Currency {
		return nil
	}
	if d.Status.IsPosted() && !d.Balance.Equal(d.Total) {
		return shared.NewDomainError("CURRENCY_LOCKED", fmt.Sprintf("Currency of %s %s cannot change after payments were applied", d.Kind, d.Number))
	}
	d.Currency = currency
	d.UpdatedAt = time.Now()
	return nil
}

// UpdateDetails changes descriptive fields
func (d *Document) UpdateDetails(number string, issueDate time.Time, dueDate *time.Time, memo string) error {
	if err := d.EnsureMutable(); err != nil {
		return err
	}
	if number != "" {
		d.Number = number
	}
	if !issueDate.IsZero() {
		d.IssueDate = issueDate
	}
	d.DueDate = dueDate
	d.Memo = memo
	d.UpdatedAt = time.Now()
	return nil
}

// TransitionTo moves the document to the next status if the state machine allows it
func (d *Document) TransitionTo(next DocumentStatus) error {
	if err := d.EnsureMutable(); err != nil {
		return err
	}
	if d.Status == next {
		return nil
	}
	if !d.Status.CanTransitionTo(next) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot move %s %s from %s to %s", d.Kind, d.Number, d.Status, next))
	}
	from := d.Status
	d.Status = next
	d.UpdatedAt = time.Now()
	d.AddDomainEvent(NewDocumentStatusChangedEvent(d, from))
	return nil
}

// ApplyBalance records the live balance computed from the ledger and
// recalculates the paid status: an open balance reopens a paid document,
// a settled balance marks it paid when the state machine allows it.
// Returns true when the status changed.
func (d *Document) ApplyBalance(balance valueobject.Money) (bool, error) {
	if err := d.EnsureMutable(); err != nil {
		return false, err
	}
	if balance.Currency() != d.Currency {
		return false, shared.NewDomainError("CURRENCY_MISMATCH", fmt.Sprintf("Balance currency %s does not match document currency %s", balance.Currency(), d.Currency))
	}
	d.Balance = balance.Amount()
	d.UpdatedAt = time.Now()

	switch {
	case balance.IsPositive() && d.Status == DocumentStatusPaid:
		return true, d.TransitionTo(DocumentStatusApproved)
	case !balance.IsPositive() && d.Status != DocumentStatusPaid && d.Status.CanTransitionTo(DocumentStatusPaid):
		return true, d.TransitionTo(DocumentStatusPaid)
	}
	return false, nil
}

// RefreshBalance records the live balance without touching the status
func (d *Document) RefreshBalance(balance valueobject.Money) error {
	if err := d.EnsureMutable(); err != nil {
		return err
	}
	if balance.Currency() != d.Currency {
		return shared.NewDomainError("CURRENCY_MISMATCH", fmt.Sprintf("Balance currency %s does not match document currency %s", balance.Currency(), d.Currency))
	}
	if !d.Balance.Equal(balance.Amount()) {
		d.Balance = balance.Amount()
		d.UpdatedAt = time.Now()
	}
	return nil
}

// Void marks the document as voided. Voiding is irreversible.
func (d *Document) Void(at time.Time) error {
	if err := d.EnsureMutable(); err != nil {
		return err
	}
	from := d.Status
	d.Voided = true
	d.DateVoided = &at
	d.Status = DocumentStatusVoided
	d.UpdatedAt = at
	d.AddDomainEvent(NewDocumentVoidedEvent(d, from, at))
	return nil
}

// SubjectID implements approval.Subject
func (d *Document) SubjectID() uuid.UUID {
	return d.ID
}

// SubjectTenantID implements approval.Subject
func (d *Document) SubjectTenantID() uuid.UUID {
	return d.TenantID
}

// SubjectCounterpartyID implements approval.Subject
func (d *Document) SubjectCounterpartyID() uuid.UUID {
	return d.CounterpartyID
}

// SubjectKind implements approval.Subject
func (d *Document) SubjectKind() string {
	return string(d.Kind)
}

// SubjectAmount implements approval.Subject
func (d *Document) SubjectAmount() decimal.Decimal {
	return d.Total
}

// SubjectCurrency implements approval.Subject
func (d *Document) SubjectCurrency() string {
	return string(d.Currency)
}

// CurrentApproval implements approval.Subject
func (d *Document) CurrentApproval() (workflowID, stepID *uuid.UUID) {
	return d.ApprovalWorkflowID, d.ApprovalWorkflowStepID
}

// AssignApproval implements approval.Subject
func (d *Document) AssignApproval(workflowID, stepID *uuid.UUID) {
	d.ApprovalWorkflowID = workflowID
	d.ApprovalWorkflowStepID = stepID
	d.UpdatedAt = time.Now()
}
