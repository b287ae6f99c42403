package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentModel is the persistence model for bills, vendor credits and receivable documents.
type DocumentModel struct {
	TenantAggregateModel
	Kind                   payables.DocumentKind   `gorm:"type:varchar(20);not null;index"`
	Number                 string                  `gorm:"type:varchar(50);not null"`
	CounterpartyID         uuid.UUID               `gorm:"type:uuid;not null;index"`
	Currency               valueobject.Currency    `gorm:"type:varchar(3);not null"`
	Total                  decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Balance                decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Status                 payables.DocumentStatus `gorm:"type:varchar(20);not null;index"`
	Voided                 bool                    `gorm:"not null;default:false"`
	DateVoided             *time.Time
	IssueDate              time.Time       `gorm:"not null"`
	DueDate                *time.Time      `gorm:"index"`
	Memo                   string          `gorm:"type:text"`
	ApprovalWorkflowID     *uuid.UUID      `gorm:"type:uuid"`
	ApprovalWorkflowStepID *uuid.UUID      `gorm:"type:uuid"`
	LineItems              []LineItemModel `gorm:"foreignKey:DocumentID;references:ID"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the persistence model to a domain Document.
func (m *DocumentModel) ToDomain() *payables.Document {
	doc := &payables.Document{
		TenantAggregateRoot:    m.root(),
		Kind:                   m.Kind,
		Number:                 m.Number,
		CounterpartyID:         m.CounterpartyID,
		Currency:               m.Currency,
		Total:                  m.Total,
		Balance:                m.Balance,
		Status:                 m.Status,
		Voided:                 m.Voided,
		DateVoided:             m.DateVoided,
		IssueDate:              m.IssueDate,
		DueDate:                m.DueDate,
		Memo:                   m.Memo,
		ApprovalWorkflowID:     m.ApprovalWorkflowID,
		ApprovalWorkflowStepID: m.ApprovalWorkflowStepID,
		LineItems:              make([]payables.LineItem, len(m.LineItems)),
	}
	for i := range m.LineItems {
		doc.LineItems[i] = m.LineItems[i].ToDomain()
	}
	return doc
}

// FromDomain populates the persistence model from a domain Document.
func (m *DocumentModel) FromDomain(d *payables.Document) {
	m.fromRoot(d.TenantAggregateRoot)
	m.Kind = d.Kind
	m.Number = d.Number
	m.CounterpartyID = d.CounterpartyID
	m.Currency = d.Currency
	m.Total = d.Total
	m.Balance = d.Balance
	m.Status = d.Status
	m.Voided = d.Voided
	m.DateVoided = d.DateVoided
	m.IssueDate = d.IssueDate
	m.DueDate = d.DueDate
	m.Memo = d.Memo
	m.ApprovalWorkflowID = d.ApprovalWorkflowID
	m.ApprovalWorkflowStepID = d.ApprovalWorkflowStepID
	m.LineItems = make([]LineItemModel, len(d.LineItems))
	for i := range d.LineItems {
		m.LineItems[i] = LineItemModelFromDomain(d.LineItems[i])
	}
}

// DocumentModelFromDomain creates a new persistence model from a domain Document.
func DocumentModelFromDomain(d *payables.Document) *DocumentModel {
	m := &DocumentModel{}
	m.FromDomain(d)
	return m
}

// LineItemModel is the persistence model for a document line
type LineItemModel struct {
	ID          uuid.UUID            `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID            `gorm:"type:uuid;not null;index"`
	DocumentID  uuid.UUID            `gorm:"type:uuid;not null;index"`
	Position    int                  `gorm:"not null"`
	Description string               `gorm:"type:varchar(500)"`
	Amount      decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency    valueobject.Currency `gorm:"type:varchar(3);not null"`
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "document_line_items"
}

// ToDomain converts the persistence model to a domain LineItem
func (m *LineItemModel) ToDomain() payables.LineItem {
	return payables.LineItem{
		ID:          m.ID,
		TenantID:    m.TenantID,
		DocumentID:  m.DocumentID,
		Order:       m.Position,
		Description: m.Description,
		Amount:      m.Amount,
		Currency:    m.Currency,
	}
}

// LineItemModelFromDomain creates a persistence model from a domain LineItem
func LineItemModelFromDomain(li payables.LineItem) LineItemModel {
	return LineItemModel{
		ID:          li.ID,
		TenantID:    li.TenantID,
		DocumentID:  li.DocumentID,
		Position:    li.Order,
		Description: li.Description,
		Amount:      li.Amount,
		Currency:    li.Currency,
	}
}

// VendorPaymentModel is the persistence model for the VendorPayment aggregate root.
type VendorPaymentModel struct {
	TenantAggregateModel
	VendorID        uuid.UUID            `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency        valueobject.Currency `gorm:"type:varchar(3);not null"`
	PaymentDate     time.Time            `gorm:"not null"`
	PaymentMethodID string               `gorm:"type:varchar(50)"`
	CheckNumber     *int
	Reference       string     `gorm:"type:varchar(100)"`
	Memo            string     `gorm:"type:text"`
	BatchID         *uuid.UUID `gorm:"type:uuid;index"`
	Voided          bool       `gorm:"not null;default:false"`
	DateVoided      *time.Time
	Items           []PaymentItemModel `gorm:"foreignKey:PaymentID;references:ID"`
}

// TableName returns the table name for GORM
func (VendorPaymentModel) TableName() string {
	return "vendor_payments"
}

// ToDomain converts the persistence model to a domain VendorPayment.
func (m *VendorPaymentModel) ToDomain() *payables.VendorPayment {
	p := &payables.VendorPayment{
		TenantAggregateRoot: m.root(),
		VendorID:            m.VendorID,
		Amount:              m.Amount,
		Currency:            m.Currency,
		PaymentDate:         m.PaymentDate,
		PaymentMethodID:     m.PaymentMethodID,
		CheckNumber:         m.CheckNumber,
		Reference:           m.Reference,
		Memo:                m.Memo,
		BatchID:             m.BatchID,
		Voided:              m.Voided,
		DateVoided:          m.DateVoided,
		Items:               make([]payables.PaymentItem, len(m.Items)),
	}
	for i := range m.Items {
		p.Items[i] = m.Items[i].ToDomain()
	}
	return p
}

// FromDomain populates the persistence model from a domain VendorPayment.
func (m *VendorPaymentModel) FromDomain(p *payables.VendorPayment) {
	m.fromRoot(p.TenantAggregateRoot)
	m.VendorID = p.VendorID
	m.Amount = p.Amount
	m.Currency = p.Currency
	m.PaymentDate = p.PaymentDate
	m.PaymentMethodID = p.PaymentMethodID
	m.CheckNumber = p.CheckNumber
	m.Reference = p.Reference
	m.Memo = p.Memo
	m.BatchID = p.BatchID
	m.Voided = p.Voided
	m.DateVoided = p.DateVoided
	m.Items = make([]PaymentItemModel, len(p.Items))
	for i := range p.Items {
		m.Items[i] = PaymentItemModelFromDomain(p.Items[i])
	}
}

// VendorPaymentModelFromDomain creates a new persistence model from a domain VendorPayment.
func VendorPaymentModelFromDomain(p *payables.VendorPayment) *VendorPaymentModel {
	m := &VendorPaymentModel{}
	m.FromDomain(p)
	return m
}

// PaymentItemModel is the persistence model for one applied-to row of a payment
type PaymentItemModel struct {
	ID             uuid.UUID                `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID                `gorm:"type:uuid;not null;index"`
	PaymentID      uuid.UUID                `gorm:"type:uuid;not null;index"`
	Type           payables.PaymentItemType `gorm:"type:varchar(30);not null"`
	BillID         *uuid.UUID               `gorm:"type:uuid;index"`
	VendorCreditID *uuid.UUID               `gorm:"type:uuid;index"`
	Amount         decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Currency       valueobject.Currency     `gorm:"type:varchar(3);not null"`
}

// TableName returns the table name for GORM
func (PaymentItemModel) TableName() string {
	return "vendor_payment_items"
}

// ToDomain converts the persistence model to a domain PaymentItem
func (m *PaymentItemModel) ToDomain() payables.PaymentItem {
	return payables.PaymentItem{
		ID:             m.ID,
		TenantID:       m.TenantID,
		PaymentID:      m.PaymentID,
		Type:           m.Type,
		BillID:         m.BillID,
		VendorCreditID: m.VendorCreditID,
		Amount:         m.Amount,
		Currency:       m.Currency,
	}
}

// PaymentItemModelFromDomain creates a persistence model from a domain PaymentItem
func PaymentItemModelFromDomain(it payables.PaymentItem) PaymentItemModel {
	return PaymentItemModel{
		ID:             it.ID,
		TenantID:       it.TenantID,
		PaymentID:      it.PaymentID,
		Type:           it.Type,
		BillID:         it.BillID,
		VendorCreditID: it.VendorCreditID,
		Amount:         it.Amount,
		Currency:       it.Currency,
	}
}

// VendorAdjustmentModel is the persistence model for the VendorAdjustment aggregate root.
type VendorAdjustmentModel struct {
	TenantAggregateModel
	VendorID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	Amount         decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency       valueobject.Currency `gorm:"type:varchar(3);not null"`
	AdjustmentDate time.Time            `gorm:"not null"`
	AccountCode    string               `gorm:"type:varchar(20)"`
	Memo           string               `gorm:"type:text"`
	Voided         bool                 `gorm:"not null;default:false"`
	DateVoided     *time.Time
}

// TableName returns the table name for GORM
func (VendorAdjustmentModel) TableName() string {
	return "vendor_adjustments"
}

// ToDomain converts the persistence model to a domain VendorAdjustment.
func (m *VendorAdjustmentModel) ToDomain() *payables.VendorAdjustment {
	return &payables.VendorAdjustment{
		TenantAggregateRoot: m.root(),
		VendorID:            m.VendorID,
		Amount:              m.Amount,
		Currency:            m.Currency,
		AdjustmentDate:      m.AdjustmentDate,
		AccountCode:         m.AccountCode,
		Memo:                m.Memo,
		Voided:              m.Voided,
		DateVoided:          m.DateVoided,
	}
}

// VendorAdjustmentModelFromDomain creates a new persistence model from a domain VendorAdjustment.
func VendorAdjustmentModelFromDomain(a *payables.VendorAdjustment) *VendorAdjustmentModel {
	m := &VendorAdjustmentModel{
		VendorID:       a.VendorID,
		Amount:         a.Amount,
		Currency:       a.Currency,
		AdjustmentDate: a.AdjustmentDate,
		AccountCode:    a.AccountCode,
		Memo:           a.Memo,
		Voided:         a.Voided,
		DateVoided:     a.DateVoided,
	}
	m.fromRoot(a.TenantAggregateRoot)
	return m
}

// PaymentBatchModel is the persistence model for the VendorPaymentBatch aggregate root.
type PaymentBatchModel struct {
	TenantAggregateModel
	Status             payables.BatchStatus `gorm:"type:varchar(20);not null;index"`
	PaymentMethodID    string               `gorm:"type:varchar(50);not null"`
	BankAccountID      *uuid.UUID           `gorm:"type:uuid"`
	CardID             *uuid.UUID           `gorm:"type:uuid"`
	Currency           valueobject.Currency `gorm:"type:varchar(3);not null"`
	InitialCheckNumber *int
	PaymentDate        time.Time        `gorm:"not null"`
	Total              decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Memo               string           `gorm:"type:text"`
	Bills              []BatchBillModel `gorm:"foreignKey:BatchID;references:ID"`
}

// TableName returns the table name for GORM
func (PaymentBatchModel) TableName() string {
	return "vendor_payment_batches"
}

// ToDomain converts the persistence model to a domain VendorPaymentBatch.
func (m *PaymentBatchModel) ToDomain() *payables.VendorPaymentBatch {
	b := &payables.VendorPaymentBatch{
		TenantAggregateRoot: m.root(),
		Status:              m.Status,
		PaymentMethodID:     m.PaymentMethodID,
		BankAccountID:       m.BankAccountID,
		CardID:              m.CardID,
		Currency:            m.Currency,
		InitialCheckNumber:  m.InitialCheckNumber,
		PaymentDate:         m.PaymentDate,
		Total:               m.Total,
		Memo:                m.Memo,
		Bills:               make([]payables.BatchBill, len(m.Bills)),
	}
	for i := range m.Bills {
		b.Bills[i] = m.Bills[i].ToDomain()
	}
	return b
}

// PaymentBatchModelFromDomain creates a new persistence model from a domain VendorPaymentBatch.
func PaymentBatchModelFromDomain(b *payables.VendorPaymentBatch) *PaymentBatchModel {
	m := &PaymentBatchModel{
		Status:             b.Status,
		PaymentMethodID:    b.PaymentMethodID,
		BankAccountID:      b.BankAccountID,
		CardID:             b.CardID,
		Currency:           b.Currency,
		InitialCheckNumber: b.InitialCheckNumber,
		PaymentDate:        b.PaymentDate,
		Total:              b.Total,
		Memo:               b.Memo,
		Bills:              make([]BatchBillModel, len(b.Bills)),
	}
	m.fromRoot(b.TenantAggregateRoot)
	for i := range b.Bills {
		m.Bills[i] = BatchBillModelFromDomain(&b.Bills[i])
		m.Bills[i].Position = i
	}
	return m
}

// BatchBillModel is the persistence model for one row of a payment batch.
// Position keeps the rows in the order they were scheduled.
type BatchBillModel struct {
	ID          uuid.UUID            `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID            `gorm:"type:uuid;not null;index"`
	BatchID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	Position    int                  `gorm:"not null"`
	BillID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	VendorID    uuid.UUID            `gorm:"type:uuid;not null"`
	Amount      decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency    valueobject.Currency `gorm:"type:varchar(3);not null"`
	PaymentID   *uuid.UUID           `gorm:"type:uuid"`
	CheckNumber *int
	Error       *string `gorm:"type:text"`
	AttemptedAt *time.Time
}

// TableName returns the table name for GORM
func (BatchBillModel) TableName() string {
	return "vendor_payment_batch_bills"
}

// ToDomain converts the persistence model to a domain BatchBill
func (m *BatchBillModel) ToDomain() payables.BatchBill {
	return payables.BatchBill{
		ID:          m.ID,
		TenantID:    m.TenantID,
		BatchID:     m.BatchID,
		BillID:      m.BillID,
		VendorID:    m.VendorID,
		Amount:      m.Amount,
		Currency:    m.Currency,
		PaymentID:   m.PaymentID,
		CheckNumber: m.CheckNumber,
		Error:       m.Error,
		AttemptedAt: m.AttemptedAt,
	}
}

// BatchBillModelFromDomain creates a persistence model from a domain BatchBill
func BatchBillModelFromDomain(b *payables.BatchBill) BatchBillModel {
	return BatchBillModel{
		ID:          b.ID,
		TenantID:    b.TenantID,
		BatchID:     b.BatchID,
		BillID:      b.BillID,
		VendorID:    b.VendorID,
		Amount:      b.Amount,
		Currency:    b.Currency,
		PaymentID:   b.PaymentID,
		CheckNumber: b.CheckNumber,
		Error:       b.Error,
		AttemptedAt: b.AttemptedAt,
	}
}

// CounterpartyKind distinguishes vendors from customers in the counterparties table
type CounterpartyKind string

const (
	CounterpartyKindVendor   CounterpartyKind = "VENDOR"
	CounterpartyKindCustomer CounterpartyKind = "CUSTOMER"
)

// CounterpartyModel is the persistence model for vendors and customers.
// Only the columns the payables flows read are mapped.
type CounterpartyModel struct {
	BaseModel
	TenantID                  uuid.UUID        `gorm:"type:uuid;not null;index"`
	Kind                      CounterpartyKind `gorm:"type:varchar(20);not null"`
	Name                      string           `gorm:"type:varchar(200);not null"`
	DefaultApprovalWorkflowID *uuid.UUID       `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (CounterpartyModel) TableName() string {
	return "counterparties"
}

// ToVendor converts the persistence model to a domain Vendor
func (m *CounterpartyModel) ToVendor() *payables.Vendor {
	return &payables.Vendor{
		ID:                        m.ID,
		TenantID:                  m.TenantID,
		Name:                      m.Name,
		DefaultApprovalWorkflowID: m.DefaultApprovalWorkflowID,
	}
}

// NetworkDocumentModel is the persistence model for a supplier network document
type NetworkDocumentModel struct {
	ID         uuid.UUID              `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID              `gorm:"type:uuid;not null;index"`
	DocumentID uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex"`
	Status     payables.NetworkStatus `gorm:"type:varchar(20);not null"`
	UpdatedAt  time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (NetworkDocumentModel) TableName() string {
	return "network_documents"
}

// ToDomain converts the persistence model to a domain NetworkDocument
func (m *NetworkDocumentModel) ToDomain() *payables.NetworkDocument {
	return &payables.NetworkDocument{
		ID:         m.ID,
		TenantID:   m.TenantID,
		DocumentID: m.DocumentID,
		Status:     m.Status,
		UpdatedAt:  m.UpdatedAt,
	}
}

// NetworkDocumentModelFromDomain creates a persistence model from a domain NetworkDocument
func NetworkDocumentModelFromDomain(n *payables.NetworkDocument) *NetworkDocumentModel {
	return &NetworkDocumentModel{
		ID:         n.ID,
		TenantID:   n.TenantID,
		DocumentID: n.DocumentID,
		Status:     n.Status,
		UpdatedAt:  n.UpdatedAt,
	}
}
