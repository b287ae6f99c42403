package payables_test

import (
	"testing"
	"time"

	app "github.com/erp/ledger/internal/application/payables"
	"github.com/erp/ledger/internal/domain/approval"
	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/payment"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// workflow stores an enabled workflow with a single path and step assigned to two members.
// A non-empty minAmount restricts the path to documents of at least that amount.
func (f *fixture) workflow(name, minAmount string) (workflowID, stepID uuid.UUID) {
	f.t.Helper()
	now := time.Now()
	wf := models.ApprovalWorkflowModel{
		BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		TenantID:  f.tenantID,
		Name:      name,
		Enabled:   true,
	}
	require.NoError(f.t, f.db.Omit("Paths").Create(&wf).Error)

	pathID, stepID := uuid.New(), uuid.New()
	require.NoError(f.t, f.db.Create(&models.ApprovalPathModel{ID: pathID, WorkflowID: wf.ID}).Error)
	if minAmount != "" {
		require.NoError(f.t, f.db.Create(&models.ApprovalRuleModel{
			ID: uuid.New(), PathID: pathID, Field: approval.FieldAmount, Operator: approval.OpGte, Value: minAmount,
		}).Error)
	}
	require.NoError(f.t, f.db.Create(&models.ApprovalStepModel{ID: stepID, WorkflowID: wf.ID, PathID: pathID, MinimumApprovers: 1}).Error)
	require.NoError(f.t, f.db.Create(&[]models.ApprovalStepAssigneeModel{
		{StepID: stepID, Kind: models.AssigneeKindMember, AssigneeID: uuid.New()},
		{StepID: stepID, Kind: models.AssigneeKindMember, AssigneeID: uuid.New()},
	}).Error)
	return wf.ID, stepID
}

func (f *fixture) tasks(documentID uuid.UUID) []models.ApprovalTaskModel {
	f.t.Helper()
	var rows []models.ApprovalTaskModel
	require.NoError(f.t, f.db.Where("tenant_id = ? AND document_id = ?", f.tenantID, documentID).Find(&rows).Error)
	return rows
}

func (f *fixture) routedBill(vendorID, workflowID uuid.UUID, amount string) *payables.Document {
	f.t.Helper()
	doc, err := f.documents.CreateBill(f.ctx, app.CreateDocumentParams{
		TenantID:       f.tenantID,
		Number:         "BILL-ROUTED",
		CounterpartyID: vendorID,
		Currency:       "USD",
		IssueDate:      issueDate,
		Status:         payables.DocumentStatusApproved,
		LineItems:      []app.LineItemParams{{Description: "consulting", Amount: amount}},
		Approval:       approval.Assignment{WorkflowID: &workflowID, WorkflowSet: true},
	})
	require.NoError(f.t, err)
	return doc
}

func (f *fixture) pay(vendorID, billID uuid.UUID, amount string) *payables.VendorPayment {
	f.t.Helper()
	p, err := f.payments.CreateVendorPayment(f.ctx, app.PaymentParams{
		TenantID:        f.tenantID,
		VendorID:        vendorID,
		Amount:          amount,
		Currency:        "USD",
		PaymentDate:     issueDate.AddDate(0, 0, 5),
		PaymentMethodID: payment.MethodManual,
	}, []app.PaymentItemParams{
		{Type: payables.PaymentItemTypeApplication, BillID: &billID, Amount: amount},
	})
	require.NoError(f.t, err)
	return p
}

func TestDocument_EditReplacesLineItems(t *testing.T) {
	f := newFixture(t)
	bill := f.bill(f.vendor("Acme Supplies"), "USD", "10.00", "20.00", "30.00")
	require.Len(t, bill.LineItems, 3)
	kept := bill.LineItems[2].ID

	edited, err := f.documents.EditDocument(f.ctx, f.tenantID, bill.ID, app.EditDocumentParams{
		LineItems: &[]app.LineItemParams{
			{ID: &kept, Description: "freight", Amount: "35.00"},
			{Description: "handling", Amount: "5.00"},
		},
	})
	require.NoError(t, err)
	assert.True(t, edited.Total.Equal(decimal.NewFromInt(40)))

	stored := f.reload(bill.ID)
	require.Len(t, stored.LineItems, 2)
	assert.Equal(t, kept, stored.LineItems[0].ID)
	assert.Equal(t, 1, stored.LineItems[0].Order)
	assert.True(t, stored.LineItems[0].Amount.Equal(decimal.NewFromInt(35)))
	assert.Equal(t, 2, stored.LineItems[1].Order)
	assert.Equal(t, "handling", stored.LineItems[1].Description)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(40)))

	var removed int64
	require.NoError(t, f.db.Model(&models.LineItemModel{}).
		Where("id IN ?", []uuid.UUID{bill.LineItems[0].ID, bill.LineItems[1].ID}).
		Count(&removed).Error)
	assert.Zero(t, removed)
	assert.True(t, f.balanceOf(f.deps.Chart.Expense).Equal(decimal.NewFromInt(40)))

	t.Run("an empty set removes every line", func(t *testing.T) {
		edited, err := f.documents.EditDocument(f.ctx, f.tenantID, bill.ID, app.EditDocumentParams{
			LineItems: &[]app.LineItemParams{},
		})
		require.NoError(t, err)
		assert.True(t, edited.Total.IsZero())
		assert.Empty(t, f.reload(bill.ID).LineItems)
	})
}

func TestDocument_EditClearsApprovalStep(t *testing.T) {
	f := newFixture(t)
	vendorID := f.vendor("Acme Supplies")
	workflowID, stepID := f.workflow("Bills", "")
	bill := f.routedBill(vendorID, workflowID, "250.00")

	require.NotNil(t, bill.ApprovalWorkflowStepID)
	assert.Equal(t, stepID, *bill.ApprovalWorkflowStepID)
	open := f.tasks(bill.ID)
	require.Len(t, open, 2)

	done := time.Now()
	require.NoError(t, f.db.Model(&models.ApprovalTaskModel{}).Where("id = ?", open[0].ID).Update("completed_at", done).Error)

	_, err := f.documents.EditDocument(f.ctx, f.tenantID, bill.ID, app.EditDocumentParams{
		Approval: approval.Assignment{StepSet: true},
	})
	require.NoError(t, err)

	stored := f.reload(bill.ID)
	assert.Nil(t, stored.ApprovalWorkflowID)
	assert.Nil(t, stored.ApprovalWorkflowStepID)
	remaining := f.tasks(bill.ID)
	require.Len(t, remaining, 1)
	assert.Equal(t, open[0].ID, remaining[0].ID)
	assert.NotNil(t, remaining[0].CompletedAt)
}

func TestDocument_EditReroutesToWorkflowWithoutMatchingPath(t *testing.T) {
	f := newFixture(t)
	vendorID := f.vendor("Acme Supplies")
	workflowID, _ := f.workflow("Bills", "")
	largeOnly, _ := f.workflow("Large bills", "1000")
	bill := f.routedBill(vendorID, workflowID, "250.00")
	require.Len(t, f.tasks(bill.ID), 2)

	_, err := f.documents.EditDocument(f.ctx, f.tenantID, bill.ID, app.EditDocumentParams{
		Approval: approval.Assignment{WorkflowID: &largeOnly, WorkflowSet: true},
	})
	require.NoError(t, err)

	stored := f.reload(bill.ID)
	require.NotNil(t, stored.ApprovalWorkflowID)
	assert.Equal(t, largeOnly, *stored.ApprovalWorkflowID)
	assert.Nil(t, stored.ApprovalWorkflowStepID)
	assert.Empty(t, f.tasks(bill.ID))
}

func TestDocument_CurrencyLockedAfterPayment(t *testing.T) {
	f := newFixture(t)
	vendorID := f.vendor("Acme Supplies")
	bill := f.bill(vendorID, "USD", "100.00")
	paid := f.pay(vendorID, bill.ID, "40.00")

	eur := "EUR"
	_, err := f.documents.EditDocument(f.ctx, f.tenantID, bill.ID, app.EditDocumentParams{Currency: &eur})
	requireCode(t, err, "CURRENCY_LOCKED")
	stored := f.reload(bill.ID)
	assert.Equal(t, valueobject.USD, stored.Currency)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(60)))

	require.NoError(t, f.payments.VoidVendorPayment(f.ctx, f.tenantID, paid.ID))

	edited, err := f.documents.EditDocument(f.ctx, f.tenantID, bill.ID, app.EditDocumentParams{Currency: &eur})
	require.NoError(t, err)
	assert.Equal(t, valueobject.EUR, edited.Currency)
	stored = f.reload(bill.ID)
	require.Len(t, stored.LineItems, 1)
	assert.Equal(t, valueobject.EUR, stored.LineItems[0].Currency)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(100)))
}

func TestDocument_CurrencyChangeKeepsMinorUnits(t *testing.T) {
	f := newFixture(t)
	vendorID := f.vendor("Acme Supplies")
	jpy := "JPY"

	t.Run("whole amounts move across", func(t *testing.T) {
		bill := f.bill(vendorID, "USD", "10.00")
		edited, err := f.documents.EditDocument(f.ctx, f.tenantID, bill.ID, app.EditDocumentParams{Currency: &jpy})
		require.NoError(t, err)
		assert.Equal(t, valueobject.JPY, edited.Currency)
		assert.True(t, edited.Total.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, int64(10), edited.BalanceMoney().MinorUnits())
	})

	t.Run("cents cannot become yen", func(t *testing.T) {
		bill := f.bill(vendorID, "USD", "10.50")
		_, err := f.documents.EditDocument(f.ctx, f.tenantID, bill.ID, app.EditDocumentParams{Currency: &jpy})
		requireCode(t, err, "INVALID_AMOUNT")

		stored := f.reload(bill.ID)
		assert.Equal(t, valueobject.USD, stored.Currency)
		assert.True(t, stored.Total.Equal(decimal.RequireFromString("10.50")))
	})
}

func TestDocument_EditReopensPaidBill(t *testing.T) {
	f := newFixture(t)
	vendorID := f.vendor("Acme Supplies")
	bill := f.bill(vendorID, "USD", "100.00")
	f.pay(vendorID, bill.ID, "100.00")
	require.Equal(t, payables.DocumentStatusPaid, f.reload(bill.ID).Status)

	line := bill.LineItems[0].ID
	edited, err := f.documents.EditDocument(f.ctx, f.tenantID, bill.ID, app.EditDocumentParams{
		LineItems: &[]app.LineItemParams{{ID: &line, Description: "services", Amount: "150.00"}},
	})
	require.NoError(t, err)
	assert.Equal(t, payables.DocumentStatusApproved, edited.Status)

	stored := f.reload(bill.ID)
	assert.Equal(t, payables.DocumentStatusApproved, stored.Status)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(50)))
	assert.True(t, f.balanceOf(f.deps.Chart.AccountsPayable).Equal(decimal.NewFromInt(-50)))

	edited, err = f.documents.EditDocument(f.ctx, f.tenantID, bill.ID, app.EditDocumentParams{
		LineItems: &[]app.LineItemParams{{ID: &line, Description: "services", Amount: "100.00"}},
	})
	require.NoError(t, err)
	assert.Equal(t, payables.DocumentStatusPaid, edited.Status)
	assert.True(t, f.reload(bill.ID).Balance.IsZero())
}
