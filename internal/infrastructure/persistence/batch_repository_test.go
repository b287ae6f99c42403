package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/ledger/internal/application/payables"
	domain "github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd(amount int64) valueobject.Money {
	return valueobject.MustMoney(decimal.NewFromInt(amount), valueobject.USD)
}

func TestGormBatchRepository_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBatchRepository(db)
	ctx := context.Background()
	tenantID, vendorA, vendorB := uuid.New(), uuid.New(), uuid.New()

	batch, err := domain.NewVendorPaymentBatch(tenantID, "check", valueobject.USD, time.Now(), []domain.BatchBillInput{
		{BillID: uuid.New(), VendorID: vendorB, Amount: usd(30)},
		{BillID: uuid.New(), VendorID: vendorA, Amount: usd(10)},
		{BillID: uuid.New(), VendorID: vendorB, Amount: usd(20)},
	})
	require.NoError(t, err)
	initial := 1001
	batch.InitialCheckNumber = &initial
	require.NoError(t, repo.Create(ctx, batch))

	found, err := repo.FindByIDForTenant(ctx, tenantID, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchStatusCreated, found.Status)
	assert.True(t, found.Total.Equal(decimal.NewFromInt(60)))
	require.Len(t, found.Bills, 3)
	for i := range batch.Bills {
		assert.Equal(t, batch.Bills[i].ID, found.Bills[i].ID, "rows keep their scheduling order")
	}
	require.NotNil(t, found.InitialCheckNumber)
	assert.Equal(t, 1001, *found.InitialCheckNumber)

	t.Run("SaveBills records attempt outcomes", func(t *testing.T) {
		paymentID := uuid.New()
		check := 1001
		attempted := time.Now()
		message := "card declined"

		paid := found.Bills[0]
		paid.PaymentID = &paymentID
		paid.CheckNumber = &check
		paid.AttemptedAt = &attempted
		failed := found.Bills[1]
		failed.Error = &message
		failed.AttemptedAt = &attempted

		require.NoError(t, repo.SaveBills(ctx, []*domain.BatchBill{&paid, &failed}))

		reloaded, err := repo.FindByIDForTenant(ctx, tenantID, batch.ID)
		require.NoError(t, err)
		require.NotNil(t, reloaded.Bills[0].PaymentID)
		assert.Equal(t, paymentID, *reloaded.Bills[0].PaymentID)
		assert.Equal(t, 1001, *reloaded.Bills[0].CheckNumber)
		assert.Nil(t, reloaded.Bills[0].Error)
		require.NotNil(t, reloaded.Bills[1].Error)
		assert.Equal(t, "card declined", *reloaded.Bills[1].Error)
		assert.Nil(t, reloaded.Bills[2].AttemptedAt)
	})

	t.Run("SaveBills rejects unknown rows", func(t *testing.T) {
		ghost := found.Bills[2]
		ghost.ID = uuid.New()
		err := repo.SaveBills(ctx, []*domain.BatchBill{&ghost})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("SaveWithLock persists the status", func(t *testing.T) {
		reloaded, err := repo.FindByIDForTenant(ctx, tenantID, batch.ID)
		require.NoError(t, err)
		reloaded.Status = domain.BatchStatusProcessing
		require.NoError(t, repo.SaveWithLock(ctx, reloaded))

		again, err := repo.FindByIDForTenant(ctx, tenantID, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BatchStatusProcessing, again.Status)
		assert.Equal(t, reloaded.Version, again.Version)
	})
}

func TestGormVendorPaymentRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormVendorPaymentRepository(db)
	ctx := context.Background()
	tenantID, vendorID, batchID := uuid.New(), uuid.New(), uuid.New()

	payment, err := domain.NewVendorPayment(tenantID, vendorID, usd(100), time.Now(), "manual")
	require.NoError(t, err)
	payment.BatchID = &batchID
	billID := uuid.New()
	payment.Items = []domain.PaymentItem{{
		ID:        uuid.New(),
		TenantID:  tenantID,
		PaymentID: payment.ID,
		Type:      domain.PaymentItemTypeApplication,
		BillID:    &billID,
		Amount:    decimal.NewFromInt(100),
		Currency:  valueobject.USD,
	}}
	require.NoError(t, repo.Create(ctx, payment))

	found, err := repo.FindByIDForTenant(ctx, tenantID, payment.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, billID, *found.Items[0].BillID)

	byBatch, err := repo.FindByBatch(ctx, tenantID, batchID)
	require.NoError(t, err)
	require.Len(t, byBatch, 1)
	assert.Equal(t, payment.ID, byBatch[0].ID)

	fee := domain.PaymentItem{
		ID:        uuid.New(),
		TenantID:  tenantID,
		PaymentID: payment.ID,
		Type:      domain.PaymentItemTypeConvenienceFee,
		Amount:    decimal.NewFromInt(3),
		Currency:  valueobject.USD,
	}
	require.NoError(t, repo.SaveItems(ctx, []domain.PaymentItem{fee}))
	require.NoError(t, repo.DeleteMissingItems(ctx, tenantID, payment.ID, []uuid.UUID{fee.ID}))

	found, err = repo.FindByIDForTenant(ctx, tenantID, payment.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.True(t, found.Items[0].IsFee())

	now := time.Now()
	found.Voided = true
	found.DateVoided = &now
	require.NoError(t, repo.SaveWithLock(ctx, found))
	voided, err := repo.FindByIDForTenant(ctx, tenantID, payment.ID)
	require.NoError(t, err)
	assert.True(t, voided.Voided)
}

func TestGormVendorAdjustmentRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormVendorAdjustmentRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	adjustment, err := domain.NewVendorAdjustment(tenantID, uuid.New(), usd(45), time.Now(), "6900", "write-off")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, adjustment))

	found, err := repo.FindByIDForTenant(ctx, tenantID, adjustment.ID)
	require.NoError(t, err)
	assert.Equal(t, "6900", found.AccountCode)
	assert.True(t, found.Amount.Equal(decimal.NewFromInt(45)))

	_, err = repo.FindByIDForTenant(ctx, uuid.New(), adjustment.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormTransactionManager_Perform(t *testing.T) {
	db := setupTestDB(t)
	manager := NewGormTransactionManager(db)
	ctx := context.Background()
	tenantID := uuid.New()

	committed := newTestBill(t, tenantID, uuid.New(), 50)
	require.NoError(t, manager.Perform(ctx, func(repos payables.Repositories) error {
		return repos.Documents().Create(ctx, committed)
	}))

	rolledBack := newTestBill(t, tenantID, uuid.New(), 75)
	boom := errors.New("boom")
	err := manager.Perform(ctx, func(repos payables.Repositories) error {
		if err := repos.Documents().Create(ctx, rolledBack); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	docs := NewGormDocumentRepository(db)
	_, err = docs.FindByIDForTenant(ctx, tenantID, committed.ID)
	assert.NoError(t, err)
	_, err = docs.FindByIDForTenant(ctx, tenantID, rolledBack.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
