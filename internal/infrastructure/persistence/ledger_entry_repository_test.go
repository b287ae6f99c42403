package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntry(tenantID, documentID uuid.UUID, side ledger.Side, amount int64, postedAt time.Time) ledger.Entry {
	return ledger.Entry{
		ID:             uuid.New(),
		TenantID:       tenantID,
		DocumentID:     documentID,
		DocumentKind:   "BILL",
		Account:        "2000",
		Side:           side,
		Amount:         decimal.NewFromInt(amount),
		Currency:       valueobject.USD,
		CounterpartyID: uuid.New(),
		PostingKey:     uuid.New(),
		PostedAt:       postedAt,
	}
}

func TestGormEntryRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormEntryRepository(db)
	ctx := context.Background()
	tenantID, paymentID, billID := uuid.New(), uuid.New(), uuid.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	debit := newTestEntry(tenantID, paymentID, ledger.SideDebit, 80, base.Add(time.Minute))
	debit.TargetDocumentID = &billID
	credit := newTestEntry(tenantID, paymentID, ledger.SideCredit, 80, base)
	other := newTestEntry(uuid.New(), paymentID, ledger.SideDebit, 5, base)

	require.NoError(t, repo.CreateBatch(ctx, []ledger.Entry{debit, credit, other}))
	require.NoError(t, repo.CreateBatch(ctx, nil))

	active, err := repo.FindActiveByDocument(ctx, tenantID, paymentID)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, credit.ID, active[0].ID, "ordered by posting time")
	assert.Equal(t, debit.ID, active[1].ID)
	assert.True(t, active[1].Amount.Equal(decimal.NewFromInt(80)))

	targeted, err := repo.FindActiveByTarget(ctx, tenantID, billID)
	require.NoError(t, err)
	require.Len(t, targeted, 1)
	assert.Equal(t, debit.ID, targeted[0].ID)

	supersededAt := base.Add(time.Hour)
	require.NoError(t, repo.Supersede(ctx, tenantID, []uuid.UUID{debit.ID}, supersededAt))

	active, err = repo.FindActiveByDocument(ctx, tenantID, paymentID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, credit.ID, active[0].ID)

	targeted, err = repo.FindActiveByTarget(ctx, tenantID, billID)
	require.NoError(t, err)
	assert.Empty(t, targeted)

	t.Run("superseding again keeps the first timestamp", func(t *testing.T) {
		require.NoError(t, repo.Supersede(ctx, tenantID, []uuid.UUID{debit.ID}, supersededAt.Add(time.Hour)))

		var model struct {
			SupersededAt *time.Time
		}
		require.NoError(t, db.Table("ledger_entries").Select("superseded_at").Where("id = ?", debit.ID).Scan(&model).Error)
		require.NotNil(t, model.SupersededAt)
		assert.True(t, model.SupersededAt.Equal(supersededAt))
	})

	t.Run("other tenant ids are ignored", func(t *testing.T) {
		require.NoError(t, repo.Supersede(ctx, tenantID, []uuid.UUID{other.ID}, supersededAt))
		remaining, err := repo.FindActiveByDocument(ctx, other.TenantID, paymentID)
		require.NoError(t, err)
		assert.Len(t, remaining, 1)
	})
}

func TestGormAuditLogRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAuditLogRepository(db)
	ctx := context.Background()
	tenantID, aggregateID := uuid.New(), uuid.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	later := event.AuditRecord{
		ID:            uuid.New(),
		TenantID:      tenantID,
		EventType:     "VendorPaymentApplied",
		AggregateType: "VendorPayment",
		AggregateID:   aggregateID,
		Payload:       []byte(`{"amount":"80"}`),
		OccurredAt:    base.Add(time.Second),
	}
	earlier := later
	earlier.ID = uuid.New()
	earlier.EventType = "VendorPaymentCreated"
	earlier.OccurredAt = base

	require.NoError(t, repo.Append(ctx, later))
	require.NoError(t, repo.Append(ctx, earlier))

	records, err := repo.FindByAggregate(ctx, tenantID, aggregateID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "VendorPaymentCreated", records[0].EventType)
	assert.Equal(t, "VendorPaymentApplied", records[1].EventType)
	assert.JSONEq(t, `{"amount":"80"}`, string(records[1].Payload))

	records, err = repo.FindByAggregate(ctx, uuid.New(), aggregateID)
	require.NoError(t, err)
	assert.Empty(t, records)
}
