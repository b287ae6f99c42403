// Package payables implements the operations over bills, vendor credits,
// receivable documents, vendor payments, adjustments and payment batches.
// Every operation saves its aggregate and synchronizes the ledger inside one
// transaction, then publishes the collected audit events.
package payables

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deps bundles the collaborators shared by the payables services
type Deps struct {
	Tx        TransactionManager
	Chart     ledger.ChartOfAccounts
	Publisher shared.EventPublisher
	Logger    *zap.Logger
	Metrics   *telemetry.PayablesMetrics
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func (d Deps) newAudit() *AuditUnit {
	return NewAuditUnit(d.Publisher, d.Logger)
}

func (d Deps) recordSync(ctx context.Context, kind string, result ledger.SyncResult) {
	d.Metrics.LedgerSynced(ctx, kind, result.Posted, result.Superseded)
}

// loadTargets loads every document referenced by the rows, keyed by id
func loadTargets(ctx context.Context, repos Repositories, tenantID uuid.UUID, rows []payables.PaymentItemInput) (map[uuid.UUID]*payables.Document, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if id := row.TargetID(); id != nil {
			ids = append(ids, *id)
		}
	}
	targets := make(map[uuid.UUID]*payables.Document, len(ids))
	if len(ids) == 0 {
		return targets, nil
	}
	docs, err := repos.Documents().FindByIDsForTenant(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		targets[doc.ID] = doc
	}
	return targets, nil
}
