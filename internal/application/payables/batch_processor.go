package payables

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchConfig tunes batch runs
type BatchConfig struct {
	// Concurrency is the number of vendor groups paid in parallel when the
	// batch prints no checks. Batches with check numbers always run serially.
	Concurrency int
	LockTTL     time.Duration
}

// BatchProcessor creates, pays and voids vendor payment batches
type BatchProcessor struct {
	deps     Deps
	payments *VendorPaymentService
	methods  PaymentMethodFactory
	lock     shared.DistributedLock
	config   BatchConfig
}

// NewBatchProcessor creates a new BatchProcessor. lock may be nil when a
// single worker pays batches.
func NewBatchProcessor(
	deps Deps,
	payments *VendorPaymentService,
	methods PaymentMethodFactory,
	lock shared.DistributedLock,
	config BatchConfig,
) *BatchProcessor {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.LockTTL <= 0 {
		config.LockTTL = 15 * time.Minute
	}
	return &BatchProcessor{
		deps:     deps.withDefaults(),
		payments: payments,
		methods:  methods,
		lock:     lock,
		config:   config,
	}
}

// CreateBatch schedules bills for payment. Every row must reference a bill of its vendor.
func (p *BatchProcessor) CreateBatch(ctx context.Context, params CreateBatchParams) (*payables.VendorPaymentBatch, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_batch", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, params.TenantID.String(),
		telemetry.SpanAttrPaymentMethod, params.PaymentMethodID,
		"bill_count", len(params.Bills),
	)

	if err := validateParams(params); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	currency, err := parseCurrency(params.Currency)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	rows := make([]payables.BatchBillInput, len(params.Bills))
	for i, b := range params.Bills {
		amount, err := parseMoney(currency, b.Amount)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		rows[i] = payables.BatchBillInput{BillID: b.BillID, VendorID: b.VendorID, Amount: amount}
	}

	batch, err := payables.NewVendorPaymentBatch(params.TenantID, params.PaymentMethodID, currency, params.PaymentDate, rows)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	batch.BankAccountID = params.BankAccountID
	batch.CardID = params.CardID
	batch.InitialCheckNumber = params.InitialCheckNumber
	batch.Memo = params.Memo

	err = p.deps.Tx.Perform(ctx, func(repos Repositories) error {
		ids := make([]uuid.UUID, len(rows))
		for i, row := range rows {
			ids[i] = row.BillID
		}
		docs, err := repos.Documents().FindByIDsForTenant(ctx, params.TenantID, ids)
		if err != nil {
			return fmt.Errorf("failed to load batch bills: %w", err)
		}
		bills := make(map[uuid.UUID]*payables.Document, len(docs))
		for _, d := range docs {
			bills[d.ID] = d
		}
		for i, row := range rows {
			bill, ok := bills[row.BillID]
			if !ok || bill.Kind != payables.DocumentKindBill {
				return shared.NewDomainError("DOCUMENT_NOT_FOUND", fmt.Sprintf("Row %d references unknown bill %s", i+1, row.BillID))
			}
			if bill.CounterpartyID != row.VendorID {
				return shared.NewDomainError("INVALID_BATCH", fmt.Sprintf("Bill %s does not belong to vendor %s", bill.Number, row.VendorID))
			}
		}
		if err := repos.Batches().Create(ctx, batch); err != nil {
			return fmt.Errorf("failed to create payment batch: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrBatchID, batch.ID.String())
	return batch, nil
}

// PayVendorPaymentBatch pays every unpaid row of a batch, one payment per vendor.
// It never fails: a group that fails is rolled back, its rows record the error
// and the run continues with the next group. The batch ends FINISHED even when
// every group failed, so callers inspect the rows to detect partial failure.
func (p *BatchProcessor) PayVendorPaymentBatch(ctx context.Context, tenantID, batchID uuid.UUID) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_batch", "pay")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrBatchID, batchID.String(),
	)
	log := p.deps.Logger.With(zap.String("batch_id", batchID.String()), zap.String("tenant_id", tenantID.String()))
	started := p.deps.Now()

	if p.lock != nil {
		key := "payment_batch:" + batchID.String()
		acquired, err := p.lock.Acquire(ctx, key, p.config.LockTTL)
		if err != nil {
			telemetry.RecordError(span, err)
			log.Error("Failed to acquire batch lock", zap.Error(err))
			return
		}
		if !acquired {
			log.Info("Batch is already being paid by another run")
			return
		}
		defer func() {
			if err := p.lock.Release(context.WithoutCancel(ctx), key); err != nil {
				log.Warn("Failed to release batch lock", zap.Error(err))
			}
		}()
	}

	batch, err := p.start(ctx, tenantID, batchID)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Failed to start batch run", zap.Error(err))
		return
	}
	if batch == nil {
		log.Debug("Batch already finished or voided, nothing to pay")
		return
	}

	groups := batch.UnpaidGroups()
	telemetry.SetAttribute(span, "group_count", len(groups))

	method, err := p.methods.Get(batch.PaymentMethodID)
	switch {
	case err != nil:
		for _, group := range groups {
			p.recordFailure(ctx, log, batch, group, err)
		}
	case batch.UsesCheckNumbers() || p.config.Concurrency == 1:
		next := batch.NextCheckNumber()
		for _, group := range groups {
			if err := p.payGroup(ctx, batch, method, group, next); err != nil {
				p.recordFailure(ctx, log, batch, group, err)
				continue
			}
			p.deps.Metrics.BatchGroup(ctx, tenantID.String(), telemetry.OutcomePaid)
			if next != nil {
				advanced := *next + 1
				next = &advanced
			}
		}
	default:
		var eg errgroup.Group
		eg.SetLimit(p.config.Concurrency)
		for _, group := range groups {
			eg.Go(func() error {
				if err := p.payGroup(ctx, batch, method, group, nil); err != nil {
					p.recordFailure(ctx, log, batch, group, err)
					return nil
				}
				p.deps.Metrics.BatchGroup(ctx, tenantID.String(), telemetry.OutcomePaid)
				return nil
			})
		}
		_ = eg.Wait()
	}

	if err := p.finish(ctx, batch); err != nil {
		telemetry.RecordError(span, err)
		log.Error("Failed to finish batch run", zap.Error(err))
		return
	}
	p.deps.Metrics.BatchFinished(ctx, tenantID.String(), p.deps.Now().Sub(started))
	log.Info("Batch run finished", zap.Int("groups", len(groups)))
}

// start moves the batch to PROCESSING. Returns nil when it is already done.
func (p *BatchProcessor) start(ctx context.Context, tenantID, batchID uuid.UUID) (*payables.VendorPaymentBatch, error) {
	var batch *payables.VendorPaymentBatch
	err := p.deps.Tx.Perform(ctx, func(repos Repositories) error {
		loaded, err := repos.Batches().FindByIDForTenant(ctx, tenantID, batchID)
		if err != nil {
			return err
		}
		if loaded.Status.IsDone() {
			return nil
		}
		if err := loaded.StartProcessing(); err != nil {
			return err
		}
		if err := repos.Batches().SaveWithLock(ctx, loaded); err != nil {
			return fmt.Errorf("failed to save payment batch: %w", err)
		}
		batch = loaded
		return nil
	})
	return batch, err
}

func (p *BatchProcessor) finish(ctx context.Context, batch *payables.VendorPaymentBatch) error {
	return p.deps.Tx.Perform(ctx, func(repos Repositories) error {
		batch.Finish()
		return repos.Batches().SaveWithLock(ctx, batch)
	})
}

// payGroup pays one vendor group in its own transaction. Row updates are only
// applied to the batch once the transaction committed.
func (p *BatchProcessor) payGroup(
	ctx context.Context,
	batch *payables.VendorPaymentBatch,
	method PaymentMethod,
	group payables.VendorGroup,
	checkNumber *int,
) error {
	total, err := group.Total(batch.Currency)
	if err != nil {
		if errors.Is(err, valueobject.ErrCurrencyMismatch) {
			return shared.NewDomainError("CURRENCY_MISMATCH", fmt.Sprintf("Batch rows for vendor %s are not in %s", group.VendorID, batch.Currency))
		}
		return err
	}

	paidRows := make([]*payables.BatchBill, len(group.Bills))
	audit := p.deps.newAudit()
	var payment *payables.VendorPayment
	err = p.deps.Tx.Perform(ctx, func(repos Repositories) error {
		ids := make([]uuid.UUID, len(group.Bills))
		for i, row := range group.Bills {
			ids[i] = row.BillID
		}
		bills, err := repos.Documents().FindByIDsForTenant(ctx, batch.TenantID, ids)
		if err != nil {
			return fmt.Errorf("failed to load batch bills: %w", err)
		}
		for _, bill := range bills {
			if bill.Currency != batch.Currency {
				return shared.NewDomainError("CURRENCY_MISMATCH",
					fmt.Sprintf("Bill %s is in %s but the batch pays in %s", bill.Number, bill.Currency, batch.Currency))
			}
		}

		draft, err := payables.NewVendorPayment(batch.TenantID, group.VendorID, total, batch.PaymentDate, batch.PaymentMethodID)
		if err != nil {
			return err
		}
		draft.Memo = batch.Memo
		draft.AttachToBatch(batch.ID, checkNumber)

		rows := make([]payables.PaymentItemInput, len(group.Bills))
		for i, row := range group.Bills {
			billID := row.BillID
			rows[i] = payables.PaymentItemInput{
				Type:   payables.PaymentItemTypeApplication,
				BillID: &billID,
				Amount: row.AmountMoney(),
			}
		}
		// The gateway is the last step that may fail before the payment is written.
		plan, err := p.payments.planInTx(ctx, repos, draft, rows)
		if err != nil {
			return err
		}
		preview := *draft
		preview.Items = plan.Items
		if err := synchronizer(p.deps.Chart, repos).CheckPayment(ctx, &preview); err != nil {
			return err
		}

		payment, err = method.Pay(ctx, draft, PaymentOptions{
			BankAccountID:  batch.BankAccountID,
			CardID:         batch.CardID,
			CheckNumber:    checkNumber,
			IdempotencyKey: group.IdempotencyKey(batch.ID).String(),
		})
		if err != nil {
			return err
		}
		if payment.ID != draft.ID {
			return fmt.Errorf("payment method %s replaced payment %s", method.Name(), draft.ID)
		}
		if err := p.payments.persistInTx(ctx, repos, payment, plan, audit); err != nil {
			return err
		}

		now := p.deps.Now()
		for i, row := range group.Bills {
			paid := *row
			paid.MarkPaid(payment.ID, checkNumber, now)
			paidRows[i] = &paid
		}
		return repos.Batches().SaveBills(ctx, paidRows)
	})
	if err != nil {
		return err
	}

	for i, row := range group.Bills {
		*row = *paidRows[i]
	}
	audit.Flush(ctx)
	p.deps.Metrics.PaymentCreated(ctx, batch.TenantID.String(), batch.PaymentMethodID)
	return nil
}

// recordFailure stores the failure on every row of the group in its own transaction
func (p *BatchProcessor) recordFailure(ctx context.Context, log *zap.Logger, batch *payables.VendorPaymentBatch, group payables.VendorGroup, cause error) {
	message := WrapLedgerError(cause).Error()
	now := p.deps.Now()
	for _, row := range group.Bills {
		row.MarkFailed(message, now)
	}
	p.deps.Metrics.BatchGroup(ctx, batch.TenantID.String(), telemetry.OutcomeFailed)
	log.Warn("Vendor group payment failed",
		zap.String("vendor_id", group.VendorID.String()),
		zap.Int("bills", len(group.Bills)),
		zap.Error(cause),
	)

	err := p.deps.Tx.Perform(ctx, func(repos Repositories) error {
		return repos.Batches().SaveBills(ctx, group.Bills)
	})
	if err != nil {
		log.Error("Failed to record batch row errors",
			zap.String("vendor_id", group.VendorID.String()),
			zap.Error(err),
		)
	}
}

// VoidVendorPaymentBatch voids a batch that has not been paid yet and then
// voids every payment it produced. The first payment that fails to void stops
// the cascade and its error is returned.
func (p *BatchProcessor) VoidVendorPaymentBatch(ctx context.Context, tenantID, batchID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_batch", "void")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrBatchID, batchID.String(),
	)

	var produced []*payables.VendorPayment
	err := p.deps.Tx.Perform(ctx, func(repos Repositories) error {
		batch, err := repos.Batches().FindByIDForTenant(ctx, tenantID, batchID)
		if err != nil {
			return err
		}
		if err := batch.Void(); err != nil {
			return err
		}
		if err := repos.Batches().SaveWithLock(ctx, batch); err != nil {
			return fmt.Errorf("failed to save payment batch: %w", err)
		}
		produced, err = repos.Payments().FindByBatch(ctx, tenantID, batchID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	for _, payment := range produced {
		if payment.Voided {
			continue
		}
		if err := p.payments.VoidVendorPayment(ctx, tenantID, payment.ID); err != nil {
			telemetry.RecordError(span, err)
			return fmt.Errorf("failed to void payment %s of batch: %w", payment.ID, err)
		}
	}
	return nil
}
