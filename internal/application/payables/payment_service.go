package payables

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VendorPaymentService creates, edits and voids vendor payments
type VendorPaymentService struct {
	deps       Deps
	applicator *payables.PaymentApplicator
}

// NewVendorPaymentService creates a new VendorPaymentService
func NewVendorPaymentService(deps Deps) *VendorPaymentService {
	return &VendorPaymentService{
		deps:       deps.withDefaults(),
		applicator: payables.NewPaymentApplicator(),
	}
}

// CreateVendorPayment records a payment and applies it to the given bills,
// vendor credits and fees. Bills it settles are moved to paid.
func (s *VendorPaymentService) CreateVendorPayment(ctx context.Context, params PaymentParams, appliedTo []PaymentItemParams) (*payables.VendorPayment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "vendor_payment", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, params.TenantID.String(),
		telemetry.SpanAttrVendorID, params.VendorID.String(),
		telemetry.SpanAttrAmount, params.Amount,
		telemetry.SpanAttrCurrency, params.Currency,
	)

	payment, rows, err := s.preparePayment(params, appliedTo)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	audit := s.deps.newAudit()
	err = s.deps.Tx.Perform(ctx, func(repos Repositories) error {
		return s.createInTx(ctx, repos, payment, rows, audit)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, WrapLedgerError(err)
	}
	audit.Flush(ctx)

	s.deps.Metrics.PaymentCreated(ctx, payment.TenantID.String(), payment.PaymentMethodID)
	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, payment.ID.String())
	return payment, nil
}

func (s *VendorPaymentService) preparePayment(params PaymentParams, appliedTo []PaymentItemParams) (*payables.VendorPayment, []payables.PaymentItemInput, error) {
	if err := validateParams(params); err != nil {
		return nil, nil, err
	}
	for i := range appliedTo {
		if err := validateParams(appliedTo[i]); err != nil {
			return nil, nil, err
		}
	}
	currency, err := parseCurrency(params.Currency)
	if err != nil {
		return nil, nil, err
	}
	amount, err := parseMoney(currency, params.Amount)
	if err != nil {
		return nil, nil, err
	}

	payment, err := payables.NewVendorPayment(params.TenantID, params.VendorID, amount, params.PaymentDate, params.PaymentMethodID)
	if err != nil {
		return nil, nil, err
	}
	if err := payment.UpdateDetails(params.PaymentDate, params.Reference, params.Memo); err != nil {
		return nil, nil, err
	}
	payment.CheckNumber = params.CheckNumber
	if params.BatchID != nil {
		payment.AttachToBatch(*params.BatchID, params.CheckNumber)
	}

	rows, err := paymentItemInputs(currency, appliedTo)
	if err != nil {
		return nil, nil, err
	}
	return payment, rows, nil
}

// createInTx validates the applied-to rows against the payment, persists the
// payment with its items and synchronizes the ledger. The applied amount is
// checked before anything is written.
func (s *VendorPaymentService) createInTx(ctx context.Context, repos Repositories, payment *payables.VendorPayment, rows []payables.PaymentItemInput, audit *AuditUnit) error {
	plan, err := s.planInTx(ctx, repos, payment, rows)
	if err != nil {
		return err
	}
	return s.persistInTx(ctx, repos, payment, plan, audit)
}

// planInTx checks the vendor and the applied documents without writing anything
func (s *VendorPaymentService) planInTx(ctx context.Context, repos Repositories, payment *payables.VendorPayment, rows []payables.PaymentItemInput) (payables.PaymentPlan, error) {
	if _, err := repos.Vendors().FindByIDForTenant(ctx, payment.TenantID, payment.VendorID); err != nil {
		return payables.PaymentPlan{}, fmt.Errorf("failed to load vendor %s: %w", payment.VendorID, err)
	}
	targets, err := loadTargets(ctx, repos, payment.TenantID, rows)
	if err != nil {
		return payables.PaymentPlan{}, fmt.Errorf("failed to load applied documents: %w", err)
	}
	return s.applicator.Plan(payment, rows, targets)
}

func (s *VendorPaymentService) persistInTx(ctx context.Context, repos Repositories, payment *payables.VendorPayment, plan payables.PaymentPlan, audit *AuditUnit) error {
	if err := payment.ReplaceItems(plan.Items); err != nil {
		return err
	}
	if err := repos.Payments().Create(ctx, payment); err != nil {
		return fmt.Errorf("failed to create vendor payment: %w", err)
	}
	return s.sync(ctx, repos, payment, audit)
}

func (s *VendorPaymentService) sync(ctx context.Context, repos Repositories, payment *payables.VendorPayment, audit *AuditUnit) error {
	synced, err := synchronizer(s.deps.Chart, repos).SyncPayment(ctx, payment)
	if err != nil {
		return err
	}
	s.deps.recordSync(ctx, ledger.DocumentKindVendorPayment, synced)
	audit.Collect(payment)

	s.deps.Logger.Debug("Vendor payment synchronized",
		zap.String("payment_id", payment.ID.String()),
		zap.Int("posted", synced.Posted),
		zap.Int("superseded", synced.Superseded),
		zap.Int("recalculated", len(synced.Recalculated)),
	)
	return nil
}

// EditVendorPayment changes a payment. When appliedTo is nil the existing
// items are validated again against the new amount; otherwise the rows
// replace the item set and items that were not submitted are deleted.
func (s *VendorPaymentService) EditVendorPayment(
	ctx context.Context,
	tenantID, paymentID uuid.UUID,
	params EditPaymentParams,
	appliedTo *[]PaymentItemParams,
) (*payables.VendorPayment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "vendor_payment", "edit")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrPaymentID, paymentID.String(),
	)

	if err := validateParams(params); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if appliedTo != nil {
		for i := range *appliedTo {
			if err := validateParams((*appliedTo)[i]); err != nil {
				telemetry.RecordError(span, err)
				return nil, err
			}
		}
	}

	var payment *payables.VendorPayment
	audit := s.deps.newAudit()
	err := s.deps.Tx.Perform(ctx, func(repos Repositories) error {
		var err error
		payment, err = repos.Payments().FindByIDForTenant(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		if err := payment.EnsureMutable(); err != nil {
			return err
		}
		if err := s.applyHeader(payment, params); err != nil {
			return err
		}

		rows := payables.RowsFromItems(payment.Items)
		if appliedTo != nil {
			rows, err = paymentItemInputs(payment.Currency, *appliedTo)
			if err != nil {
				return err
			}
		}
		targets, err := loadTargets(ctx, repos, tenantID, rows)
		if err != nil {
			return fmt.Errorf("failed to load applied documents: %w", err)
		}
		plan, err := s.applicator.Plan(payment, rows, targets)
		if err != nil {
			return err
		}
		if err := payment.ReplaceItems(plan.Items); err != nil {
			return err
		}

		if err := repos.Payments().SaveWithLock(ctx, payment); err != nil {
			return fmt.Errorf("failed to save vendor payment: %w", err)
		}
		if err := repos.Payments().SaveItems(ctx, plan.Items); err != nil {
			return fmt.Errorf("failed to save payment items: %w", err)
		}
		if err := repos.Payments().DeleteMissingItems(ctx, tenantID, payment.ID, plan.KeepIDs()); err != nil {
			return fmt.Errorf("failed to delete removed payment items: %w", err)
		}
		return s.sync(ctx, repos, payment, audit)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, WrapLedgerError(err)
	}
	audit.Flush(ctx)
	return payment, nil
}

func (s *VendorPaymentService) applyHeader(payment *payables.VendorPayment, params EditPaymentParams) error {
	if params.Amount != nil || params.Currency != nil {
		currency := payment.Currency
		if params.Currency != nil {
			c, err := parseCurrency(*params.Currency)
			if err != nil {
				return err
			}
			currency = c
		}
		var amount valueobject.Money
		var err error
		if params.Amount != nil {
			amount, err = parseMoney(currency, *params.Amount)
		} else {
			amount, err = restateAmount(payment.Amount, currency)
		}
		if err != nil {
			return err
		}
		if err := payment.ChangeAmount(amount); err != nil {
			return err
		}
	}

	if params.PaymentDate == nil && params.Reference == nil && params.Memo == nil {
		return nil
	}
	date, reference, memo := payment.PaymentDate, payment.Reference, payment.Memo
	if params.PaymentDate != nil {
		date = *params.PaymentDate
	}
	if params.Reference != nil {
		reference = *params.Reference
	}
	if params.Memo != nil {
		memo = *params.Memo
	}
	return payment.UpdateDetails(date, reference, memo)
}

// VoidVendorPayment voids a payment. A deletion-style audit record with the
// pre-void state is published instead of the change events of the save, and
// the reversal reopens the bills the payment had settled.
func (s *VendorPaymentService) VoidVendorPayment(ctx context.Context, tenantID, paymentID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "vendor_payment", "void")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrPaymentID, paymentID.String(),
	)

	audit := s.deps.newAudit()
	audit.SuppressChangeEvents()
	err := s.deps.Tx.Perform(ctx, func(repos Repositories) error {
		payment, err := repos.Payments().FindByIDForTenant(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		return s.voidInTx(ctx, repos, payment, audit)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return WrapLedgerError(err)
	}
	audit.Flush(ctx)
	s.deps.Metrics.PaymentVoided(ctx, tenantID.String())
	return nil
}

func (s *VendorPaymentService) voidInTx(ctx context.Context, repos Repositories, payment *payables.VendorPayment, audit *AuditUnit) error {
	if err := payment.EnsureMutable(); err != nil {
		return err
	}
	snapshot := payables.NewVendorPaymentDeletedEvent(payment)
	if err := payment.Void(s.deps.Now()); err != nil {
		return err
	}
	if err := repos.Payments().SaveWithLock(ctx, payment); err != nil {
		return fmt.Errorf("failed to save vendor payment: %w", err)
	}
	if err := s.sync(ctx, repos, payment, audit); err != nil {
		return err
	}
	audit.Record(snapshot)
	return nil
}
