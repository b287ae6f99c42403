package payables

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// VendorAdjustmentService creates and voids vendor adjustments
type VendorAdjustmentService struct {
	deps Deps
}

// NewVendorAdjustmentService creates a new VendorAdjustmentService
func NewVendorAdjustmentService(deps Deps) *VendorAdjustmentService {
	return &VendorAdjustmentService{deps: deps.withDefaults()}
}

// CreateVendorAdjustment records an adjustment and posts it to the ledger
func (s *VendorAdjustmentService) CreateVendorAdjustment(ctx context.Context, params AdjustmentParams) (*payables.VendorAdjustment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "vendor_adjustment", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, params.TenantID.String(),
		telemetry.SpanAttrVendorID, params.VendorID.String(),
		telemetry.SpanAttrAmount, params.Amount,
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
	amount, err := parseMoney(currency, params.Amount)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	adjustment, err := payables.NewVendorAdjustment(params.TenantID, params.VendorID, amount, params.AdjustmentDate, params.AccountCode, params.Memo)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	audit := s.deps.newAudit()
	err = s.deps.Tx.Perform(ctx, func(repos Repositories) error {
		if _, err := repos.Vendors().FindByIDForTenant(ctx, params.TenantID, params.VendorID); err != nil {
			return fmt.Errorf("failed to load vendor %s: %w", params.VendorID, err)
		}
		if err := repos.Adjustments().Create(ctx, adjustment); err != nil {
			return fmt.Errorf("failed to create vendor adjustment: %w", err)
		}
		return s.sync(ctx, repos, adjustment, audit)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, WrapLedgerError(err)
	}
	audit.Flush(ctx)
	telemetry.SetAttribute(span, telemetry.SpanAttrAdjustmentID, adjustment.ID.String())
	return adjustment, nil
}

// VoidVendorAdjustment voids an adjustment and reverses its ledger entries.
// Only the deletion-style audit record of the pre-void state is published.
func (s *VendorAdjustmentService) VoidVendorAdjustment(ctx context.Context, tenantID, adjustmentID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "vendor_adjustment", "void")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrAdjustmentID, adjustmentID.String(),
	)

	audit := s.deps.newAudit()
	audit.SuppressChangeEvents()
	err := s.deps.Tx.Perform(ctx, func(repos Repositories) error {
		adjustment, err := repos.Adjustments().FindByIDForTenant(ctx, tenantID, adjustmentID)
		if err != nil {
			return err
		}
		snapshot := payables.NewVendorAdjustmentDeletedEvent(adjustment)
		if err := adjustment.Void(s.deps.Now()); err != nil {
			return err
		}
		if err := repos.Adjustments().SaveWithLock(ctx, adjustment); err != nil {
			return fmt.Errorf("failed to save vendor adjustment: %w", err)
		}
		if err := s.sync(ctx, repos, adjustment, audit); err != nil {
			return err
		}
		audit.Record(snapshot)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return WrapLedgerError(err)
	}
	audit.Flush(ctx)
	return nil
}

func (s *VendorAdjustmentService) sync(ctx context.Context, repos Repositories, adjustment *payables.VendorAdjustment, audit *AuditUnit) error {
	synced, err := synchronizer(s.deps.Chart, repos).SyncAdjustment(ctx, adjustment)
	if err != nil {
		return err
	}
	s.deps.recordSync(ctx, ledger.DocumentKindVendorAdjustment, synced)
	audit.Collect(adjustment)
	return nil
}
