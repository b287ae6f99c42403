package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Batch group outcomes.
const (
	OutcomePaid   = "paid"
	OutcomeFailed = "failed"
)

var (
	attrTenantID      = attribute.Key("tenant_id")
	attrDocumentKind  = attribute.Key("document_kind")
	attrPaymentMethod = attribute.Key("payment_method")
	attrOutcome       = attribute.Key("outcome")
)

// batchDurationBuckets span single-vendor runs up to large check runs, in seconds.
var batchDurationBuckets = []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300}

// PayablesMetrics holds the instruments recorded by the payables services.
// A nil *PayablesMetrics is valid and records nothing.
type PayablesMetrics struct {
	paymentsCreated   metric.Int64Counter
	paymentsVoided    metric.Int64Counter
	batchGroups       metric.Int64Counter
	entriesPosted     metric.Int64Counter
	entriesSuperseded metric.Int64Counter
	batchDuration     metric.Float64Histogram
}

// NewPayablesMetrics registers the payables instruments on the given meter.
func NewPayablesMetrics(meter metric.Meter) (*PayablesMetrics, error) {
	var errs []error
	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		errs = append(errs, err)
		return c
	}

	m := &PayablesMetrics{
		paymentsCreated:   counter("payables_payments_created_total", "Vendor payments created", "{payment}"),
		paymentsVoided:    counter("payables_payments_voided_total", "Vendor payments voided", "{payment}"),
		batchGroups:       counter("payables_batch_groups_total", "Vendor groups processed by payment batches", "{group}"),
		entriesPosted:     counter("ledger_entries_posted_total", "Ledger entries inserted by synchronization", "{entry}"),
		entriesSuperseded: counter("ledger_entries_superseded_total", "Ledger entries superseded by synchronization", "{entry}"),
	}
	var err error
	m.batchDuration, err = meter.Float64Histogram("payables_batch_duration_seconds",
		metric.WithDescription("Time spent paying a vendor payment batch"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(batchDurationBuckets...),
	)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// PaymentCreated counts a created vendor payment.
func (m *PayablesMetrics) PaymentCreated(ctx context.Context, tenantID, method string) {
	if m == nil {
		return
	}
	m.paymentsCreated.Add(ctx, 1, metric.WithAttributes(attrTenantID.String(tenantID), attrPaymentMethod.String(method)))
}

// PaymentVoided counts a voided vendor payment.
func (m *PayablesMetrics) PaymentVoided(ctx context.Context, tenantID string) {
	if m == nil {
		return
	}
	m.paymentsVoided.Add(ctx, 1, metric.WithAttributes(attrTenantID.String(tenantID)))
}

// BatchGroup counts one processed vendor group with its outcome.
func (m *PayablesMetrics) BatchGroup(ctx context.Context, tenantID, outcome string) {
	if m == nil {
		return
	}
	m.batchGroups.Add(ctx, 1, metric.WithAttributes(attrTenantID.String(tenantID), attrOutcome.String(outcome)))
}

// LedgerSynced records the entry churn of one synchronization.
func (m *PayablesMetrics) LedgerSynced(ctx context.Context, kind string, posted, superseded int) {
	if m == nil {
		return
	}
	kindAttr := metric.WithAttributes(attrDocumentKind.String(kind))
	if posted > 0 {
		m.entriesPosted.Add(ctx, int64(posted), kindAttr)
	}
	if superseded > 0 {
		m.entriesSuperseded.Add(ctx, int64(superseded), kindAttr)
	}
}

// BatchFinished records how long a batch run took.
func (m *PayablesMetrics) BatchFinished(ctx context.Context, tenantID string, d time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrTenantID.String(tenantID)))
}
