package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	tenantKey
	batchKey
)

// WithContext stores log on ctx
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the logger stored on ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}

// WithTenantID records the tenant on ctx and on the logger it carries
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	ctx = context.WithValue(ctx, tenantKey, tenantID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("tenant_id", tenantID)))
}

// WithBatchID records the payment batch being run on ctx and on its logger
func WithBatchID(ctx context.Context, batchID string) context.Context {
	ctx = context.WithValue(ctx, batchKey, batchID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("batch_id", batchID)))
}

// TenantID returns the tenant recorded by WithTenantID
func TenantID(ctx context.Context) string {
	id, _ := ctx.Value(tenantKey).(string)
	return id
}

// BatchID returns the batch recorded by WithBatchID
func BatchID(ctx context.Context) string {
	id, _ := ctx.Value(batchKey).(string)
	return id
}

// ContextFields returns the tenant, batch and active span of ctx as log fields.
// Loggers that are not taken from ctx, such as the GORM logger, use it to
// correlate their entries with a batch run.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 4)
	if id := TenantID(ctx); id != "" {
		fields = append(fields, zap.String("tenant_id", id))
	}
	if id := BatchID(ctx); id != "" {
		fields = append(fields, zap.String("batch_id", id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	return fields
}
