package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	log := zap.NewExample()
	assert.Same(t, log, FromContext(WithContext(context.Background(), log)))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestWithTenantAndBatch(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))

	ctx = WithBatchID(WithTenantID(ctx, "tenant-456"), "batch-123")

	assert.Equal(t, "tenant-456", TenantID(ctx))
	assert.Equal(t, "batch-123", BatchID(ctx))

	FromContext(ctx).Info("Batch run finished")

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "tenant-456", fields["tenant_id"])
	assert.Equal(t, "batch-123", fields["batch_id"])
}

func TestContextFields(t *testing.T) {
	t.Run("empty context", func(t *testing.T) {
		ctx := context.Background()
		assert.Empty(t, TenantID(ctx))
		assert.Empty(t, BatchID(ctx))
		assert.Empty(t, ContextFields(ctx))
	})

	t.Run("batch run with span", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

		ctx, span := tp.Tracer("test").Start(context.Background(), "pay-group")
		defer span.End()
		ctx = WithBatchID(WithTenantID(ctx, "tenant-1"), "batch-1")

		enc := zapcore.NewMapObjectEncoder()
		for _, f := range ContextFields(ctx) {
			f.AddTo(enc)
		}
		assert.Equal(t, "tenant-1", enc.Fields["tenant_id"])
		assert.Equal(t, "batch-1", enc.Fields["batch_id"])
		assert.Equal(t, span.SpanContext().TraceID().String(), enc.Fields["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), enc.Fields["span_id"])
	})
}
