package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testEvent implements DomainEvent for testing
type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string, tenantID uuid.UUID) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "VendorPayment", uuid.New(), tenantID),
		Data:            "test data",
	}
}

// testHandler implements EventHandler for testing
type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panics     bool
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panics {
		panic("boom")
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("VendorPaymentCreated")
	bus.Subscribe(handler)

	event := newTestEvent("VendorPaymentCreated", uuid.New())
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, handler.getHandled(), 1)
	assert.Equal(t, event, handler.getHandled()[0])
}

func TestInMemoryEventBus_Publish_MultipleEventsAndHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler1 := newTestHandler()
	handler2 := newTestHandler()
	bus.Subscribe(handler1, "DocumentVoided")
	bus.Subscribe(handler2, "DocumentVoided")

	tenantID := uuid.New()
	err := bus.Publish(context.Background(),
		newTestEvent("DocumentVoided", tenantID),
		newTestEvent("DocumentVoided", tenantID),
	)

	require.NoError(t, err)
	assert.Len(t, handler1.getHandled(), 2)
	assert.Len(t, handler2.getHandled(), 2)
}

func TestInMemoryEventBus_Publish_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	wildcard := newTestHandler()
	bus.Subscribe(wildcard)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("DocumentCreated", uuid.New()),
		newTestEvent("VendorAdjustmentDeleted", uuid.New()),
	))

	assert.Len(t, wildcard.getHandled(), 2)
}

func TestInMemoryEventBus_Publish_FailingHandlersDoNotStopDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := newTestHandler("VendorPaymentDeleted")
	failing.err = errors.New("handler error")
	panicking := newTestHandler("VendorPaymentDeleted")
	panicking.panics = true
	healthy := newTestHandler("VendorPaymentDeleted")
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("VendorPaymentDeleted", uuid.New()))

	require.NoError(t, err)
	assert.Len(t, failing.getHandled(), 1)
	assert.Len(t, panicking.getHandled(), 1)
	assert.Len(t, healthy.getHandled(), 1)
}

func TestInMemoryEventBus_Publish_NoMatchingHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("DocumentCreated")
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("DocumentVoided", uuid.New())))
	assert.Empty(t, handler.getHandled())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	typed := newTestHandler("DocumentCreated")
	wildcard := newTestHandler()
	bus.Subscribe(typed)
	bus.Subscribe(wildcard)

	_ = bus.Publish(context.Background(), newTestEvent("DocumentCreated", uuid.New()))

	bus.Unsubscribe(typed)
	bus.Unsubscribe(wildcard)

	_ = bus.Publish(context.Background(), newTestEvent("DocumentCreated", uuid.New()))
	assert.Len(t, typed.getHandled(), 1)
	assert.Len(t, wildcard.getHandled(), 1)
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.running.Load())

	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.running.Load())
}
