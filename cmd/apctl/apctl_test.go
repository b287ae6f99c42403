package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDs(t *testing.T) {
	tenant, batch := uuid.New(), uuid.New()

	ids, err := parseIDs([]string{tenant.String(), batch.String()}, "tenant id", "batch id")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{tenant, batch}, ids)

	_, err = parseIDs([]string{tenant.String(), "nope"}, "tenant id", "batch id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid batch id "nope"`)
}

func TestReadBatchParams(t *testing.T) {
	tenant, bill, vendor := uuid.New(), uuid.New(), uuid.New()
	body := `{
		"tenant_id": "` + tenant.String() + `",
		"payment_method_id": "check",
		"currency": "USD",
		"payment_date": "2026-03-02T00:00:00Z",
		"initial_check_number": 1001,
		"bills": [{"bill_id": "` + bill.String() + `", "vendor_id": "` + vendor.String() + `", "amount": "125.50"}]
	}`

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "batch.json")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		params, err := readBatchParams(nil, path)
		require.NoError(t, err)
		assert.Equal(t, tenant, params.TenantID)
		assert.Equal(t, "check", params.PaymentMethodID)
		require.NotNil(t, params.InitialCheckNumber)
		assert.Equal(t, 1001, *params.InitialCheckNumber)
		require.Len(t, params.Bills, 1)
		assert.Equal(t, "125.50", params.Bills[0].Amount)
	})

	t.Run("from stdin", func(t *testing.T) {
		params, err := readBatchParams(strings.NewReader(body), "-")
		require.NoError(t, err)
		assert.Equal(t, vendor, params.Bills[0].VendorID)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		_, err := readBatchParams(strings.NewReader(`{"tenant":"x"}`), "-")
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readBatchParams(nil, filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
	})
}

func TestWriteBatch(t *testing.T) {
	paymentID := uuid.New()
	check := 1001
	failure := "Payment amount exceeds the open balance"

	batch := &payables.VendorPaymentBatch{
		Status:          payables.BatchStatusFinished,
		PaymentMethodID: "check",
		Currency:        valueobject.USD,
		PaymentDate:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Total:           decimal.RequireFromString("300"),
		Bills: []payables.BatchBill{
			{BillID: uuid.New(), VendorID: uuid.New(), Amount: decimal.RequireFromString("100"), PaymentID: &paymentID, CheckNumber: &check},
			{BillID: uuid.New(), VendorID: uuid.New(), Amount: decimal.RequireFromString("200"), Error: &failure},
		},
	}

	var out bytes.Buffer
	writeBatch(&out, batch)

	text := out.String()
	assert.Contains(t, text, "300.00 USD")
	assert.Contains(t, text, paymentID.String())
	assert.Contains(t, text, "1001")
	assert.Contains(t, text, failure)
}

func TestChartOfAccounts(t *testing.T) {
	chart, err := chartOfAccounts(config.LedgerConfig{
		AccountsPayable: "2100",
		Bank:            "1010",
		Currencies:      []string{"USD", "EUR"},
	})
	require.NoError(t, err)
	assert.Equal(t, "2100", chart.AccountsPayable)
	assert.True(t, chart.Supports(valueobject.EUR))
	assert.False(t, chart.Supports(valueobject.GBP))

	_, err = chartOfAccounts(config.LedgerConfig{Currencies: []string{"DOLLAR"}})
	require.Error(t, err)
}

func TestPaymentMethods(t *testing.T) {
	registry, err := paymentMethods(config.PaymentConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{"check", "manual"}, registry.Names())

	registry, err = paymentMethods(config.PaymentConfig{
		RemittanceURL:     "https://bank.example.com",
		RemittanceAPIKey:  "key",
		RemittanceTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ach", "check", "manual"}, registry.Names())
}

func TestDescribePayload(t *testing.T) {
	serializer := event.NewPayablesSerializer()

	bill, err := payables.NewDocument(uuid.New(), payables.DocumentKindBill, "BILL-001", uuid.New(),
		valueobject.USD, time.Now(), payables.DocumentStatusApproved)
	require.NoError(t, err)
	require.NoError(t, bill.Void(time.Now()))
	events := bill.GetDomainEvents()
	voided := events[len(events)-1]
	require.Equal(t, payables.EventTypeDocumentVoided, voided.EventType())
	payload, err := serializer.Serialize(voided)
	require.NoError(t, err)

	described := describePayload(serializer, payables.EventTypeDocumentVoided, payload)
	assert.Contains(t, described, voided.EventID().String())
	assert.NotContains(t, described, "undecodable")

	described = describePayload(serializer, "SalesOrderCreated", []byte(`{}`))
	assert.Contains(t, described, "undecodable")
}
