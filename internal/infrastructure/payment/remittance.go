package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	app "github.com/erp/ledger/internal/application/payables"
	"github.com/erp/ledger/internal/domain/payables"
)

// MethodACH is the id of the bank remittance method
const MethodACH = "ach"

const remittancePath = "/v1/remittances"

// RemittanceConfig configures the bank remittance gateway
type RemittanceConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Validate validates the configuration
func (c *RemittanceConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("remittance: missing base URL")
	}
	if c.APIKey == "" {
		return errors.New("remittance: missing API key")
	}
	return nil
}

type remittanceRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	VendorID       string `json:"vendor_id"`
	BankAccountID  string `json:"bank_account_id"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	PaymentDate    string `json:"payment_date"`
	Memo           string `json:"memo,omitempty"`
}

type remittanceResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

type remittanceErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RemittanceMethod pays vendors by bank transfer through an HTTP remittance gateway
type RemittanceMethod struct {
	config     RemittanceConfig
	httpClient *http.Client
}

// NewRemittanceMethod creates a new RemittanceMethod
func NewRemittanceMethod(cfg RemittanceConfig) (*RemittanceMethod, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &RemittanceMethod{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name returns the method id
func (m *RemittanceMethod) Name() string {
	return MethodACH
}

// Pay submits the transfer and records the gateway reference on the payment
func (m *RemittanceMethod) Pay(ctx context.Context, payment *payables.VendorPayment, opts app.PaymentOptions) (*payables.VendorPayment, error) {
	if opts.BankAccountID == nil {
		return nil, payables.NewPaymentError(MethodACH, "bank account is required", nil)
	}

	key := opts.IdempotencyKey
	if key == "" {
		key = payment.ID.String()
	}
	body, err := json.Marshal(remittanceRequest{
		IdempotencyKey: key,
		VendorID:       payment.VendorID.String(),
		BankAccountID:  opts.BankAccountID.String(),
		Amount:         payment.AmountMoney().ToDecimal(),
		Currency:       string(payment.Currency),
		PaymentDate:    payment.PaymentDate.Format("2006-01-02"),
		Memo:           payment.Memo,
	})
	if err != nil {
		return nil, fmt.Errorf("remittance: failed to marshal request: %w", err)
	}

	respBody, err := m.doRequest(ctx, http.MethodPost, remittancePath, body)
	if err != nil {
		return nil, err
	}

	var resp remittanceResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, payables.NewPaymentError(MethodACH, "unreadable gateway response", err)
	}
	if resp.Status == "REJECTED" {
		return nil, payables.NewPaymentError(MethodACH, "transfer rejected", nil)
	}
	if resp.Reference == "" {
		return nil, payables.NewPaymentError(MethodACH, "gateway returned no reference", nil)
	}

	payment.Reference = resp.Reference
	return payment, nil
}

func (m *RemittanceMethod) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	url := strings.TrimRight(m.config.BaseURL, "/") + path

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("remittance: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.config.APIKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, payables.NewPaymentError(MethodACH, "gateway unavailable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, payables.NewPaymentError(MethodACH, "failed to read response", err)
	}

	if resp.StatusCode >= 400 {
		var errResp remittanceErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Code != "" {
			return nil, payables.NewPaymentError(MethodACH, fmt.Sprintf("%s - %s", errResp.Code, errResp.Message), nil)
		}
		return nil, payables.NewPaymentError(MethodACH, fmt.Sprintf("HTTP %d", resp.StatusCode), nil)
	}

	return respBody, nil
}

var _ app.PaymentMethod = (*RemittanceMethod)(nil)
