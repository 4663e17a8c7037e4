// Package inkwell talks to the external Inkwell bookkeeping service. The
// billing views embed the invoices and retention certificates it reports.
package inkwell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/config"
)

// DefaultTimeout bounds one billing-data fetch.
const DefaultTimeout = 15 * time.Second

// Failure kinds for typed errors. All map to a bad-gateway style response.
const (
	KindNotConfigured = "not_configured"
	KindUnreachable   = "unreachable"
	KindBadStatus     = "bad_status"
	KindBadPayload    = "bad_payload"
)

// Error describes why a fetch failed. Status is set for KindBadStatus.
type Error struct {
	Kind   string
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotConfigured:
		return "inkwell: endpoint or api key not configured"
	case KindUnreachable:
		return fmt.Sprintf("inkwell: service unreachable: %v", e.Err)
	case KindBadStatus:
		return fmt.Sprintf("inkwell: service returned status %d", e.Status)
	default:
		return fmt.Sprintf("inkwell: invalid payload: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsError reports whether err is an inkwell Error.
func IsError(err error) bool {
	var ie *Error
	return errors.As(err, &ie)
}

// Invoice is one invoice as reported by Inkwell.
type Invoice struct {
	ID          uint64          `json:"id"`
	Date        string          `json:"date"`
	Number      string          `json:"number"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	IvaAmount   decimal.Decimal `json:"iva_amount"`
	Type        string          `json:"type"`
}

// Retention is one withheld-tax certificate as reported by Inkwell.
type Retention struct {
	ID      uint64          `json:"id"`
	Date    string          `json:"date"`
	TaxType string          `json:"tax_type"`
	Amount  decimal.Decimal `json:"amount"`
	Notes   string          `json:"notes,omitempty"`
}

// BillingData is the full payload of one billing-data fetch.
type BillingData struct {
	Invoices   []Invoice   `json:"invoices"`
	Retentions []Retention `json:"retentions"`
}

// Client fetches billing data from a configured Inkwell endpoint.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// New builds a Client from configuration. The zero-value timeout falls back
// to DefaultTimeout.
func New(cfg config.Inkwell) *Client {
	timeout := DefaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// FetchBillingData retrieves invoices and retention certificates.
func (c *Client) FetchBillingData(ctx context.Context) (BillingData, error) {
	if c.endpoint == "" || c.apiKey == "" {
		return BillingData{}, &Error{Kind: KindNotConfigured}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return BillingData{}, &Error{Kind: KindUnreachable, Err: err}
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return BillingData{}, &Error{Kind: KindUnreachable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return BillingData{}, &Error{Kind: KindBadStatus, Status: resp.StatusCode}
	}
	var data BillingData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return BillingData{}, &Error{Kind: KindBadPayload, Err: err}
	}
	return data, nil
}
