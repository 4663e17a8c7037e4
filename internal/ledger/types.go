package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Now is the clock used for timestamps and future-date checks. Overridable in tests.
var Now = time.Now

// Currency identifies the denomination of an account and its movements.
type Currency string

const (
	CurrencyARS Currency = "ARS"
	CurrencyUSD Currency = "USD"
)

// ParseCurrency validates a currency code.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(s) {
	case CurrencyARS, CurrencyUSD:
		return Currency(s), nil
	}
	return "", &ValidationError{Msg: fmt.Sprintf("unknown currency %q", s)}
}

// InvoiceType distinguishes purchase invoices from sale invoices.
type InvoiceType string

const (
	InvoicePurchase InvoiceType = "purchase"
	InvoiceSale     InvoiceType = "sale"
)

// ParseInvoiceType validates an invoice type.
func ParseInvoiceType(s string) (InvoiceType, error) {
	switch InvoiceType(s) {
	case InvoicePurchase, InvoiceSale:
		return InvoiceType(s), nil
	}
	return "", &ValidationError{Msg: fmt.Sprintf("unknown invoice type %q", s)}
}

const dateLayout = "2006-01-02"

// Date is a calendar date without a time component, serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, &ValidationError{Msg: fmt.Sprintf("invalid date %q, want YYYY-MM-DD", s)}
	}
	return Date{t}, nil
}

// Today returns the current calendar date.
func Today() Date {
	y, m, d := Now().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// InFuture reports whether the date is after today.
func (d Date) InFuture() bool {
	return d.After(Today().Time)
}

func (d Date) String() string { return d.Format(dateLayout) }

// MarshalJSON encodes the date as a quoted YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON decodes a quoted YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date literal %s", s)
	}
	t, err := time.Parse(dateLayout, s[1:len(s)-1])
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Account is a money account. At most one account is the billing account,
// whose transactions feed the billing change log.
type Account struct {
	ID             uint64          `json:"id"`
	Name           string          `json:"name"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Currency       Currency        `json:"currency"`
	Color          string          `json:"color"`
	IsActive       bool            `json:"is_active"`
	IsBilling      bool            `json:"is_billing"`
	CreatedAtMs    int64           `json:"createdAtMs"`
}

// Transaction is a dated movement of money on an account. A transaction on
// the billing account may be linked to an exportable movement, in which case
// its description mirrors the movement's.
type Transaction struct {
	ID                   uint64          `json:"id"`
	Date                 Date            `json:"date"`
	Description          string          `json:"description"`
	Amount               decimal.Decimal `json:"amount"`
	Notes                string          `json:"notes,omitempty"`
	AccountID            uint64          `json:"account_id"`
	ExportableMovementID uint64          `json:"exportable_movement_id,omitempty"`
	CreatedAtMs          int64           `json:"createdAtMs"`
}

// Invoice is a purchase or sale document with computed tax amounts.
type Invoice struct {
	ID          uint64          `json:"id"`
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	Number      string          `json:"number"`
	Amount      decimal.Decimal `json:"amount"`
	IvaPercent  decimal.Decimal `json:"iva_percent"`
	IvaAmount   decimal.Decimal `json:"iva_amount"`
	IibbPercent decimal.Decimal `json:"iibb_percent"`
	IibbAmount  decimal.Decimal `json:"iibb_amount"`
	Type        InvoiceType     `json:"type"`
	AccountID   uint64          `json:"account_id"`
	CreatedAtMs int64           `json:"createdAtMs"`
}

// FrequentTransaction is a recurring-transaction template.
type FrequentTransaction struct {
	ID          uint64 `json:"id"`
	Description string `json:"description"`
	CreatedAtMs int64  `json:"createdAtMs"`
}
