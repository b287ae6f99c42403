package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
	CAD Currency = "CAD" // Canadian Dollar
	CNY Currency = "CNY" // Chinese Yuan
	JPY Currency = "JPY" // Japanese Yen
	KRW Currency = "KRW" // South Korean Won
	BHD Currency = "BHD" // Bahraini Dinar
	KWD Currency = "KWD" // Kuwaiti Dinar
	JOD Currency = "JOD" // Jordanian Dinar
)

// DefaultMinorUnits is the number of decimal places used by currencies
// without an explicit entry in the minor-unit table.
const DefaultMinorUnits int32 = 2

var minorUnits = map[Currency]int32{
	JPY: 0,
	KRW: 0,
	BHD: 3,
	KWD: 3,
	JOD: 3,
}

// ErrCurrencyMismatch is returned when arithmetic or comparison mixes currencies
var ErrCurrencyMismatch = errors.New("currency mismatch")

// ParseCurrency normalizes and validates a currency code
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("invalid currency code %q", code)
	}
	return Currency(code), nil
}

// MinorUnits returns the number of decimal places of the currency
func (c Currency) MinorUnits() int32 {
	if places, ok := minorUnits[c]; ok {
		return places
	}
	return DefaultMinorUnits
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// Money is a value object representing monetary amounts
// It is immutable - all operations return new Money instances
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency.
// The amount is kept as given; use FromDecimal to normalize to minor units.
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{
		amount:   amount,
		currency: currency,
	}, nil
}

// MustMoney creates Money and panics on an empty currency
func MustMoney(amount decimal.Decimal, currency Currency) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// FromDecimal parses a decimal string and truncates it to the currency's
// minor-unit precision. No rounding is applied.
func FromDecimal(currency Currency, amount string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d.Truncate(currency.MinorUnits()), currency)
}

// NewMoneyFromMinor creates Money from an integer count of minor units (e.g. cents)
func NewMoneyFromMinor(minor int64, currency Currency) (Money, error) {
	return NewMoney(decimal.New(minor, -currency.MinorUnits()), currency)
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// ToDecimal returns the amount as a fixed-point string with the currency's
// minor-unit places. Finer digits are truncated, as in MinorUnits.
func (m Money) ToDecimal() string {
	places := m.currency.MinorUnits()
	return m.amount.Truncate(places).StringFixed(places)
}

// IsNormalized reports whether the amount has no digits below the currency's
// minor unit.
func (m Money) IsNormalized() bool {
	return m.amount.Equal(m.amount.Truncate(m.currency.MinorUnits()))
}

// Restate expresses the amount in another currency without conversion.
// It fails when the amount has digits the target currency cannot hold.
func (m Money) Restate(currency Currency) (Money, error) {
	restated, err := NewMoney(m.amount, currency)
	if err != nil {
		return Money{}, err
	}
	if !restated.IsNormalized() {
		return Money{}, fmt.Errorf("amount %s has more than %d decimal places for %s", m.amount, currency.MinorUnits(), currency)
	}
	return restated, nil
}

// MinorUnits returns the amount as an integer count of minor units.
// Digits below the currency precision are truncated.
func (m Money) MinorUnits() int64 {
	return m.amount.Shift(m.currency.MinorUnits()).Truncate(0).IntPart()
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

func (m Money) checkCurrency(op string, other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("cannot %s money with different currencies: %s and %s: %w", op, m.currency, other.currency, ErrCurrencyMismatch)
	}
	return nil
}

// Add returns a new Money with the sum of both amounts
// Returns ErrCurrencyMismatch if currencies don't match
func (m Money) Add(other Money) (Money, error) {
	if err := m.checkCurrency("add", other); err != nil {
		return Money{}, err
	}
	return Money{
		amount:   m.amount.Add(other.amount),
		currency: m.currency,
	}, nil
}

// Subtract returns a new Money with the difference
// Returns ErrCurrencyMismatch if currencies don't match
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.checkCurrency("subtract", other); err != nil {
		return Money{}, err
	}
	return Money{
		amount:   m.amount.Sub(other.amount),
		currency: m.currency,
	}, nil
}

// Negate returns a new Money with the sign reversed
func (m Money) Negate() Money {
	return Money{
		amount:   m.amount.Neg(),
		currency: m.currency,
	}
}

// Abs returns a new Money with the absolute value
func (m Money) Abs() Money {
	return Money{
		amount:   m.amount.Abs(),
		currency: m.currency,
	}
}

// Equals returns true if both Money values are equal (same amount and currency)
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.checkCurrency("compare", other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

// GreaterThanOrEqual returns true if this Money is greater than or equal to the other
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	if err := m.checkCurrency("compare", other); err != nil {
		return false, err
	}
	return m.amount.GreaterThanOrEqual(other.amount), nil
}

// LessThan returns true if this Money is less than the other
func (m Money) LessThan(other Money) (bool, error) {
	if err := m.checkCurrency("compare", other); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

// Sum adds a list of Money values in the given currency
func Sum(currency Currency, values ...Money) (Money, error) {
	total := Zero(currency)
	for _, v := range values {
		next, err := total.Add(v)
		if err != nil {
			return Money{}, err
		}
		total = next
	}
	return total, nil
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.ToDecimal(), m.currency)
}

// MarshalJSON implements json.Marshaler.
// Normalized amounts use the fixed minor-unit form; others keep every digit.
func (m Money) MarshalJSON() ([]byte, error) {
	amount := m.ToDecimal()
	if !m.IsNormalized() {
		amount = m.amount.String()
	}
	return json.Marshal(struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}{
		Amount:   amount,
		Currency: m.currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
// The amount keeps every digit it was written with.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(v.Amount))
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", v.Amount, err)
	}
	parsed, err := NewMoney(amount, v.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer for database storage.
// Only the amount is stored; the currency lives in its own column.
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}
