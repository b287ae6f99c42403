package valueobject

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd(t *testing.T, amount string) Money {
	t.Helper()
	m, err := FromDecimal(USD, amount)
	require.NoError(t, err)
	return m
}

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestFromDecimal(t *testing.T) {
	tests := []struct {
		name     string
		currency Currency
		input    string
		want     string
	}{
		{"two places kept", USD, "123.45", "123.45"},
		{"truncates extra places", USD, "10.999", "10.99"},
		{"negative truncates toward zero", USD, "-10.999", "-10.99"},
		{"zero-decimal currency", JPY, "1500.9", "1500"},
		{"three-decimal currency", KWD, "1.23456", "1.234"},
		{"pads on output", EUR, "7", "7.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := FromDecimal(tt.currency, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.ToDecimal())
			assert.Equal(t, tt.currency, m.Currency())
		})
	}

	t.Run("invalid string", func(t *testing.T) {
		_, err := FromDecimal(USD, "not-a-number")
		assert.Error(t, err)
	})
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(12345), usd(t, "123.45").MinorUnits())
	assert.Equal(t, int64(-500), usd(t, "-5").MinorUnits())

	m, err := NewMoneyFromMinor(1999, USD)
	require.NoError(t, err)
	assert.Equal(t, "19.99", m.ToDecimal())

	yen, err := NewMoneyFromMinor(1999, JPY)
	require.NoError(t, err)
	assert.Equal(t, "1999", yen.ToDecimal())
}

func TestZero(t *testing.T) {
	m := Zero(USD)
	assert.True(t, m.IsZero())
	assert.False(t, m.IsPositive())
	assert.Equal(t, USD, m.Currency())
}

func TestMoney_Arithmetic(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		sum, err := usd(t, "100.10").Add(usd(t, "0.90"))
		require.NoError(t, err)
		assert.Equal(t, "101.00", sum.ToDecimal())
	})

	t.Run("subtract", func(t *testing.T) {
		diff, err := usd(t, "100").Subtract(usd(t, "100.01"))
		require.NoError(t, err)
		assert.Equal(t, "-0.01", diff.ToDecimal())
		assert.True(t, diff.IsNegative())
	})

	t.Run("immutability", func(t *testing.T) {
		a := usd(t, "5")
		_, err := a.Add(usd(t, "1"))
		require.NoError(t, err)
		assert.Equal(t, "5.00", a.ToDecimal())
	})

	t.Run("sum", func(t *testing.T) {
		total, err := Sum(USD, usd(t, "1.25"), usd(t, "2.50"), usd(t, "0.25"))
		require.NoError(t, err)
		assert.Equal(t, "4.00", total.ToDecimal())
	})
}

func TestMoney_CurrencySafety(t *testing.T) {
	a := usd(t, "10")
	b, err := FromDecimal(EUR, "10")
	require.NoError(t, err)

	_, err = a.Add(b)
	assert.True(t, errors.Is(err, ErrCurrencyMismatch))

	_, err = a.Subtract(b)
	assert.True(t, errors.Is(err, ErrCurrencyMismatch))

	_, err = a.GreaterThan(b)
	assert.True(t, errors.Is(err, ErrCurrencyMismatch))

	_, err = Sum(USD, a, b)
	assert.True(t, errors.Is(err, ErrCurrencyMismatch))
}

func TestMoney_Comparison(t *testing.T) {
	gt, err := usd(t, "10.01").GreaterThan(usd(t, "10"))
	require.NoError(t, err)
	assert.True(t, gt)

	gte, err := usd(t, "10").GreaterThanOrEqual(usd(t, "10.00"))
	require.NoError(t, err)
	assert.True(t, gte)

	lt, err := usd(t, "9.99").LessThan(usd(t, "10"))
	require.NoError(t, err)
	assert.True(t, lt)

	assert.True(t, usd(t, "3").Equals(usd(t, "3.00")))
	assert.True(t, usd(t, "0.01").IsPositive())
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(usd(t, "42.5"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"42.50","currency":"USD"}`, string(data))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"1.239","currency":"USD"}`), &m))
	assert.Equal(t, "1.23", m.ToDecimal())
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" usd ")
	require.NoError(t, err)
	assert.Equal(t, USD, c)

	_, err = ParseCurrency("DOLLARS")
	assert.Error(t, err)
}

func TestMoney_SubMinorAmounts(t *testing.T) {
	yen, err := NewMoney(decimal.RequireFromString("10.5"), JPY)
	require.NoError(t, err)

	assert.False(t, yen.IsNormalized())
	assert.Equal(t, "10", yen.ToDecimal())
	assert.Equal(t, int64(10), yen.MinorUnits())

	t.Run("restate keeps representable amounts", func(t *testing.T) {
		m, err := usd(t, "10.00").Restate(JPY)
		require.NoError(t, err)
		assert.Equal(t, JPY, m.Currency())
		assert.Equal(t, "10", m.ToDecimal())
		assert.True(t, m.IsNormalized())
	})

	t.Run("restate rejects lost digits", func(t *testing.T) {
		_, err := usd(t, "10.50").Restate(JPY)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JPY")
	})

	t.Run("json round trip keeps every digit", func(t *testing.T) {
		data, err := json.Marshal(yen)
		require.NoError(t, err)
		assert.JSONEq(t, `{"amount":"10.5","currency":"JPY"}`, string(data))

		var back Money
		require.NoError(t, json.Unmarshal(data, &back))
		assert.True(t, back.Equals(yen))
		assert.True(t, back.Amount().Equal(yen.Amount()))
	})
}
