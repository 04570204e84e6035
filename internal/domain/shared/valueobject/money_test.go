package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidChargeAmount(t *testing.T) {
	tests := []struct {
		amount string
		valid  bool
	}{
		{"25.50", true},
		{"0.01", true},
		{"100", true},
		{"0", false},
		{"-5.00", false},
		{"10.005", false},
		{"0.001", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidChargeAmount(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestNewChargeAmount(t *testing.T) {
	m, err := NewChargeAmount(decimal.RequireFromString("25.50"))
	require.NoError(t, err)
	assert.Equal(t, "25.50 USD", m.String())

	_, err = NewChargeAmount(decimal.Zero)
	assert.Error(t, err)

	_, err = NewChargeAmount(decimal.RequireFromString("1.005"))
	assert.Error(t, err)
}

func TestMoney_Arithmetic(t *testing.T) {
	a := NewMoneyUSD(decimal.RequireFromString("10.00"))
	b := NewMoneyUSD(decimal.RequireFromString("2.50"))

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Equals(NewMoneyUSD(decimal.RequireFromString("12.50"))))

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.True(t, diff.Equals(NewMoneyUSD(decimal.RequireFromString("7.50"))))

	eur, err := NewMoney(decimal.NewFromInt(1), EUR)
	require.NoError(t, err)
	_, err = a.Add(eur)
	assert.Error(t, err)
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := NewMoneyUSD(decimal.RequireFromString("25.5"))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"25.50","currency":"USD"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))
}

func TestMoney_UnmarshalDefaultsCurrency(t *testing.T) {
	var m Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"3.25"}`), &m))
	assert.Equal(t, USD, m.Currency())
}
