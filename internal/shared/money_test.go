package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := map[string]Money{
		"0":       0,
		"12":      1200,
		"12.5":    1250,
		"12.05":   1205,
		".99":     99,
		"1999.99": 199999,
	}
	for raw, want := range cases {
		got, err := ParseMoney(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestParseMoneyRejectsMalformedInput(t *testing.T) {
	for _, raw := range []string{"", "abc", "1.234", "1.", "1,50", "1.-5"} {
		_, err := ParseMoney(raw)
		require.ErrorIs(t, err, ErrValidation, raw)
	}
}

func TestMoneyAccumulatesWithoutDrift(t *testing.T) {
	price, err := ParseMoney("0.10")
	require.NoError(t, err)
	var total Money
	for i := 0; i < 1000; i++ {
		total += price.Mul(3)
	}
	assert.Equal(t, Money(30000), total)
	assert.Equal(t, "300.00", total.String())
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "0.00", Money(0).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-1.50", Money(-150).String())
}
