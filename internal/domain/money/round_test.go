package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docufact/docufact-api/internal/domain/money"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// Round2 redondea mitad alejándose de cero en ambos signos.
func TestRound2_MitadAlejandoseDeCero(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"-1.005", "-1.01"},
		{"2.675", "2.68"},
		{"0.004", "0.00"},
		{"0.005", "0.01"},
		{"10.994", "10.99"},
		{"10.995", "11.00"},
		{"-0.005", "-0.01"},
	}
	for _, tc := range cases {
		got := money.Round2(dec(t, tc.in))
		assert.True(t, dec(t, tc.want).Equal(got),
			"Round2(%s) = %s, se esperaba %s", tc.in, got, tc.want)
	}
}

// Redondear un valor ya redondeado no lo cambia.
func TestRound2_Idempotente(t *testing.T) {
	for _, s := range []string{"1.005", "99.994", "-3.335", "0"} {
		once := money.Round2(dec(t, s))
		twice := money.Round2(once)
		assert.True(t, once.Equal(twice), "Round2 debe ser idempotente para %s", s)
	}
}

func TestPercent(t *testing.T) {
	assert.True(t, dec(t, "0.2").Equal(money.Percent(dec(t, "20"))))
	assert.True(t, dec(t, "0.07").Equal(money.Percent(dec(t, "7"))))
	assert.True(t, decimal.Zero.Equal(money.Percent(decimal.Zero)))
}
