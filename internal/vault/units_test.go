package vault

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	v, err := ParseUnits("150.7", 6)
	require.NoError(t, err)
	assert.Equal(t, "150700000", v.String())

	v, err = ParseUnits(" 0.000001 ", 6)
	require.NoError(t, err)
	assert.Equal(t, "1", v.String())

	_, err = ParseUnits("0.0000001", 6)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseUnits("1,000", 6)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "0", FormatUnits(nil, 6))
	assert.Equal(t, "0.5", FormatUnits(big.NewInt(500_000), 6))
	assert.Equal(t, "1000000", FormatUnits(big.NewInt(1_000_000_000_000), 6))
}

func TestUnitsRoundTripAtSixDecimals(t *testing.T) {
	amounts := []string{
		"1", "0.1", "0.000001", "150.7", "999999.999999",
		"123456789.123456", "42.42", "100000000000000000000.5",
	}
	for _, amount := range amounts {
		scaled, err := ParseUnits(amount, 6)
		require.NoError(t, err, amount)

		back := FormatUnits(scaled, 6)
		assert.True(t, decimal.RequireFromString(amount).Equal(decimal.RequireFromString(back)), "%s -> %s", amount, back)

		again, err := ParseUnits(back, 6)
		require.NoError(t, err)
		assert.Equal(t, 0, scaled.Cmp(again), amount)
	}
}

func TestParseAmountRejectsExtremeExponents(t *testing.T) {
	for _, amount := range []string{"1e-10000000", "1e400", "1e31", "0e-100", "1e-7", "12345678901234567890123456789012"} {
		_, err := ParseAmount(amount, USDCDecimals)
		assert.ErrorIs(t, err, ErrInvalidAmount, amount)
	}

	d, err := ParseAmount("1.500000000", USDCDecimals)
	require.NoError(t, err)
	assert.Equal(t, "1.5", d.String())

	d, err = ParseAmount("1e3", USDCDecimals)
	require.NoError(t, err)
	assert.Equal(t, "1000", d.String())
}

func TestCheckAmountBoundsDecodedValues(t *testing.T) {
	assert.ErrorIs(t, CheckAmount(decimal.New(1, -10_000_000), USDCDecimals), ErrInvalidAmount)
	assert.ErrorIs(t, CheckAmount(decimal.New(1, 400), USDCDecimals), ErrInvalidAmount)
	assert.NoError(t, CheckAmount(decimal.RequireFromString("150.7"), USDCDecimals))
}
