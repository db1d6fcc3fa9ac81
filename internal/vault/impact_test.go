package vault

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSimulateImpactSplitsYieldEvenly(t *testing.T) {
	impact := SimulateImpact(decimal.NewFromInt(1000), 4.2)

	assert.True(t, decimal.NewFromInt(42).Equal(impact.YearlyYield), impact.YearlyYield.String())
	assert.True(t, decimal.NewFromInt(21).Equal(impact.DepositorReturn))
	assert.True(t, decimal.NewFromInt(21).Equal(impact.ImpactFunding))
	assert.True(t, impact.YearlyYield.Equal(impact.DepositorReturn.Add(impact.ImpactFunding)))
}

func TestSimulateImpactZeroAmount(t *testing.T) {
	impact := SimulateImpact(decimal.Zero, 7)
	assert.True(t, impact.YearlyYield.IsZero())
	assert.True(t, impact.ImpactFunding.IsZero())
}
