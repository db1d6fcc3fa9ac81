package vault

import (
	"github.com/shopspring/decimal"
)

// Impact 一年期收益模拟，收益在存款人与人道主义项目间对半分配
type Impact struct {
	Amount          decimal.Decimal `json:"amount"`
	APY             float64         `json:"apy"`
	YearlyYield     decimal.Decimal `json:"yearlyYield"`
	DepositorReturn decimal.Decimal `json:"depositorReturn"`
	ImpactFunding   decimal.Decimal `json:"estimatedImpact"`
}

var two = decimal.NewFromInt(2)

// SimulateImpact 计算 amount 在给定 APY 下的年度收益分配
func SimulateImpact(amount decimal.Decimal, apy float64) Impact {
	yearly := amount.Mul(decimal.NewFromFloat(apy)).Div(decimal.NewFromInt(100))
	half := yearly.Div(two)
	return Impact{
		Amount:          amount,
		APY:             apy,
		YearlyYield:     yearly,
		DepositorReturn: half,
		ImpactFunding:   yearly.Sub(half),
	}
}
