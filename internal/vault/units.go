package vault

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// USDCDecimals 稳定币精度
const USDCDecimals = 6

// 金额范围：超出范围的指数会让 decimal 运算生成海量位数
const (
	maxAmountLen    = 80 // 字符串长度上限
	maxAmountDigits = 30 // 整数部分位数上限
	maxAmountScale  = 36 // 指数下限，允许末尾补零
)

// CheckAmount 在任何运算之前校验金额的指数、整数位数与小数位数
func CheckAmount(d decimal.Decimal, decimals int32) error {
	exp := d.Exponent()
	if exp < -maxAmountScale || exp > maxAmountDigits {
		return fmt.Errorf("%w: exponent %d out of range", ErrInvalidAmount, exp)
	}
	if int64(d.NumDigits())+int64(exp) > maxAmountDigits {
		return fmt.Errorf("%w: more than %d integer digits", ErrInvalidAmount, maxAmountDigits)
	}
	if !d.Equal(d.Truncate(decimals)) {
		return fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, decimals)
	}
	return nil
}

// ParseAmount 解析十进制金额字符串并校验范围
func ParseAmount(amount string, decimals int32) (decimal.Decimal, error) {
	s := strings.TrimSpace(amount)
	if s == "" || len(s) > maxAmountLen {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if err := CheckAmount(d, decimals); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ParseUnits 将十进制金额转换为链上定点整数，小数位超过 decimals 时报错
func ParseUnits(amount string, decimals int32) (*big.Int, error) {
	d, err := ParseAmount(amount, decimals)
	if err != nil {
		return nil, err
	}
	return d.Shift(decimals).BigInt(), nil
}

// FormatUnits 将链上定点整数格式化为十进制字符串
func FormatUnits(value *big.Int, decimals int32) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -decimals).String()
}

func parsePositive(amount string, decimals int32) (*big.Int, error) {
	v, err := ParseUnits(amount, decimals)
	if err != nil {
		return nil, err
	}
	if v.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %q must be positive", ErrInvalidAmount, amount)
	}
	return v, nil
}
