package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepositModel 金库存款记录，由客户端在链上交易确认后提交
type DepositModel struct {
	Id            int64           `json:"id" gorm:"primaryKey"`
	WalletAddress string          `json:"walletAddress" gorm:"column:wallet_address;not null;index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric;not null"`
	Timestamp     time.Time       `json:"timestamp" gorm:"autoCreateTime;index"`
	TxHash        string          `json:"txHash" gorm:"column:tx_hash;not null"`
}

// TableName 自定义表名
func (DepositModel) TableName() string {
	return "vault_deposits"
}
