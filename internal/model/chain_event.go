package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChainEventModel 金库合约链上事件，(tx_hash, log_index) 唯一
type ChainEventModel struct {
	Id              int64           `json:"id" gorm:"primaryKey"`
	CreatedAt       time.Time       `json:"createdAt"`
	ContractAddress string          `json:"contractAddress" gorm:"not null"`
	EventName       string          `json:"eventName" gorm:"not null;index"`
	TxHash          string          `json:"txHash" gorm:"not null;uniqueIndex:uk_tx_log"`
	LogIndex        int64           `json:"logIndex" gorm:"not null;uniqueIndex:uk_tx_log"`
	BlockNum        int64           `json:"blockNum" gorm:"not null;index"`
	WalletAddress   string          `json:"walletAddress" gorm:"index"`
	Assets          decimal.Decimal `json:"assets" gorm:"type:numeric"`
	Shares          decimal.Decimal `json:"shares" gorm:"type:numeric"`
	Data            string          `json:"data" gorm:"type:text"`
}

// TableName 自定义表名
func (ChainEventModel) TableName() string {
	return "chain_event"
}

// MonitorCursorModel 事件监控进度，BlockNum 及之前的区块已完整处理
type MonitorCursorModel struct {
	Name      string    `json:"name" gorm:"primaryKey"`
	BlockNum  int64     `json:"blockNum" gorm:"not null"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName 自定义表名
func (MonitorCursorModel) TableName() string {
	return "monitor_cursor"
}
