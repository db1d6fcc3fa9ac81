package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RewardPointsModel 钱包积分，每个钱包一行
type RewardPointsModel struct {
	Id            int64           `json:"id" gorm:"primaryKey"`
	WalletAddress string          `json:"walletAddress" gorm:"column:wallet_address;not null;uniqueIndex"`
	Points        decimal.Decimal `json:"points" gorm:"type:numeric;not null;default:0"`
	Level         string          `json:"level" gorm:"not null;default:'Bronze'"`
	LastUpdated   time.Time       `json:"lastUpdated" gorm:"not null"`
}

// TableName 自定义表名
func (RewardPointsModel) TableName() string {
	return "reward_points"
}

// PointsHistoryModel 积分流水，只追加
type PointsHistoryModel struct {
	Id            int64           `json:"id" gorm:"primaryKey"`
	WalletAddress string          `json:"walletAddress" gorm:"column:wallet_address;not null;index"`
	Points        decimal.Decimal `json:"amount" gorm:"column:points;type:numeric;not null"`
	Reason        string          `json:"reason" gorm:"not null"`
	Timestamp     time.Time       `json:"timestamp" gorm:"autoCreateTime;index"`
	DepositId     int64           `json:"depositId" gorm:"column:investment_id;index"`

	Deposit *DepositModel `json:"-" gorm:"foreignKey:DepositId"`
}

// TableName 自定义表名
func (PointsHistoryModel) TableName() string {
	return "points_history"
}
