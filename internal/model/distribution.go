package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DistributionModel 收益分发记录
type DistributionModel struct {
	Id               int64           `json:"id" gorm:"primaryKey"`
	ProjectId        int64           `json:"projectId" gorm:"not null;index"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:numeric;not null"`
	RecipientAddress string          `json:"recipientAddress" gorm:"not null"`
	TxHash           string          `json:"txHash" gorm:"column:tx_hash;not null"`
	Timestamp        time.Time       `json:"timestamp" gorm:"autoCreateTime;index"`
	Status           string          `json:"status" gorm:"not null"`

	Project *ProjectModel `json:"-" gorm:"foreignKey:ProjectId"`
}

// TableName 自定义表名
func (DistributionModel) TableName() string {
	return "distributions"
}
