package model

import (
	"time"
)

// 审计事件类型
const (
	AuditDepositRecorded        = "deposit_recorded"
	AuditPointsReconciled       = "points_reconciled"
	AuditAchievementEarned      = "achievement_earned"
	AuditVaultDeposit           = "vault_deposit"
	AuditVaultDepositUnrecorded = "vault_deposit_unrecorded"
	AuditVaultWithdraw          = "vault_withdraw"
)

// AuditTrailModel 通用审计日志，只追加
type AuditTrailModel struct {
	Id            int64     `json:"id" gorm:"primaryKey"`
	EventType     string    `json:"eventType" gorm:"not null;index"`
	Details       string    `json:"details" gorm:"type:text;not null"`
	Timestamp     time.Time `json:"timestamp" gorm:"autoCreateTime;index"`
	TxHash        *string   `json:"txHash" gorm:"column:tx_hash"`
	WalletAddress *string   `json:"walletAddress" gorm:"column:wallet_address"`
}

// TableName 自定义表名
func (AuditTrailModel) TableName() string {
	return "audit_trail"
}
