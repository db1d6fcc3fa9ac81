package logic

import (
	"context"
	"fmt"

	"github.com/cleyfe/chaincare/internal/model"
	"gorm.io/gorm"
)

const auditLimit = 100

// AuditLogic 审计日志业务逻辑
type AuditLogic struct {
	db *gorm.DB
}

func NewAuditLogic(db *gorm.DB) *AuditLogic {
	return &AuditLogic{db: db}
}

// GetLatest 获取最近 100 条审计记录
func (a *AuditLogic) GetLatest(ctx context.Context) ([]model.AuditTrailModel, error) {
	entries := make([]model.AuditTrailModel, 0, auditLimit)
	if err := a.db.WithContext(ctx).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(auditLimit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("获取审计记录失败: %w", err)
	}
	return entries, nil
}
