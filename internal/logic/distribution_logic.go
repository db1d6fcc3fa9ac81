package logic

import (
	"context"
	"fmt"

	"github.com/cleyfe/chaincare/internal/model"
	"gorm.io/gorm"
)

// DistributionLogic 分发记录业务逻辑
type DistributionLogic struct {
	db *gorm.DB
}

func NewDistributionLogic(db *gorm.DB) *DistributionLogic {
	return &DistributionLogic{db: db}
}

// GetDistributions 获取全部分发记录，最新在前
func (d *DistributionLogic) GetDistributions(ctx context.Context) ([]model.DistributionModel, error) {
	distributions := make([]model.DistributionModel, 0)
	if err := d.db.WithContext(ctx).Order("timestamp DESC").Order("id DESC").Find(&distributions).Error; err != nil {
		return nil, fmt.Errorf("获取分发列表失败: %w", err)
	}
	return distributions, nil
}
