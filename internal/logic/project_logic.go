package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/cleyfe/chaincare/internal/model"
	"gorm.io/gorm"
)

// ProjectLogic 项目业务逻辑
type ProjectLogic struct {
	db *gorm.DB
}

// NewProjectLogic 创建项目业务逻辑
func NewProjectLogic(db *gorm.DB) *ProjectLogic {
	return &ProjectLogic{db: db}
}

// GetActiveProjects 获取进行中的项目
func (p *ProjectLogic) GetActiveProjects(ctx context.Context) ([]model.ProjectModel, error) {
	projects := make([]model.ProjectModel, 0)
	if err := p.db.WithContext(ctx).
		Where("status = ?", model.ProjectStatusActive).
		Order("id ASC").
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("获取项目列表失败: %w", err)
	}
	return projects, nil
}

// GetProject 获取项目详情
func (p *ProjectLogic) GetProject(ctx context.Context, id int64) (*model.ProjectModel, error) {
	var project model.ProjectModel
	if err := p.db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("获取项目详情失败: %w", err)
	}
	return &project, nil
}
