package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectModel 人道主义项目
type ProjectModel struct {
	Id           int64           `json:"id" gorm:"primaryKey"`
	Name         string          `json:"name" gorm:"not null"`
	Description  string          `json:"description" gorm:"type:text;not null"`
	TargetAmount decimal.Decimal `json:"targetAmount" gorm:"type:numeric;not null"`
	// RaisedAmount 由外部流程维护，不从存款或分发记录推导
	RaisedAmount decimal.Decimal `json:"raisedAmount" gorm:"type:numeric;not null;default:0"`
	Status       ProjectStatus   `json:"status" gorm:"not null;default:'active';index"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"    // 进行中
	ProjectStatusCompleted ProjectStatus = "completed" // 已完成
)

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "projects"
}
