package model

import (
	"time"
)

// AchievementModel 成就目录
type AchievementModel struct {
	Id             int64  `json:"id" gorm:"primaryKey"`
	Name           string `json:"name" gorm:"not null;uniqueIndex"`
	Description    string `json:"description" gorm:"type:text;not null"`
	Image          string `json:"image"`
	Criteria       string `json:"criteria" gorm:"type:text"`
	PointsRequired int64  `json:"pointsRequired" gorm:"not null;index"`
}

// TableName 自定义表名
func (AchievementModel) TableName() string {
	return "achievements"
}

// UserAchievementModel 用户已解锁的成就，(user_id, achievement_id) 唯一
type UserAchievementModel struct {
	Id            int64     `json:"id" gorm:"primaryKey"`
	UserId        string    `json:"userId" gorm:"not null;uniqueIndex:uk_user_achievement"`
	AchievementId int64     `json:"achievementId" gorm:"not null;uniqueIndex:uk_user_achievement"`
	EarnedAt      time.Time `json:"earnedAt" gorm:"autoCreateTime"`

	Achievement *AchievementModel `json:"achievement,omitempty" gorm:"foreignKey:AchievementId"`
}

// TableName 自定义表名
func (UserAchievementModel) TableName() string {
	return "user_achievements"
}
