package model

import (
	"time"
)

// UserModel 用户名密码登录的账户
type UserModel struct {
	Id            int64     `json:"id" gorm:"primaryKey"`
	Username      string    `json:"username" gorm:"not null;uniqueIndex"`
	PasswordHash  string    `json:"-" gorm:"not null"`
	WalletAddress string    `json:"walletAddress"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TableName 自定义表名
func (UserModel) TableName() string {
	return "users"
}
