package handler

import (
	"time"

	"github.com/cleyfe/chaincare/internal/model"
	"github.com/shopspring/decimal"
)

// ErrorBody 错误响应结构
type ErrorBody struct {
	Message string `json:"message"`
}

// CreateDepositRequest 记录存款请求，兼容 accountId / transactionId 旧字段名
type CreateDepositRequest struct {
	WalletAddress string          `json:"walletAddress"`
	AccountId     string          `json:"accountId"`
	Amount        decimal.Decimal `json:"amount"`
	TxHash        string          `json:"txHash"`
	TransactionId string          `json:"transactionId"`
}

func (r CreateDepositRequest) wallet() string {
	if r.WalletAddress != "" {
		return r.WalletAddress
	}
	return r.AccountId
}

func (r CreateDepositRequest) txHash() string {
	if r.TxHash != "" {
		return r.TxHash
	}
	return r.TransactionId
}

// CheckAchievementsRequest 成就检查请求
type CheckAchievementsRequest struct {
	WalletAddress string          `json:"walletAddress" binding:"required"`
	DepositAmount decimal.Decimal `json:"depositAmount"`
}

// CheckAchievementsResponse 成就检查响应，没有新成就时 newAchievement 为 null
type CheckAchievementsResponse struct {
	Success        bool                    `json:"success"`
	NewAchievement *model.AchievementModel `json:"newAchievement"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username      string `json:"username" binding:"required"`
	Password      string `json:"password" binding:"required"`
	WalletAddress string `json:"walletAddress"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse 登录成功响应
type SessionResponse struct {
	User      *model.UserModel `json:"user,omitempty"`
	Wallet    string           `json:"walletAddress,omitempty"`
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

// NonceRequest 钱包登录 nonce 请求
type NonceRequest struct {
	Address string `json:"address" binding:"required"`
}

// NonceResponse 待签名消息
type NonceResponse struct {
	Message string `json:"message"`
}

// WalletLoginRequest 钱包签名登录请求
type WalletLoginRequest struct {
	Address   string `json:"address" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// VaultAmountRequest 服务端金库操作请求
type VaultAmountRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// VaultValueResponse 金库读数
type VaultValueResponse struct {
	Value string `json:"value"`
}

// APYResponse 当前收益率
type APYResponse struct {
	APY float64 `json:"apy"`
}
