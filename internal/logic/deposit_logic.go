package logic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cleyfe/chaincare/internal/logger"
	"github.com/cleyfe/chaincare/internal/metrics"
	"github.com/cleyfe/chaincare/internal/model"
	"github.com/cleyfe/chaincare/internal/vault"
	"gorm.io/gorm"
)

// CreateDepositInput 存款记录请求
type CreateDepositInput struct {
	WalletAddress string
	Amount        string
	TxHash        string
}

// DepositLogic 存款业务逻辑
type DepositLogic struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDepositLogic 创建存款业务逻辑
func NewDepositLogic(db *gorm.DB) *DepositLogic {
	return &DepositLogic{db: db, now: time.Now}
}

// CreateDeposit 记录存款并在同一事务内累加积分 (floor(amount))、追加积分流水和审计
func (d *DepositLogic) CreateDeposit(ctx context.Context, in CreateDepositInput) (*model.DepositModel, error) {
	wallet := strings.TrimSpace(in.WalletAddress)
	if wallet == "" {
		return nil, ErrInvalidAddress
	}
	txHash := strings.TrimSpace(in.TxHash)
	if txHash == "" {
		return nil, ErrMissingTxHash
	}
	amount, err := vault.ParseAmount(in.Amount, vault.USDCDecimals)
	if err != nil || !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, in.Amount)
	}

	deposit := &model.DepositModel{
		WalletAddress: wallet,
		Amount:        amount,
		TxHash:        txHash,
	}
	points := amount.Floor()
	now := d.now()

	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(deposit).Error; err != nil {
			return fmt.Errorf("创建存款记录失败: %w", err)
		}
		if err := addPoints(tx, wallet, points, ReasonInvestment, deposit.Id, now); err != nil {
			return err
		}
		audit := model.AuditTrailModel{
			EventType:     model.AuditDepositRecorded,
			Details:       fmt.Sprintf("Deposit of %s USDC recorded, %s points awarded", amount, points),
			TxHash:        &txHash,
			WalletAddress: &wallet,
		}
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("写入审计失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordDeposit(points.InexactFloat64())
	logger.Info("Recorded deposit %d: %s USDC from %s (tx %s)", deposit.Id, amount, wallet, txHash)
	return deposit, nil
}

// GetDeposits 获取全部存款记录，最新在前
func (d *DepositLogic) GetDeposits(ctx context.Context) ([]model.DepositModel, error) {
	deposits := make([]model.DepositModel, 0)
	if err := d.db.WithContext(ctx).Order("timestamp DESC").Order("id DESC").Find(&deposits).Error; err != nil {
		return nil, fmt.Errorf("获取存款列表失败: %w", err)
	}
	return deposits, nil
}

// GetDepositsByWallet 获取钱包的存款记录，最新在前
func (d *DepositLogic) GetDepositsByWallet(ctx context.Context, wallet string) ([]model.DepositModel, error) {
	deposits := make([]model.DepositModel, 0)
	if err := d.db.WithContext(ctx).
		Where("wallet_address = ?", wallet).
		Order("timestamp DESC").
		Order("id DESC").
		Find(&deposits).Error; err != nil {
		return nil, fmt.Errorf("获取钱包存款失败: %w", err)
	}
	return deposits, nil
}

// depositRecorded 是否存在该交易的存款记录，交易哈希不区分大小写
func depositRecorded(db *gorm.DB, txHash string) (bool, error) {
	var count int64
	if err := db.Model(&model.DepositModel{}).
		Where("LOWER(tx_hash) = ?", strings.ToLower(txHash)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("查询存款记录失败: %w", err)
	}
	return count > 0, nil
}
