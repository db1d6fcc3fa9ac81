package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cleyfe/chaincare/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 金库事件名
const (
	EventDeposit  = "Deposit"
	EventWithdraw = "Withdraw"
)

// EventLogic 链上事件业务逻辑
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建事件业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// RecordVaultEvent 保存金库事件并追加审计记录；事件已存在时返回 false。
// Deposit 事件按交易哈希核对是否已有存款记录，只写审计，不修改存款
func (e *EventLogic) RecordVaultEvent(ctx context.Context, event *model.ChainEventModel) (bool, error) {
	if err := e.validateEvent(event); err != nil {
		return false, err
	}
	event.TxHash = strings.ToLower(event.TxHash)

	created := false
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tx_hash"}, {Name: "log_index"}},
			DoNothing: true,
		}).Create(event)
		if res.Error != nil {
			return fmt.Errorf("创建事件记录失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true

		audit, err := e.auditFor(tx, event)
		if err != nil {
			return err
		}
		if audit == nil {
			return nil
		}
		if err := tx.Create(audit).Error; err != nil {
			return fmt.Errorf("写入审计失败: %w", err)
		}
		return nil
	})
	return created, err
}

func (e *EventLogic) auditFor(tx *gorm.DB, event *model.ChainEventModel) (*model.AuditTrailModel, error) {
	txHash := event.TxHash
	wallet := event.WalletAddress
	audit := &model.AuditTrailModel{TxHash: &txHash, WalletAddress: &wallet}

	switch event.EventName {
	case EventDeposit:
		recorded, err := depositRecorded(tx, txHash)
		if err != nil {
			return nil, err
		}
		if recorded {
			audit.EventType = model.AuditVaultDeposit
			audit.Details = fmt.Sprintf("On-chain deposit of %s USDC (%s shares) matches a recorded deposit", event.Assets, event.Shares)
		} else {
			audit.EventType = model.AuditVaultDepositUnrecorded
			audit.Details = fmt.Sprintf("On-chain deposit of %s USDC (%s shares) has no recorded deposit", event.Assets, event.Shares)
		}
	case EventWithdraw:
		audit.EventType = model.AuditVaultWithdraw
		audit.Details = fmt.Sprintf("On-chain withdrawal of %s USDC (%s shares)", event.Assets, event.Shares)
	default:
		return nil, nil
	}
	return audit, nil
}

// GetCursor 读取监控进度，没有记录时 ok 为 false
func (e *EventLogic) GetCursor(ctx context.Context, name string) (block int64, ok bool, err error) {
	var cursor model.MonitorCursorModel
	if err := e.db.WithContext(ctx).Where("name = ?", name).First(&cursor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("获取监控进度失败: %w", err)
	}
	return cursor.BlockNum, true, nil
}

// SaveCursor 保存监控进度，只在整批区块处理成功后调用
func (e *EventLogic) SaveCursor(ctx context.Context, name string, block int64) error {
	cursor := model.MonitorCursorModel{Name: name, BlockNum: block}
	err := e.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"block_num", "updated_at"}),
	}).Create(&cursor).Error
	if err != nil {
		return fmt.Errorf("保存监控进度失败: %w", err)
	}
	return nil
}

// CheckEventExists 检查事件是否已存在
func (e *EventLogic) CheckEventExists(ctx context.Context, txHash string, logIndex int64) (bool, error) {
	var count int64
	err := e.db.WithContext(ctx).Model(&model.ChainEventModel{}).
		Where("tx_hash = ? AND log_index = ?", strings.ToLower(txHash), logIndex).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("检查事件是否存在失败: %w", err)
	}
	return count > 0, nil
}

// validateEvent 验证事件数据
func (e *EventLogic) validateEvent(event *model.ChainEventModel) error {
	if event.ContractAddress == "" {
		return errors.New("合约地址不能为空")
	}
	if event.EventName == "" {
		return errors.New("事件名称不能为空")
	}
	if event.TxHash == "" {
		return errors.New("交易哈希不能为空")
	}
	if event.BlockNum == 0 {
		return errors.New("区块号不能为空")
	}
	return nil
}
