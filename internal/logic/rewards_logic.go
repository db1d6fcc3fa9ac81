package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cleyfe/chaincare/internal/logger"
	"github.com/cleyfe/chaincare/internal/metrics"
	"github.com/cleyfe/chaincare/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 等级
const (
	LevelBronze   = "Bronze"
	LevelSilver   = "Silver"
	LevelGold     = "Gold"
	LevelPlatinum = "Platinum"

	ReasonInvestment = "Investment made"
	historyLimit     = 10
)

var (
	silverThreshold   = decimal.NewFromInt(1000)
	goldThreshold     = decimal.NewFromInt(5000)
	platinumThreshold = decimal.NewFromInt(10000)
)

// LevelFor 根据积分计算等级
func LevelFor(points decimal.Decimal) string {
	switch {
	case points.GreaterThanOrEqual(platinumThreshold):
		return LevelPlatinum
	case points.GreaterThanOrEqual(goldThreshold):
		return LevelGold
	case points.GreaterThanOrEqual(silverThreshold):
		return LevelSilver
	default:
		return LevelBronze
	}
}

// Rewards 钱包积分及最近流水
type Rewards struct {
	Points      decimal.Decimal            `json:"points"`
	Level       string                     `json:"level"`
	LastUpdated time.Time                  `json:"lastUpdated"`
	History     []model.PointsHistoryModel `json:"history"`
}

// RewardsLogic 积分业务逻辑
type RewardsLogic struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRewardsLogic 创建积分业务逻辑
func NewRewardsLogic(db *gorm.DB) *RewardsLogic {
	return &RewardsLogic{db: db, now: time.Now}
}

// addPoints 在事务内原子累加积分、刷新等级并追加流水
func addPoints(tx *gorm.DB, wallet string, points decimal.Decimal, reason string, depositId int64, now time.Time) error {
	row := model.RewardPointsModel{
		WalletAddress: wallet,
		Points:        points,
		Level:         LevelFor(points),
		LastUpdated:   now,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "wallet_address"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"points":       gorm.Expr("reward_points.points + excluded.points"),
			"last_updated": gorm.Expr("excluded.last_updated"),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("更新积分失败: %w", err)
	}

	var current model.RewardPointsModel
	if err := tx.Where("wallet_address = ?", wallet).First(&current).Error; err != nil {
		return fmt.Errorf("读取积分失败: %w", err)
	}
	if level := LevelFor(current.Points); level != current.Level {
		if err := tx.Model(&current).Update("level", level).Error; err != nil {
			return fmt.Errorf("更新等级失败: %w", err)
		}
	}

	history := model.PointsHistoryModel{
		WalletAddress: wallet,
		Points:        points,
		Reason:        reason,
		Timestamp:     now,
		DepositId:     depositId,
	}
	if err := tx.Create(&history).Error; err != nil {
		return fmt.Errorf("创建积分流水失败: %w", err)
	}
	return nil
}

// GetRewards 获取钱包积分与最近 10 条流水
func (r *RewardsLogic) GetRewards(ctx context.Context, wallet string) (*Rewards, error) {
	db := r.db.WithContext(ctx)

	var row model.RewardPointsModel
	if err := db.Where("wallet_address = ?", wallet).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRewardsNotFound
		}
		return nil, fmt.Errorf("获取积分失败: %w", err)
	}

	history := make([]model.PointsHistoryModel, 0, historyLimit)
	if err := db.Where("wallet_address = ?", wallet).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(historyLimit).
		Find(&history).Error; err != nil {
		return nil, fmt.Errorf("获取积分流水失败: %w", err)
	}

	return &Rewards{
		Points:      row.Points,
		Level:       row.Level,
		LastUpdated: row.LastUpdated,
		History:     history,
	}, nil
}

type walletTotal struct {
	WalletAddress string
	Total         decimal.Decimal
}

// Reconcile 按流水重算每个钱包的积分，修复偏差并写审计，返回修复数量。
// 先粗筛出可能偏差的钱包，每个钱包再在事务内加锁重算
func (r *RewardsLogic) Reconcile(ctx context.Context) (int, error) {
	candidates, err := r.driftCandidates(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, wallet := range candidates {
		fixed, err := r.repair(ctx, wallet)
		if err != nil {
			return repaired, err
		}
		if fixed {
			repaired++
		}
	}
	return repaired, nil
}

// driftCandidates 积分行与流水合计不一致的钱包，结果仅用于筛选
func (r *RewardsLogic) driftCandidates(ctx context.Context) ([]string, error) {
	db := r.db.WithContext(ctx)

	var totals []walletTotal
	if err := db.Model(&model.PointsHistoryModel{}).
		Select("wallet_address, SUM(points) AS total").
		Group("wallet_address").
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("汇总积分流水失败: %w", err)
	}

	var rows []model.RewardPointsModel
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("获取积分列表失败: %w", err)
	}

	expected := make(map[string]decimal.Decimal, len(totals))
	for _, t := range totals {
		expected[t.WalletAddress] = t.Total
	}
	existing := make(map[string]model.RewardPointsModel, len(rows))
	for _, row := range rows {
		existing[row.WalletAddress] = row
		if _, ok := expected[row.WalletAddress]; !ok {
			expected[row.WalletAddress] = decimal.Zero
		}
	}

	var candidates []string
	for wallet, total := range expected {
		row, ok := existing[wallet]
		if ok && row.Points.Equal(total) && row.Level == LevelFor(total) {
			continue
		}
		candidates = append(candidates, wallet)
	}
	return candidates, nil
}

// repair 锁定积分行并在同一事务内重新汇总流水，仍有偏差时才写入，返回是否修复
func (r *RewardsLogic) repair(ctx context.Context, wallet string) (bool, error) {
	now := r.now()
	var before, total decimal.Decimal
	repaired := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row model.RewardPointsModel
		exists := true
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("wallet_address = ?", wallet).
			First(&row).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("锁定积分失败: %w", err)
			}
			exists = false
		}

		if err := tx.Model(&model.PointsHistoryModel{}).
			Select("COALESCE(SUM(points), 0)").
			Where("wallet_address = ?", wallet).
			Row().Scan(&total); err != nil {
			return fmt.Errorf("汇总积分流水失败: %w", err)
		}

		level := LevelFor(total)
		if exists && row.Points.Equal(total) && row.Level == level {
			return nil
		}
		before = row.Points

		if exists {
			if err := tx.Model(&model.RewardPointsModel{}).
				Where("wallet_address = ?", wallet).
				Updates(map[string]interface{}{
					"points":       total,
					"level":        level,
					"last_updated": now,
				}).Error; err != nil {
				return fmt.Errorf("修复积分失败: %w", err)
			}
		} else {
			row := model.RewardPointsModel{WalletAddress: wallet, Points: total, Level: level, LastUpdated: now}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("补建积分失败: %w", err)
			}
		}

		w := wallet
		audit := model.AuditTrailModel{
			EventType:     model.AuditPointsReconciled,
			Details:       fmt.Sprintf("Reward points for %s corrected from %s to %s", wallet, before, total),
			WalletAddress: &w,
		}
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("写入审计失败: %w", err)
		}
		repaired = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if repaired {
		metrics.RecordPointsRepair()
		logger.Warn("Reconciled reward points for %s: %s -> %s", wallet, before, total)
	}
	return repaired, nil
}
