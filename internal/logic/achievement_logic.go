package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cleyfe/chaincare/internal/logger"
	"github.com/cleyfe/chaincare/internal/metrics"
	"github.com/cleyfe/chaincare/internal/model"
	"github.com/cleyfe/chaincare/internal/vault"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AchievementStatus 成就及其解锁状态
type AchievementStatus struct {
	model.AchievementModel
	IsEarned bool       `json:"isEarned"`
	EarnedAt *time.Time `json:"earnedAt"`
}

// AchievementLogic 成就业务逻辑
type AchievementLogic struct {
	db *gorm.DB
}

// NewAchievementLogic 创建成就业务逻辑
func NewAchievementLogic(db *gorm.DB) *AchievementLogic {
	return &AchievementLogic{db: db}
}

func (a *AchievementLogic) catalog(db *gorm.DB) ([]model.AchievementModel, error) {
	var achievements []model.AchievementModel
	if err := db.Order("points_required ASC").Order("id ASC").Find(&achievements).Error; err != nil {
		return nil, fmt.Errorf("获取成就目录失败: %w", err)
	}
	return achievements, nil
}

func (a *AchievementLogic) earned(db *gorm.DB, userId string) (map[int64]time.Time, error) {
	var rows []model.UserAchievementModel
	if err := db.Where("user_id = ?", userId).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("获取已解锁成就失败: %w", err)
	}
	earned := make(map[int64]time.Time, len(rows))
	for _, row := range rows {
		earned[row.AchievementId] = row.EarnedAt
	}
	return earned, nil
}

// CheckAchievements 以 当前积分 + depositAmount 计算，解锁第一个满足门槛且未获得的成就；
// 没有新成就时返回 nil
func (a *AchievementLogic) CheckAchievements(ctx context.Context, wallet string, depositAmount decimal.Decimal) (*model.AchievementModel, error) {
	if wallet == "" {
		return nil, ErrInvalidAddress
	}
	if err := vault.CheckAmount(depositAmount, vault.USDCDecimals); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if depositAmount.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, depositAmount)
	}
	db := a.db.WithContext(ctx)

	current := decimal.Zero
	var row model.RewardPointsModel
	if err := db.Where("wallet_address = ?", wallet).First(&row).Error; err == nil {
		current = row.Points
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("获取积分失败: %w", err)
	}
	total := current.Add(depositAmount)

	achievements, err := a.catalog(db)
	if err != nil {
		return nil, err
	}
	earned, err := a.earned(db, wallet)
	if err != nil {
		return nil, err
	}

	for i := range achievements {
		achievement := achievements[i]
		if _, ok := earned[achievement.Id]; ok {
			continue
		}
		if decimal.NewFromInt(achievement.PointsRequired).GreaterThan(total) {
			break
		}

		awarded, err := a.award(db, wallet, achievement)
		if err != nil {
			return nil, err
		}
		if awarded {
			metrics.RecordAchievement(achievement.Name)
			logger.Info("Wallet %s earned achievement %q", wallet, achievement.Name)
			return &achievement, nil
		}
	}
	return nil, nil
}

// award 插入解锁记录，(user_id, achievement_id) 冲突时返回 false
func (a *AchievementLogic) award(db *gorm.DB, wallet string, achievement model.AchievementModel) (bool, error) {
	awarded := false
	err := db.Transaction(func(tx *gorm.DB) error {
		ua := model.UserAchievementModel{UserId: wallet, AchievementId: achievement.Id}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).Create(&ua)
		if res.Error != nil {
			return fmt.Errorf("写入成就失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		awarded = true

		w := wallet
		audit := model.AuditTrailModel{
			EventType:     model.AuditAchievementEarned,
			Details:       fmt.Sprintf("Achievement %q earned", achievement.Name),
			WalletAddress: &w,
		}
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("写入审计失败: %w", err)
		}
		return nil
	})
	return awarded, err
}

// GetUserAchievements 获取成就目录并标记用户解锁状态
func (a *AchievementLogic) GetUserAchievements(ctx context.Context, userId string) ([]AchievementStatus, error) {
	db := a.db.WithContext(ctx)

	achievements, err := a.catalog(db)
	if err != nil {
		return nil, err
	}
	earned, err := a.earned(db, userId)
	if err != nil {
		return nil, err
	}

	result := make([]AchievementStatus, 0, len(achievements))
	for _, achievement := range achievements {
		status := AchievementStatus{AchievementModel: achievement}
		if at, ok := earned[achievement.Id]; ok {
			at := at
			status.IsEarned = true
			status.EarnedAt = &at
		}
		result = append(result, status)
	}
	return result, nil
}
