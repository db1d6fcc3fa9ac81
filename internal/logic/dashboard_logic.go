package logic

import (
	"context"
	"errors"

	"github.com/cleyfe/chaincare/internal/model"
)

// Dashboard 钱包的积分、成就与存款
type Dashboard struct {
	WalletAddress string               `json:"walletAddress"`
	Rewards       *Rewards             `json:"rewards"`
	Achievements  []AchievementStatus  `json:"achievements"`
	Deposits      []model.DepositModel `json:"deposits"`
}

// DashboardLogic 组合积分、成就与存款查询
type DashboardLogic struct {
	rewards      *RewardsLogic
	achievements *AchievementLogic
	deposits     *DepositLogic
}

func NewDashboardLogic(rewards *RewardsLogic, achievements *AchievementLogic, deposits *DepositLogic) *DashboardLogic {
	return &DashboardLogic{rewards: rewards, achievements: achievements, deposits: deposits}
}

// GetDashboard 没有积分记录时 Rewards 为 nil
func (d *DashboardLogic) GetDashboard(ctx context.Context, wallet string) (*Dashboard, error) {
	rewards, err := d.rewards.GetRewards(ctx, wallet)
	if err != nil && !errors.Is(err, ErrRewardsNotFound) {
		return nil, err
	}
	achievements, err := d.achievements.GetUserAchievements(ctx, wallet)
	if err != nil {
		return nil, err
	}
	deposits, err := d.deposits.GetDepositsByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		WalletAddress: wallet,
		Rewards:       rewards,
		Achievements:  achievements,
		Deposits:      deposits,
	}, nil
}
