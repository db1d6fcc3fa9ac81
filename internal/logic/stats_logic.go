package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/cleyfe/chaincare/internal/model"
	"github.com/cleyfe/chaincare/internal/vault"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultInterestRate 没有 APY 来源时使用的年化利率
const DefaultInterestRate = 4.0

var hundred = decimal.NewFromInt(100)

// Stats 平台统计
type Stats struct {
	TotalDeposits     float64 `json:"totalDeposits"`
	DepositGrowth     float64 `json:"depositGrowth"`
	ActiveProjects    int     `json:"activeProjects"`
	CompletedProjects int     `json:"completedProjects"`
	TotalInterest     float64 `json:"totalInterest"`
	InterestRate      float64 `json:"interestRate"`
	TotalDistributed  float64 `json:"totalDistributed"`
	Beneficiaries     int     `json:"beneficiaries"`
}

// StatsLogic 统计业务逻辑
type StatsLogic struct {
	db  *gorm.DB
	apy vault.APYProvider
	now func() time.Time
}

// NewStatsLogic 创建统计业务逻辑，apy 为 nil 时利率固定为 4
func NewStatsLogic(db *gorm.DB, apy vault.APYProvider) *StatsLogic {
	return &StatsLogic{db: db, apy: apy, now: time.Now}
}

// GetStats 汇总存款、项目与分发数据
func (s *StatsLogic) GetStats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)

	var deposits []model.DepositModel
	if err := db.Find(&deposits).Error; err != nil {
		return nil, fmt.Errorf("获取存款列表失败: %w", err)
	}
	var projects []model.ProjectModel
	if err := db.Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("获取项目列表失败: %w", err)
	}
	var distributions []model.DistributionModel
	if err := db.Find(&distributions).Error; err != nil {
		return nil, fmt.Errorf("获取分发列表失败: %w", err)
	}

	cutoff := s.now().AddDate(0, -1, 0)
	total, previous := decimal.Zero, decimal.Zero
	for _, d := range deposits {
		total = total.Add(d.Amount)
		if d.Timestamp.Before(cutoff) {
			previous = previous.Add(d.Amount)
		}
	}

	growth := decimal.Zero
	if !previous.IsZero() {
		growth = total.Sub(previous).Div(previous).Mul(hundred)
	}

	stats := &Stats{
		TotalDeposits: total.InexactFloat64(),
		DepositGrowth: growth.InexactFloat64(),
	}

	for _, p := range projects {
		switch p.Status {
		case model.ProjectStatusActive:
			stats.ActiveProjects++
		case model.ProjectStatusCompleted:
			stats.CompletedProjects++
		}
	}

	rate := DefaultInterestRate
	if s.apy != nil {
		rate = s.apy.APY(ctx)
	}
	stats.InterestRate = rate
	stats.TotalInterest = total.Mul(decimal.NewFromFloat(rate)).Div(hundred).InexactFloat64()

	distributed := decimal.Zero
	recipients := make(map[string]struct{})
	for _, d := range distributions {
		distributed = distributed.Add(d.Amount)
		recipients[d.RecipientAddress] = struct{}{}
	}
	stats.TotalDistributed = distributed.InexactFloat64()
	stats.Beneficiaries = len(recipients)

	return stats, nil
}
