package logic

import (
	"context"
	"testing"
	"time"

	"github.com/cleyfe/chaincare/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixedAPY float64

func (f fixedAPY) APY(context.Context) float64 { return float64(f) }

var statsNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func seedStats(t *testing.T, db *gorm.DB) {
	t.Helper()
	deposits := []model.DepositModel{
		{WalletAddress: "0xa", Amount: dec("1000"), TxHash: "0x1", Timestamp: statsNow.AddDate(0, -2, 0)},
		{WalletAddress: "0xb", Amount: dec("500"), TxHash: "0x2", Timestamp: statsNow.AddDate(0, -1, -1)},
		{WalletAddress: "0xa", Amount: dec("300"), TxHash: "0x3", Timestamp: statsNow.AddDate(0, 0, -3)},
	}
	require.NoError(t, db.Create(&deposits).Error)

	projects := []model.ProjectModel{
		{Name: "Water", Description: "Clean water", TargetAmount: dec("10000"), Status: model.ProjectStatusActive},
		{Name: "Schools", Description: "Rebuild schools", TargetAmount: dec("5000"), Status: model.ProjectStatusActive},
		{Name: "Clinic", Description: "Mobile clinic", TargetAmount: dec("2000"), Status: model.ProjectStatusCompleted},
	}
	require.NoError(t, db.Create(&projects).Error)

	distributions := []model.DistributionModel{
		{ProjectId: projects[0].Id, Amount: dec("25.5"), RecipientAddress: "0xr1", TxHash: "0xd1", Status: "completed"},
		{ProjectId: projects[1].Id, Amount: dec("10"), RecipientAddress: "0xr2", TxHash: "0xd2", Status: "completed"},
		{ProjectId: projects[0].Id, Amount: dec("4.5"), RecipientAddress: "0xr1", TxHash: "0xd3", Status: "pending"},
	}
	require.NoError(t, db.Create(&distributions).Error)
}

func TestGetStats(t *testing.T) {
	db := newTestDB(t)
	seedStats(t, db)
	stats := NewStatsLogic(db, nil)
	stats.now = func() time.Time { return statsNow }

	s, err := stats.GetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1800.0, s.TotalDeposits)
	// previous month total 1500 -> (1800-1500)/1500*100
	assert.InDelta(t, 20.0, s.DepositGrowth, 1e-9)
	assert.Equal(t, 2, s.ActiveProjects)
	assert.Equal(t, 1, s.CompletedProjects)
	assert.Equal(t, DefaultInterestRate, s.InterestRate)
	assert.InDelta(t, 72.0, s.TotalInterest, 1e-9)
	assert.Equal(t, 40.0, s.TotalDistributed)
	assert.Equal(t, 2, s.Beneficiaries)
}

func TestGetStatsUsesAPYProvider(t *testing.T) {
	db := newTestDB(t)
	seedStats(t, db)
	stats := NewStatsLogic(db, fixedAPY(5))
	stats.now = func() time.Time { return statsNow }

	s, err := stats.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5.0, s.InterestRate)
	assert.InDelta(t, 90.0, s.TotalInterest, 1e-9)
}

func TestGetStatsGrowthGuardedWithoutHistory(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&model.DepositModel{WalletAddress: "0xa", Amount: dec("50"), TxHash: "0x1"}).Error)

	s, err := NewStatsLogic(db, nil).GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50.0, s.TotalDeposits)
	assert.Zero(t, s.DepositGrowth)
	assert.Zero(t, s.Beneficiaries)
}

func TestGetStatsEmpty(t *testing.T) {
	s, err := NewStatsLogic(newTestDB(t), nil).GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Stats{InterestRate: DefaultInterestRate}, s)
}
