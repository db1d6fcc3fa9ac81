package logic

import (
	"context"
	"fmt"
	"testing"

	"github.com/cleyfe/chaincare/internal/database"
	"github.com/cleyfe/chaincare/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// per-test in-memory database; one connection so transactions serialize
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := database.Open(sqlite.Open(dsn), "error")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func rewardRow(t *testing.T, db *gorm.DB, wallet string) model.RewardPointsModel {
	t.Helper()
	var row model.RewardPointsModel
	require.NoError(t, db.Where("wallet_address = ?", wallet).First(&row).Error)
	return row
}

func mustDeposit(t *testing.T, l *DepositLogic, wallet, amount string) *model.DepositModel {
	t.Helper()
	d, err := l.CreateDeposit(context.Background(), CreateDepositInput{WalletAddress: wallet, Amount: amount, TxHash: "0x" + amount})
	require.NoError(t, err)
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
