package monitor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/cleyfe/chaincare/internal/chain"
	"github.com/cleyfe/chaincare/internal/config"
	"github.com/cleyfe/chaincare/internal/database"
	"github.com/cleyfe/chaincare/internal/logic"
	"github.com/cleyfe/chaincare/internal/model"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	vaultAddr = common.HexToAddress("0x45aa96f0b3188d47a1dafdbefce1db6b37f58216")
	alice     = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
)

type fakeSource struct {
	mu      sync.Mutex
	head    uint64
	logs    []types.Log
	err     error
	queries []ethereum.FilterQuery
}

func (f *fakeSource) BlockNumber(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.head, nil
}

func (f *fakeSource) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	var out []types.Log
	for _, l := range f.logs {
		if l.BlockNumber >= q.FromBlock.Uint64() && l.BlockNumber <= q.ToBlock.Uint64() {
			out = append(out, l)
		}
	}
	return out, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := database.Open(sqlite.Open(dsn), "error")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func vaultContract(t *testing.T) *chain.Contract {
	t.Helper()
	c, err := chain.NewContract(chain.VaultContract,
		config.ContractConfig{Address: vaultAddr.Hex(), Enabled: true, BlockNum: 1},
		config.ChainConfig{ChainId: 8453})
	require.NoError(t, err)
	return c
}

func vaultLog(t *testing.T, c *chain.Contract, name string, block uint64, txHash common.Hash, assets, shares int64) types.Log {
	t.Helper()
	event := c.GetABI().Events[name]
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(assets), big.NewInt(shares))
	require.NoError(t, err)

	topics := []common.Hash{event.ID, common.BytesToHash(alice.Bytes()), common.BytesToHash(alice.Bytes())}
	if name == logic.EventWithdraw {
		topics = append(topics, common.BytesToHash(alice.Bytes()))
	}
	return types.Log{
		Address:     vaultAddr,
		Topics:      topics,
		Data:        data,
		BlockNumber: block,
		TxHash:      txHash,
	}
}

func newMonitor(t *testing.T, db *gorm.DB, source *fakeSource) *EventMonitor {
	t.Helper()
	m, err := NewEventMonitor(source, []*chain.Contract{vaultContract(t)}, logic.NewEventLogic(db), Options{
		BatchSize:     10,
		Workers:       2,
		Confirmations: 2,
		Decimals:      6,
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func auditTypes(t *testing.T, db *gorm.DB) []string {
	t.Helper()
	var out []string
	require.NoError(t, db.Model(&model.AuditTrailModel{}).Order("tx_hash").Pluck("event_type", &out).Error)
	return out
}

func TestPollRecordsVaultEventsOnce(t *testing.T) {
	db := newTestDB(t)
	c := vaultContract(t)
	recorded := common.HexToHash("0x01")
	require.NoError(t, db.Create(&model.DepositModel{
		WalletAddress: alice.Hex(),
		Amount:        decimal.NewFromInt(250),
		TxHash:        recorded.Hex(),
	}).Error)

	source := &fakeSource{
		head: 30,
		logs: []types.Log{
			vaultLog(t, c, logic.EventDeposit, 5, recorded, 250_000_000, 245_000_000),
			vaultLog(t, c, logic.EventDeposit, 12, common.HexToHash("0x02"), 1_500_000, 1_470_000),
			vaultLog(t, c, logic.EventWithdraw, 25, common.HexToHash("0x03"), 1_000_000, 980_000),
			vaultLog(t, c, logic.EventDeposit, 29, common.HexToHash("0x04"), 2_000_000, 1_960_000),
		},
	}
	m := newMonitor(t, db, source)
	ctx := context.Background()

	stored, err := m.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stored)
	// blocks 1-28 in batches of 10
	require.Len(t, source.queries, 3)
	assert.Equal(t, int64(28), source.queries[2].ToBlock.Int64())

	assert.Equal(t, []string{model.AuditVaultDeposit, model.AuditVaultDepositUnrecorded, model.AuditVaultWithdraw}, auditTypes(t, db))

	var first model.ChainEventModel
	require.NoError(t, db.Where("block_num = ?", 5).First(&first).Error)
	assert.Equal(t, alice.Hex(), first.WalletAddress)
	assert.True(t, first.Assets.Equal(decimal.NewFromInt(250)), first.Assets.String())
	assert.True(t, first.Shares.Equal(decimal.NewFromInt(245_000_000)))

	// the deposit row itself is never touched
	var deposits int64
	require.NoError(t, db.Model(&model.DepositModel{}).Count(&deposits).Error)
	assert.Equal(t, int64(1), deposits)

	stored, err = m.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stored)

	source.mu.Lock()
	source.head = 31
	source.mu.Unlock()
	stored, err = m.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	var events int64
	require.NoError(t, db.Model(&model.ChainEventModel{}).Count(&events).Error)
	assert.Equal(t, int64(4), events)
}

func TestPollResumesFromSavedCursor(t *testing.T) {
	db := newTestDB(t)
	c := vaultContract(t)
	source := &fakeSource{
		head: 22,
		logs: []types.Log{vaultLog(t, c, logic.EventDeposit, 15, common.HexToHash("0x0f"), 1_000_000, 1_000_000)},
	}

	_, err := newMonitor(t, db, source).Poll(context.Background())
	require.NoError(t, err)

	// a restarted monitor continues after the last confirmed block, not after the last event
	source.mu.Lock()
	source.queries = nil
	source.head = 30
	source.mu.Unlock()
	_, err = newMonitor(t, db, source).Poll(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, source.queries)
	assert.Equal(t, int64(21), source.queries[0].FromBlock.Int64())
}

func TestRestartRetriesPartiallyStoredBatch(t *testing.T) {
	db := newTestDB(t)
	c := vaultContract(t)
	broken := types.Log{
		Address:     vaultAddr,
		Topics:      []common.Hash{c.GetABI().Events[logic.EventDeposit].ID},
		BlockNumber: 12,
		TxHash:      common.HexToHash("0x0c"),
	}
	source := &fakeSource{
		head: 22,
		logs: []types.Log{
			vaultLog(t, c, logic.EventDeposit, 5, common.HexToHash("0x05"), 1_000_000, 1_000_000),
			broken,
			vaultLog(t, c, logic.EventDeposit, 18, common.HexToHash("0x12"), 1_000_000, 1_000_000),
		},
	}

	// blocks 11-20 fail on the log at block 12 while block 18 is already stored
	_, err := newMonitor(t, db, source).Poll(context.Background())
	require.Error(t, err)

	var later int64
	require.NoError(t, db.Model(&model.ChainEventModel{}).Where("block_num = ?", 18).Count(&later).Error)
	assert.Equal(t, int64(1), later)

	source.mu.Lock()
	source.queries = nil
	source.mu.Unlock()
	_, _ = newMonitor(t, db, source).Poll(context.Background())
	require.NotEmpty(t, source.queries)
	assert.Equal(t, int64(11), source.queries[0].FromBlock.Int64())
}

func TestPollBacksOffAfterFailure(t *testing.T) {
	db := newTestDB(t)
	source := &fakeSource{head: 12, err: errors.New("429 Too Many Requests")}
	m := newMonitor(t, db, source)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_, err := m.Poll(context.Background())
	require.Error(t, err)
	assert.Len(t, source.queries, 1)

	// still backing off, the source is not queried
	_, err = m.Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, source.queries, 1)

	source.err = nil
	now = now.Add(6 * time.Minute)
	_, err = m.Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, source.queries, 2)
	assert.Equal(t, int64(1), source.queries[1].FromBlock.Int64(), "failed batch is retried")
	assert.Equal(t, 0, m.GetStatus()["retry_count"])
}

func TestNewEventMonitorRequiresContracts(t *testing.T) {
	_, err := NewEventMonitor(&fakeSource{}, nil, nil, Options{})
	assert.Error(t, err)
}
