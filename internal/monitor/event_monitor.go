package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cleyfe/chaincare/internal/chain"
	"github.com/cleyfe/chaincare/internal/logger"
	"github.com/cleyfe/chaincare/internal/logic"
	"github.com/cleyfe/chaincare/internal/metrics"
	"github.com/cleyfe/chaincare/internal/model"
	"github.com/cleyfe/chaincare/internal/vault"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
)

// Options 监控参数
type Options struct {
	BatchSize     int64         // 每批区块数
	Workers       int           // 协程池大小
	Confirmations int64         // 确认块数，只处理到 最新区块 - Confirmations
	Decimals      int32         // 资产精度
	BatchDelay    time.Duration // 批次间隔，避免 RPC 限流
}

// cursorName 监控进度记录名
const cursorName = "vault_events"

// EventMonitor 金库事件监控器
type EventMonitor struct {
	block     *chain.Block
	contracts map[common.Address]*chain.Contract
	events    *logic.EventLogic
	pool      *ants.Pool
	opts      Options

	mu           sync.Mutex // 保护 nextBlock 与退避状态
	nextBlock    int64
	retryCount   int
	backoffUntil time.Time
	now          func() time.Time
}

// NewEventMonitor 创建事件监控器
func NewEventMonitor(source chain.LogSource, contracts []*chain.Contract, events *logic.EventLogic, opts Options) (*EventMonitor, error) {
	if len(contracts) == 0 {
		return nil, errors.New("no contracts available for monitoring")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create monitor pool: %w", err)
	}

	byAddress := make(map[common.Address]*chain.Contract, len(contracts))
	for _, c := range contracts {
		byAddress[c.GetAddress()] = c
	}

	return &EventMonitor{
		block:     chain.NewBlock(source),
		contracts: byAddress,
		events:    events,
		pool:      pool,
		opts:      opts,
		now:       time.Now,
	}, nil
}

// Close 释放协程池
func (m *EventMonitor) Close() {
	m.pool.Release()
}

// Poll 处理上次位置到已确认区块之间的日志，返回新保存的事件数
func (m *EventMonitor) Poll(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.now().Before(m.backoffUntil) {
		logger.Debug("Monitor backing off until %s", m.backoffUntil.Format(time.RFC3339))
		return 0, nil
	}

	current, err := m.block.GetCurrentBlockNumber(ctx)
	if err != nil {
		m.handleError(err)
		return 0, fmt.Errorf("failed to get current block number: %w", err)
	}
	safe := current - m.opts.Confirmations
	if safe < 0 {
		return 0, nil
	}

	if m.nextBlock == 0 {
		start, err := m.startBlock(ctx, safe)
		if err != nil {
			m.handleError(err)
			return 0, err
		}
		m.nextBlock = start
		logger.Info("Starting monitor from block %d", start)
	}

	stored, err := m.processBlocksInBatches(ctx, m.nextBlock, safe)
	if err != nil {
		m.handleError(err)
		return stored, err
	}
	m.retryCount = 0
	return stored, nil
}

// startBlock 从保存的进度之后继续；没有进度时从最早的合约部署区块开始，都没有时从当前已确认区块开始
func (m *EventMonitor) startBlock(ctx context.Context, safe int64) (int64, error) {
	minDeployBlock := int64(-1)
	for _, c := range m.contracts {
		if minDeployBlock < 0 || c.GetBlockNum() < minDeployBlock {
			minDeployBlock = c.GetBlockNum()
		}
	}

	cursor, ok, err := m.events.GetCursor(ctx, cursorName)
	if err != nil {
		return 0, err
	}

	switch {
	case ok && cursor+1 >= minDeployBlock:
		return cursor + 1, nil
	case minDeployBlock > 0:
		return minDeployBlock, nil
	default:
		return safe, nil
	}
}

// processBlocksInBatches 分批处理区块，失败的批次不推进位置
func (m *EventMonitor) processBlocksInBatches(ctx context.Context, fromBlock, toBlock int64) (int, error) {
	total := 0
	for currentFrom := fromBlock; currentFrom <= toBlock; currentFrom += m.opts.BatchSize {
		currentTo := currentFrom + m.opts.BatchSize - 1
		if currentTo > toBlock {
			currentTo = toBlock
		}

		stored, err := m.processBatchBlocks(ctx, currentFrom, currentTo)
		total += stored
		if err != nil {
			return total, fmt.Errorf("blocks %d-%d: %w", currentFrom, currentTo, err)
		}

		if err := m.events.SaveCursor(ctx, cursorName, currentTo); err != nil {
			return total, err
		}
		m.nextBlock = currentTo + 1
		metrics.SetMonitorBlock(currentTo)

		if m.opts.BatchDelay > 0 && currentTo < toBlock {
			select {
			case <-ctx.Done():
				return total, ctx.Err()
			case <-time.After(m.opts.BatchDelay):
			}
		}
	}
	return total, nil
}

// processBatchBlocks 获取一批区块的日志并并发保存
func (m *EventMonitor) processBatchBlocks(ctx context.Context, fromBlock, toBlock int64) (int, error) {
	addresses := m.deployedContracts(toBlock)
	if len(addresses) == 0 {
		return 0, nil
	}

	logs, err := m.block.GetBatchBlockLogs(ctx, addresses, fromBlock, toBlock)
	if err != nil {
		return 0, fmt.Errorf("error getting logs: %w", err)
	}
	if len(logs) == 0 {
		return 0, nil
	}
	logger.Debug("Found %d logs for blocks %d-%d", len(logs), fromBlock, toBlock)

	var (
		wg       sync.WaitGroup
		resultMu sync.Mutex
		stored   int
		firstErr error
	)
	for _, log := range logs {
		log := log
		contract := m.contracts[log.Address]
		if contract == nil {
			logger.Warn("Unknown contract address: %s", log.Address.Hex())
			continue
		}

		wg.Add(1)
		err := m.pool.Submit(func() {
			defer wg.Done()
			created, err := m.processLog(ctx, contract, log)

			resultMu.Lock()
			defer resultMu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = err
			}
			if created {
				stored++
			}
		})
		if err != nil {
			wg.Done()
			resultMu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to submit task to pool: %w", err)
			}
			resultMu.Unlock()
		}
	}
	wg.Wait()

	return stored, firstErr
}

// processLog 解析并保存单条日志；未知事件忽略
func (m *EventMonitor) processLog(ctx context.Context, contract *chain.Contract, log types.Log) (bool, error) {
	parsed, err := contract.ParseEvent(log)
	if err != nil {
		return false, err
	}
	if parsed.Name != logic.EventDeposit && parsed.Name != logic.EventWithdraw {
		metrics.RecordMonitorEvent("ignored")
		return false, nil
	}

	event, err := m.toModel(contract, parsed, log)
	if err != nil {
		return false, err
	}
	created, err := m.events.RecordVaultEvent(ctx, event)
	if err != nil {
		return false, err
	}
	if created {
		metrics.RecordMonitorEvent(parsed.Name)
		logger.Info("Recorded %s event %s#%d at block %d", parsed.Name, event.TxHash, event.LogIndex, event.BlockNum)
	}
	return created, nil
}

func (m *EventMonitor) toModel(contract *chain.Contract, parsed *chain.Event, log types.Log) (*model.ChainEventModel, error) {
	owner, ok := parsed.Address("owner")
	if !ok {
		return nil, fmt.Errorf("event %s: missing owner", parsed.Name)
	}
	assets, ok := parsed.BigInt("assets")
	if !ok {
		return nil, fmt.Errorf("event %s: missing assets", parsed.Name)
	}
	shares, ok := parsed.BigInt("shares")
	if !ok {
		return nil, fmt.Errorf("event %s: missing shares", parsed.Name)
	}

	data, err := json.Marshal(parsed.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data to JSON: %w", err)
	}

	return &model.ChainEventModel{
		ContractAddress: contract.GetAddress().Hex(),
		EventName:       parsed.Name,
		TxHash:          log.TxHash.Hex(),
		LogIndex:        int64(log.Index),
		BlockNum:        int64(log.BlockNumber),
		WalletAddress:   owner.Hex(),
		Assets:          decimal.RequireFromString(vault.FormatUnits(assets, m.opts.Decimals)),
		Shares:          decimal.NewFromBigInt(shares, 0),
		Data:            string(data),
	}, nil
}

// deployedContracts 已部署到 toBlock 的合约地址
func (m *EventMonitor) deployedContracts(toBlock int64) []common.Address {
	addresses := make([]common.Address, 0, len(m.contracts))
	for addr, c := range m.contracts {
		if toBlock < c.GetBlockNum() {
			continue
		}
		addresses = append(addresses, addr)
	}
	return addresses
}

// handleError 记录失败并按重试次数退避，限流错误直接退避到上限
func (m *EventMonitor) handleError(err error) {
	m.retryCount++

	backoff := time.Duration(m.retryCount) * 10 * time.Second
	if m.retryCount > 5 || isAPIRateLimitError(err) {
		backoff = 5 * time.Minute
	}
	m.backoffUntil = m.now().Add(backoff)

	logger.Error("Monitor encountered error (retry %d, backoff %s): %v", m.retryCount, backoff, err)
}

// GetStatus 获取监控状态
func (m *EventMonitor) GetStatus() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]interface{}{
		"next_block":     m.nextBlock,
		"contract_count": len(m.contracts),
		"retry_count":    m.retryCount,
		"pool_running":   m.pool.Running(),
		"pool_cap":       m.pool.Cap(),
	}
}

func isAPIRateLimitError(err error) bool {
	return strings.Contains(err.Error(), "Too Many Requests") || strings.Contains(err.Error(), "429")
}
