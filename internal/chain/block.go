package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// LogSource 区块号与日志查询能力，由 ethclient.Client 实现
type LogSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// Block 区块操作工具类
type Block struct {
	source LogSource
}

// NewBlock 创建区块工具类实例
func NewBlock(source LogSource) *Block {
	return &Block{source: source}
}

// GetBatchBlockLogs 批量获取区块区间 [fromBlock, toBlock] 内指定合约的日志
func (b *Block) GetBatchBlockLogs(ctx context.Context, contractAddresses []common.Address, fromBlock, toBlock int64) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: big.NewInt(fromBlock),
		ToBlock:   big.NewInt(toBlock),
		Addresses: contractAddresses,
	}
	return b.source.FilterLogs(ctx, query)
}

// GetCurrentBlockNumber 获取当前最新区块号
func (b *Block) GetCurrentBlockNumber(ctx context.Context) (int64, error) {
	n, err := b.source.BlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}
