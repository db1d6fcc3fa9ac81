package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/cleyfe/chaincare/internal/config"
	"github.com/cleyfe/chaincare/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Contract 合约工具类
type Contract struct {
	address  common.Address // 合约地址
	abi      abi.ABI        // 合约ABI
	name     string         // 合约名称
	blockNum int64          // 监控起始区块号
	chainId  int64          // 链ID
}

// Event 解析后的事件日志
type Event struct {
	Name        string
	Contract    string
	TxHash      common.Hash
	BlockNumber uint64
	LogIndex    uint
	Args        map[string]interface{}
}

// NewContract 创建合约实例，abi_path 为空时使用内置 ABI
func NewContract(name string, contractCfg config.ContractConfig, chainCfg config.ChainConfig) (*Contract, error) {
	parsedABI, err := loadABI(name, contractCfg.ABIPath)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(contractCfg.Address) {
		return nil, fmt.Errorf("invalid address %q for contract %s", contractCfg.Address, name)
	}

	return &Contract{
		address:  common.HexToAddress(contractCfg.Address),
		abi:      parsedABI,
		name:     name,
		blockNum: contractCfg.BlockNum,
		chainId:  chainCfg.ChainId,
	}, nil
}

// NewContractFromABI 直接使用 ABI JSON 创建合约实例
func NewContractFromABI(name string, address common.Address, abiJSON string, chainId int64) (*Contract, error) {
	parsedABI, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI for %s: %w", name, err)
	}
	return &Contract{address: address, abi: parsedABI, name: name, chainId: chainId}, nil
}

func loadABI(name, path string) (abi.ABI, error) {
	if path == "" {
		raw, ok := builtinABI(name)
		if !ok {
			return abi.ABI{}, fmt.Errorf("no abi_path configured and no built-in ABI for contract %s", name)
		}
		return abi.JSON(strings.NewReader(raw))
	}

	abiData, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to load ABI from %s: %w", path, err)
	}

	// 兼容完整的编译输出文件 {"abi": [...]}
	var compiledOutput struct {
		ABI json.RawMessage `json:"abi"`
	}
	if err := json.Unmarshal(abiData, &compiledOutput); err == nil && compiledOutput.ABI != nil {
		parsed, err := abi.JSON(bytes.NewReader(compiledOutput.ABI))
		if err != nil {
			return abi.ABI{}, fmt.Errorf("failed to parse ABI from compiled output: %w", err)
		}
		return parsed, nil
	}

	parsed, err := abi.JSON(bytes.NewReader(abiData))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return parsed, nil
}

// GetAddress 获取合约地址
func (c *Contract) GetAddress() common.Address {
	return c.address
}

// GetABI 获取合约ABI
func (c *Contract) GetABI() abi.ABI {
	return c.abi
}

// GetName 获取合约名称
func (c *Contract) GetName() string {
	return c.name
}

// GetBlockNum 获取监控起始区块号
func (c *Contract) GetBlockNum() int64 {
	return c.blockNum
}

// GetChainId 获取链ID
func (c *Contract) GetChainId() int64 {
	return c.chainId
}

// ParseEvent 解析事件日志，未知事件返回 Name 为 "Unknown" 的结果
func (c *Contract) ParseEvent(log types.Log) (*Event, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("log %s#%d has no topics", log.TxHash.Hex(), log.Index)
	}

	result := &Event{
		Contract:    c.name,
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
		LogIndex:    log.Index,
		Args:        make(map[string]interface{}),
	}

	event, err := c.abi.EventByID(log.Topics[0])
	if err != nil {
		logger.Warn("Unknown event signature: %s in contract %s", log.Topics[0].Hex(), c.name)
		result.Name = "Unknown"
		return result, nil
	}
	result.Name = event.Name

	// 索引参数按出现顺序对应 Topics[1:]
	topic := 1
	for _, input := range event.Inputs {
		if !input.Indexed {
			continue
		}
		if topic >= len(log.Topics) {
			return nil, fmt.Errorf("event %s: missing topic for indexed argument %s", event.Name, input.Name)
		}
		result.Args[input.Name] = parseTopicValue(log.Topics[topic], input.Type)
		topic++
	}

	nonIndexed := event.Inputs.NonIndexed()
	if len(nonIndexed) > 0 {
		values, err := nonIndexed.Unpack(log.Data)
		if err != nil {
			return nil, fmt.Errorf("event %s: failed to unpack data: %w", event.Name, err)
		}
		for i, input := range nonIndexed {
			result.Args[input.Name] = values[i]
		}
	}

	return result, nil
}

func parseTopicValue(topic common.Hash, t abi.Type) interface{} {
	switch t.T {
	case abi.UintTy:
		return new(big.Int).SetBytes(topic.Bytes())
	case abi.IntTy:
		v := new(big.Int).SetBytes(topic.Bytes())
		if topic[0]&0x80 != 0 {
			v.Sub(v, new(big.Int).Lsh(big.NewInt(1), 256))
		}
		return v
	case abi.AddressTy:
		return common.BytesToAddress(topic.Bytes())
	case abi.BoolTy:
		return topic[common.HashLength-1] != 0
	default:
		// 动态类型只保留哈希
		return topic
	}
}

// Address 从事件参数中读取地址
func (e *Event) Address(name string) (common.Address, bool) {
	v, ok := e.Args[name].(common.Address)
	return v, ok
}

// BigInt 从事件参数中读取整数
func (e *Event) BigInt(name string) (*big.Int, bool) {
	v, ok := e.Args[name].(*big.Int)
	return v, ok
}
