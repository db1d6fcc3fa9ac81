package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cleyfe/chaincare/internal/config"
	"github.com/cleyfe/chaincare/internal/logger"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Manager 单链管理器
type Manager struct {
	mu        sync.RWMutex
	contracts map[string]*Contract // 合约映射: "contractName" -> Contract
	client    *ethclient.Client
	config    config.ChainConfig
}

var supportedChainTypes = map[string]bool{
	"base":     true,
	"ethereum": true,
	"polygon":  true,
	"arbitrum": true,
	"optimism": true,
}

// NewManager 创建单链管理器，连接 RPC 并加载所有启用的合约
func NewManager(ctx context.Context, cfg config.ChainConfig) (*Manager, error) {
	contracts, err := LoadContracts(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize contracts: %w", err)
	}

	client, err := dial(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize client: %w", err)
	}

	logger.Info("Chain manager ready (type: %s, id: %d, contracts: %d)", cfg.ChainType, cfg.ChainId, len(contracts))
	return &Manager{contracts: contracts, client: client, config: cfg}, nil
}

// LoadContracts 加载所有启用的合约，不需要 RPC 连接
func LoadContracts(cfg config.ChainConfig) (map[string]*Contract, error) {
	contracts := make(map[string]*Contract)
	for name, contractCfg := range cfg.Contracts {
		if !contractCfg.Enabled {
			logger.Info("Skipping disabled contract: %s", name)
			continue
		}
		contract, err := NewContract(name, contractCfg, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create contract %s: %w", name, err)
		}
		contracts[name] = contract
		logger.Info("Loaded contract: %s (address: %s)", name, contract.GetAddress().Hex())
	}
	return contracts, nil
}

func dial(ctx context.Context, cfg config.ChainConfig) (*ethclient.Client, error) {
	if cfg.RpcUrl == "" {
		return nil, fmt.Errorf("no RPC URL configured")
	}
	if !supportedChainTypes[cfg.ChainType] {
		return nil, fmt.Errorf("unsupported chain type %s", cfg.ChainType)
	}

	logger.Info("Creating %s client connection (RPC: %s)", cfg.ChainType, cfg.RpcUrl)
	client, err := ethclient.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.ChainType, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	chainID, err := client.ChainID(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("client connection test failed (%s): %w", cfg.ChainType, err)
	}
	if cfg.ChainId != 0 && chainID.Int64() != cfg.ChainId {
		client.Close()
		return nil, fmt.Errorf("rpc reports chain id %s, configured %d", chainID, cfg.ChainId)
	}
	return client, nil
}

// GetClient 获取客户端
func (m *Manager) GetClient() *ethclient.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// GetContract 获取指定合约
func (m *Manager) GetContract(contractName string) (*Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	contract, exists := m.contracts[contractName]
	if !exists {
		return nil, fmt.Errorf("contract %s not found", contractName)
	}
	return contract, nil
}

// GetConfig 获取链配置
func (m *Manager) GetConfig() config.ChainConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// HealthStatus 获取健康状态
func (m *Manager) HealthStatus(ctx context.Context) map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	health := map[string]interface{}{
		"chain_type":    m.config.ChainType,
		"chain_id":      m.config.ChainId,
		"client_status": "connected",
	}

	if m.client == nil {
		health["client_status"] = "not_initialized"
	} else if n, err := m.client.BlockNumber(ctx); err != nil {
		health["client_status"] = "disconnected"
	} else {
		health["block_number"] = n
	}

	contracts := make(map[string]interface{}, len(m.contracts))
	for name, contract := range m.contracts {
		contracts[name] = contract.GetAddress().Hex()
	}
	health["contracts"] = contracts
	return health
}

// Close 关闭管理器
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		m.client.Close()
	}
	logger.Info("Chain manager closed")
	return nil
}
