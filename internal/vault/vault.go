// Package vault adapts the ERC-4626 yield vault and its USDC token to Go calls.
package vault

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cleyfe/chaincare/internal/chain"
	"github.com/cleyfe/chaincare/internal/logger"
	"github.com/cleyfe/chaincare/internal/metrics"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrNoSigner          = errors.New("vault: no signer configured")
	ErrSignatureRejected = errors.New("vault: signature rejected")
	ErrInvalidAmount     = errors.New("vault: invalid amount")
	ErrReverted          = errors.New("vault: transaction reverted")
)

// Backend 链访问能力，由 ethclient.Client 实现
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// TxResult 已上链交易
type TxResult struct {
	Hash    common.Hash    `json:"hash"`
	Receipt *types.Receipt `json:"receipt"`
}

// GasEstimate 授权与存款的 gas 估算
type GasEstimate struct {
	Approval uint64 `json:"approval"`
	Deposit  uint64 `json:"deposit"`
	Total    uint64 `json:"total"`
}

// Vault 金库适配器
type Vault struct {
	backend   Backend
	signer    Signer
	vault     *bind.BoundContract
	token     *bind.BoundContract
	vaultABI  abi.ABI
	tokenABI  abi.ABI
	vaultAddr common.Address
	tokenAddr common.Address
	decimals  int32
	now       func() time.Time
}

// New 创建金库适配器，signer 为 nil 时只能执行只读调用
func New(backend Backend, signer Signer, vaultContract, tokenContract *chain.Contract, decimals int32) *Vault {
	return &Vault{
		backend:   backend,
		signer:    signer,
		vault:     bind.NewBoundContract(vaultContract.GetAddress(), vaultContract.GetABI(), backend, backend, backend),
		token:     bind.NewBoundContract(tokenContract.GetAddress(), tokenContract.GetABI(), backend, backend, backend),
		vaultABI:  vaultContract.GetABI(),
		tokenABI:  tokenContract.GetABI(),
		vaultAddr: vaultContract.GetAddress(),
		tokenAddr: tokenContract.GetAddress(),
		decimals:  decimals,
		now:       time.Now,
	}
}

// HasSigner 是否配置了签名器
func (v *Vault) HasSigner() bool {
	return v.signer != nil
}

func (v *Vault) Address() common.Address {
	return v.vaultAddr
}

// Deposit 存入 amount 资产，份额接收人为签名者
func (v *Vault) Deposit(ctx context.Context, amount string) (*TxResult, error) {
	if v.signer == nil {
		return nil, ErrNoSigner
	}
	assets, err := parsePositive(amount, v.decimals)
	if err != nil {
		return nil, err
	}
	return v.transact(ctx, v.vault, "deposit", assets, v.signer.Address())
}

// Withdraw 取出 amount 资产到签名者地址
func (v *Vault) Withdraw(ctx context.Context, amount string) (*TxResult, error) {
	if v.signer == nil {
		return nil, ErrNoSigner
	}
	assets, err := parsePositive(amount, v.decimals)
	if err != nil {
		return nil, err
	}
	owner := v.signer.Address()
	return v.transact(ctx, v.vault, "withdraw", assets, owner, owner)
}

// Approve 直接调用代币 approve 授权金库
func (v *Vault) Approve(ctx context.Context, amount string) (*TxResult, error) {
	if v.signer == nil {
		return nil, ErrNoSigner
	}
	value, err := parsePositive(amount, v.decimals)
	if err != nil {
		return nil, err
	}
	return v.transact(ctx, v.token, "approve", v.vaultAddr, value)
}

// Balance 金库份额余额
func (v *Vault) Balance(ctx context.Context, addr common.Address) (string, error) {
	return v.readFormatted(ctx, v.vault, "balanceOf", addr)
}

func (v *Vault) TotalAssets(ctx context.Context) (string, error) {
	return v.readFormatted(ctx, v.vault, "totalAssets")
}

func (v *Vault) MaxDeposit(ctx context.Context, addr common.Address) (string, error) {
	return v.readFormatted(ctx, v.vault, "maxDeposit", addr)
}

func (v *Vault) PricePerShare(ctx context.Context) (string, error) {
	return v.readFormatted(ctx, v.vault, "getPricePerShare")
}

// Allowance 代币对金库的授权额度
func (v *Vault) Allowance(ctx context.Context, owner common.Address) (string, error) {
	return v.readFormatted(ctx, v.token, "allowance", owner, v.vaultAddr)
}

// EstimateGas 估算 approve 与 deposit 的 gas，from 为零地址时使用签名者地址
func (v *Vault) EstimateGas(ctx context.Context, from common.Address, amount string) (*GasEstimate, error) {
	if from == (common.Address{}) {
		if v.signer == nil {
			return nil, ErrNoSigner
		}
		from = v.signer.Address()
	}
	assets, err := parsePositive(amount, v.decimals)
	if err != nil {
		return nil, err
	}

	approveData, err := v.tokenABI.Pack("approve", v.vaultAddr, assets)
	if err != nil {
		return nil, err
	}
	approval, err := v.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &v.tokenAddr, Data: approveData})
	if err != nil {
		return nil, fmt.Errorf("estimate approve: %w", err)
	}

	depositData, err := v.vaultABI.Pack("deposit", assets, from)
	if err != nil {
		return nil, err
	}
	deposit, err := v.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &v.vaultAddr, Data: depositData})
	if err != nil {
		return nil, fmt.Errorf("estimate deposit: %w", err)
	}

	return &GasEstimate{Approval: approval, Deposit: deposit, Total: approval + deposit}, nil
}

func (v *Vault) readFormatted(ctx context.Context, c *bind.BoundContract, method string, args ...interface{}) (string, error) {
	n, err := v.callUint(ctx, c, method, args...)
	if err != nil {
		return "", err
	}
	return FormatUnits(n, v.decimals), nil
}

func (v *Vault) callUint(ctx context.Context, c *bind.BoundContract, method string, args ...interface{}) (*big.Int, error) {
	var out []interface{}
	if err := c.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("call %s: expected 1 result, got %d", method, len(out))
	}
	n, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("call %s: unexpected result type %T", method, out[0])
	}
	return n, nil
}

func (v *Vault) transact(ctx context.Context, c *bind.BoundContract, method string, args ...interface{}) (result *TxResult, err error) {
	defer func() { metrics.RecordVaultTransaction(method, err) }()

	opts, err := v.signer.TransactOpts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureRejected, err)
	}
	opts.Context = ctx

	tx, err := c.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", method, err)
	}
	logger.Info("Submitted vault %s transaction %s from %s", method, tx.Hash().Hex(), opts.From.Hex())

	result = &TxResult{Hash: tx.Hash()}
	receipt, err := bind.WaitMined(ctx, v.backend, tx)
	if err != nil {
		return result, fmt.Errorf("wait for %s %s: %w", method, tx.Hash().Hex(), err)
	}
	result.Receipt = receipt
	if receipt.Status != types.ReceiptStatusSuccessful {
		return result, fmt.Errorf("%w: %s %s", ErrReverted, method, tx.Hash().Hex())
	}

	logger.Info("Vault %s transaction %s mined in block %s", method, tx.Hash().Hex(), receipt.BlockNumber)
	return result, nil
}
