package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/cleyfe/chaincare/internal/vault"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// VaultService 金库适配器能力，由 *vault.Vault 实现
type VaultService interface {
	HasSigner() bool
	TotalAssets(ctx context.Context) (string, error)
	PricePerShare(ctx context.Context) (string, error)
	Balance(ctx context.Context, addr common.Address) (string, error)
	MaxDeposit(ctx context.Context, addr common.Address) (string, error)
	Allowance(ctx context.Context, owner common.Address) (string, error)
	EstimateGas(ctx context.Context, from common.Address, amount string) (*vault.GasEstimate, error)
	Deposit(ctx context.Context, amount string) (*vault.TxResult, error)
	Withdraw(ctx context.Context, amount string) (*vault.TxResult, error)
	Approve(ctx context.Context, amount string) (*vault.TxResult, error)
	ApproveWithPermit(ctx context.Context, amount string) (*vault.TxResult, error)
}

// VaultHandler 金库读数与服务端金库操作；vault 为 nil 表示未配置链
type VaultHandler struct {
	vault VaultService
	apy   vault.APYProvider
}

func NewVaultHandler(v VaultService, apy vault.APYProvider) *VaultHandler {
	return &VaultHandler{vault: v, apy: apy}
}

func (h *VaultHandler) currentAPY(c *gin.Context) float64 {
	if h.apy == nil {
		return vault.DefaultAPY
	}
	return h.apy.APY(c.Request.Context())
}

// GetAPY 当前收益率，数据源不可用时为回退值
func (h *VaultHandler) GetAPY(c *gin.Context) {
	c.JSON(http.StatusOK, APYResponse{APY: h.currentAPY(c)})
}

// GetImpact 模拟一年期收益分配
func (h *VaultHandler) GetImpact(c *gin.Context) {
	amount, err := vault.ParseAmount(c.Query("amount"), vault.USDCDecimals)
	if err != nil || amount.IsNegative() {
		ErrorResponse(c, http.StatusBadRequest, "Invalid amount")
		return
	}
	c.JSON(http.StatusOK, vault.SimulateImpact(amount, h.currentAPY(c)))
}

func (h *VaultHandler) available(c *gin.Context) bool {
	if h.vault == nil {
		ErrorResponse(c, http.StatusServiceUnavailable, "Vault is not configured")
		return false
	}
	return true
}

func (h *VaultHandler) address(c *gin.Context) (common.Address, bool) {
	addr := c.Param("address")
	if !common.IsHexAddress(addr) {
		ErrorResponse(c, http.StatusBadRequest, "Invalid address")
		return common.Address{}, false
	}
	return common.HexToAddress(addr), true
}

func (h *VaultHandler) respondValue(c *gin.Context, value string, err error) {
	if err != nil {
		chainError(c, err)
		return
	}
	c.JSON(http.StatusOK, VaultValueResponse{Value: value})
}

func (h *VaultHandler) GetTotalAssets(c *gin.Context) {
	if !h.available(c) {
		return
	}
	value, err := h.vault.TotalAssets(c.Request.Context())
	h.respondValue(c, value, err)
}

func (h *VaultHandler) GetPricePerShare(c *gin.Context) {
	if !h.available(c) {
		return
	}
	value, err := h.vault.PricePerShare(c.Request.Context())
	h.respondValue(c, value, err)
}

// GetBalance 地址持有的金库份额
func (h *VaultHandler) GetBalance(c *gin.Context) {
	if !h.available(c) {
		return
	}
	addr, ok := h.address(c)
	if !ok {
		return
	}
	value, err := h.vault.Balance(c.Request.Context(), addr)
	h.respondValue(c, value, err)
}

func (h *VaultHandler) GetMaxDeposit(c *gin.Context) {
	if !h.available(c) {
		return
	}
	addr, ok := h.address(c)
	if !ok {
		return
	}
	value, err := h.vault.MaxDeposit(c.Request.Context(), addr)
	h.respondValue(c, value, err)
}

// GetAllowance 地址授权给金库的代币额度
func (h *VaultHandler) GetAllowance(c *gin.Context) {
	if !h.available(c) {
		return
	}
	addr, ok := h.address(c)
	if !ok {
		return
	}
	value, err := h.vault.Allowance(c.Request.Context(), addr)
	h.respondValue(c, value, err)
}

// GetGasEstimate 估算 approve + deposit 的 gas，from 为空时使用服务端签名者
func (h *VaultHandler) GetGasEstimate(c *gin.Context) {
	if !h.available(c) {
		return
	}
	var from common.Address
	if raw := c.Query("from"); raw != "" {
		if !common.IsHexAddress(raw) {
			ErrorResponse(c, http.StatusBadRequest, "Invalid address")
			return
		}
		from = common.HexToAddress(raw)
	}

	estimate, err := h.vault.EstimateGas(c.Request.Context(), from, c.Query("amount"))
	if err != nil {
		chainError(c, err)
		return
	}
	c.JSON(http.StatusOK, estimate)
}

func (h *VaultHandler) signerReady(c *gin.Context) bool {
	if !h.available(c) {
		return false
	}
	if !h.vault.HasSigner() {
		ErrorResponse(c, http.StatusServiceUnavailable, "Server signer is not configured")
		return false
	}
	return true
}

func (h *VaultHandler) operate(c *gin.Context, op func(ctx context.Context, amount string) (*vault.TxResult, error)) {
	var req VaultAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Amount is required")
		return
	}

	result, err := op(c.Request.Context(), req.Amount)
	if err != nil {
		chainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *VaultHandler) Deposit(c *gin.Context) {
	if h.signerReady(c) {
		h.operate(c, h.vault.Deposit)
	}
}

func (h *VaultHandler) Withdraw(c *gin.Context) {
	if h.signerReady(c) {
		h.operate(c, h.vault.Withdraw)
	}
}

// Approve 以普通 approve 交易授权金库，用于不支持 permit 的代币
func (h *VaultHandler) Approve(c *gin.Context) {
	if h.signerReady(c) {
		h.operate(c, h.vault.Approve)
	}
}

// Permit 以 EIP-2612 签名授权金库使用代币
func (h *VaultHandler) Permit(c *gin.Context) {
	if h.signerReady(c) {
		h.operate(c, h.vault.ApproveWithPermit)
	}
}

// chainError 链上错误原样返回给调用方
func chainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, vault.ErrInvalidAmount):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, vault.ErrNoSigner):
		ErrorResponse(c, http.StatusServiceUnavailable, err.Error())
	default:
		_ = c.Error(err)
		ErrorResponse(c, http.StatusBadGateway, err.Error())
	}
}
