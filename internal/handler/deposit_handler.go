package handler

import (
	"errors"
	"net/http"

	"github.com/cleyfe/chaincare/internal/logic"
	"github.com/cleyfe/chaincare/internal/vault"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DepositHandler struct {
	depositLogic *logic.DepositLogic
}

func NewDepositHandler(db *gorm.DB) *DepositHandler {
	return &DepositHandler{
		depositLogic: logic.NewDepositLogic(db),
	}
}

// GetDeposits 存款列表，最新在前
func (h *DepositHandler) GetDeposits(c *gin.Context) {
	deposits, err := h.depositLogic.GetDeposits(c.Request.Context())
	if err != nil {
		InternalError(c, "Failed to fetch deposits", err)
		return
	}
	c.JSON(http.StatusOK, deposits)
}

// CreateDeposit 记录一笔已上链的存款并累加积分
func (h *DepositHandler) CreateDeposit(c *gin.Context) {
	var req CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid deposit data")
		return
	}

	// 先限定范围，再格式化金额
	if err := vault.CheckAmount(req.Amount, vault.USDCDecimals); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid amount")
		return
	}

	deposit, err := h.depositLogic.CreateDeposit(c.Request.Context(), logic.CreateDepositInput{
		WalletAddress: req.wallet(),
		Amount:        req.Amount.String(),
		TxHash:        req.txHash(),
	})
	if err != nil {
		switch {
		case errors.Is(err, logic.ErrInvalidAmount),
			errors.Is(err, logic.ErrInvalidAddress),
			errors.Is(err, logic.ErrMissingTxHash):
			ErrorResponse(c, http.StatusBadRequest, err.Error())
		default:
			InternalError(c, "Failed to create deposit", err)
		}
		return
	}
	c.JSON(http.StatusCreated, deposit)
}
