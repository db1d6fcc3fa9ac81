package handler

import (
	"net/http"

	"github.com/cleyfe/chaincare/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LedgerHandler 分发与审计记录
type LedgerHandler struct {
	distributionLogic *logic.DistributionLogic
	auditLogic        *logic.AuditLogic
}

func NewLedgerHandler(db *gorm.DB) *LedgerHandler {
	return &LedgerHandler{
		distributionLogic: logic.NewDistributionLogic(db),
		auditLogic:        logic.NewAuditLogic(db),
	}
}

func (h *LedgerHandler) GetDistributions(c *gin.Context) {
	distributions, err := h.distributionLogic.GetDistributions(c.Request.Context())
	if err != nil {
		InternalError(c, "Failed to fetch distributions", err)
		return
	}
	c.JSON(http.StatusOK, distributions)
}

// GetAuditTrail 最近 100 条审计记录
func (h *LedgerHandler) GetAuditTrail(c *gin.Context) {
	entries, err := h.auditLogic.GetLatest(c.Request.Context())
	if err != nil {
		InternalError(c, "Failed to fetch audit trail", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
