package handler

import (
	"net/http"

	"github.com/cleyfe/chaincare/internal/logic"
	"github.com/cleyfe/chaincare/internal/vault"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type StatsHandler struct {
	statsLogic *logic.StatsLogic
}

func NewStatsHandler(db *gorm.DB, apy vault.APYProvider) *StatsHandler {
	return &StatsHandler{
		statsLogic: logic.NewStatsLogic(db, apy),
	}
}

// GetStats 平台统计
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.statsLogic.GetStats(c.Request.Context())
	if err != nil {
		InternalError(c, "Failed to fetch stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
