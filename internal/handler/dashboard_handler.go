package handler

import (
	"net/http"

	"github.com/cleyfe/chaincare/internal/logic"
	"github.com/cleyfe/chaincare/internal/middleware"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	dashboardLogic *logic.DashboardLogic
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{
		dashboardLogic: logic.NewDashboardLogic(
			logic.NewRewardsLogic(db),
			logic.NewAchievementLogic(db),
			logic.NewDepositLogic(db),
		),
	}
}

// GetDashboard 当前会话钱包的积分、成就与存款
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if claims.Wallet == "" {
		ErrorResponse(c, http.StatusBadRequest, "No wallet linked to this account")
		return
	}

	dashboard, err := h.dashboardLogic.GetDashboard(c.Request.Context(), claims.Wallet)
	if err != nil {
		InternalError(c, "Failed to fetch dashboard", err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
