package handler

import (
	"errors"
	"net/http"

	"github.com/cleyfe/chaincare/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RewardsHandler 积分与成就
type RewardsHandler struct {
	rewardsLogic     *logic.RewardsLogic
	achievementLogic *logic.AchievementLogic
}

func NewRewardsHandler(db *gorm.DB) *RewardsHandler {
	return &RewardsHandler{
		rewardsLogic:     logic.NewRewardsLogic(db),
		achievementLogic: logic.NewAchievementLogic(db),
	}
}

// GetRewards 钱包积分与最近 10 条流水
func (h *RewardsHandler) GetRewards(c *gin.Context) {
	rewards, err := h.rewardsLogic.GetRewards(c.Request.Context(), c.Param("accountId"))
	if err != nil {
		if errors.Is(err, logic.ErrRewardsNotFound) {
			ErrorResponse(c, http.StatusNotFound, "Rewards not found")
			return
		}
		InternalError(c, "Failed to fetch rewards", err)
		return
	}
	c.JSON(http.StatusOK, rewards)
}

// CheckAchievements 按假设总积分解锁下一个成就
func (h *RewardsHandler) CheckAchievements(c *gin.Context) {
	var req CheckAchievementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request")
		return
	}

	achievement, err := h.achievementLogic.CheckAchievements(c.Request.Context(), req.WalletAddress, req.DepositAmount)
	if err != nil {
		if errors.Is(err, logic.ErrInvalidAmount) || errors.Is(err, logic.ErrInvalidAddress) {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		InternalError(c, "Failed to check achievements", err)
		return
	}
	c.JSON(http.StatusOK, CheckAchievementsResponse{Success: true, NewAchievement: achievement})
}

// GetAchievements 成就目录及解锁状态
func (h *RewardsHandler) GetAchievements(c *gin.Context) {
	achievements, err := h.achievementLogic.GetUserAchievements(c.Request.Context(), c.Param("accountId"))
	if err != nil {
		InternalError(c, "Failed to fetch achievements", err)
		return
	}
	c.JSON(http.StatusOK, achievements)
}
