package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ChainStatus 链连接状态，由 *chain.Manager 实现
type ChainStatus interface {
	HealthStatus(ctx context.Context) map[string]interface{}
}

type HealthHandler struct {
	db    *gorm.DB
	chain ChainStatus
}

func NewHealthHandler(db *gorm.DB, chain ChainStatus) *HealthHandler {
	return &HealthHandler{db: db, chain: chain}
}

// Health 数据库不可用时返回 503
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"status":   "ok",
		"service":  "chaincare",
		"database": "ok",
	}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = err.Error()
	}

	if h.chain != nil {
		body["chain"] = h.chain.HealthStatus(ctx)
	} else {
		body["chain"] = "disabled"
	}
	c.JSON(status, body)
}
