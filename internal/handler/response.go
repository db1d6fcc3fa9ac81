package handler

import (
	"net/http"

	"github.com/cleyfe/chaincare/internal/logger"
	"github.com/gin-gonic/gin"
)

// ErrorResponse 错误响应 {message}
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, ErrorBody{Message: message})
}

// InternalError 记录底层错误，只向客户端返回通用信息
func InternalError(c *gin.Context, message string, err error) {
	logger.Error("%s %s: %s: %v", c.Request.Method, c.FullPath(), message, err)
	_ = c.Error(err)
	ErrorResponse(c, http.StatusInternalServerError, message)
}
