package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cleyfe/chaincare/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectLogic *logic.ProjectLogic
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{
		projectLogic: logic.NewProjectLogic(db),
	}
}

// GetProjects 获取进行中的项目
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	projects, err := h.projectLogic.GetActiveProjects(c.Request.Context())
	if err != nil {
		InternalError(c, "Failed to fetch projects", err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// GetProject 获取项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "Project not found")
		return
	}

	project, err := h.projectLogic.GetProject(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, logic.ErrProjectNotFound) {
			ErrorResponse(c, http.StatusNotFound, "Project not found")
			return
		}
		InternalError(c, "Failed to fetch project", err)
		return
	}
	c.JSON(http.StatusOK, project)
}
