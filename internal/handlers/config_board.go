package handlers

import (
	"github.com/Yokesh17/Project--Management/internal/middleware"
	"github.com/Yokesh17/Project--Management/internal/services"
	"github.com/Yokesh17/Project--Management/pkg/response"
	"github.com/gin-gonic/gin"
)

type ConfigBoardHandler struct {
	configService *services.ConfigBoardService
}

func NewConfigBoardHandler(configService *services.ConfigBoardService) *ConfigBoardHandler {
	return &ConfigBoardHandler{configService: configService}
}

// List returns a project's config boards
// GET /api/projects/:id/configs
func (h *ConfigBoardHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	boards, err := h.configService.List(c.Request.Context(), middleware.GetUserID(c), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, boards)
}

// Create adds a config board
// POST /api/projects/:id/configs
func (h *ConfigBoardHandler) Create(c *gin.Context) {
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}
	var req services.CreateConfigBoardRequest
	if !bindJSON(c, &req) {
		return
	}

	board, err := h.configService.Create(c.Request.Context(), middleware.GetUserID(c), projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, board)
}

// Update changes name, content or visibility
// PUT /api/configs/:id
func (h *ConfigBoardHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "config")
	if !ok {
		return
	}
	var req services.UpdateConfigBoardRequest
	if !bindJSON(c, &req) {
		return
	}

	board, err := h.configService.Update(c.Request.Context(), middleware.GetUserID(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, board)
}

// Delete removes a config board
// DELETE /api/configs/:id
func (h *ConfigBoardHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "config")
	if !ok {
		return
	}

	if err := h.configService.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "config deleted successfully"})
}

// Share publishes the board under a new token
// POST /api/configs/:id/share
func (h *ConfigBoardHandler) Share(c *gin.Context) {
	id, ok := parseID(c, "id", "config")
	if !ok {
		return
	}

	result, err := h.configService.Share(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetShared returns a public board by token, without authentication
// GET /api/shared/:token
func (h *ConfigBoardHandler) GetShared(c *gin.Context) {
	board, err := h.configService.GetShared(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, board)
}
