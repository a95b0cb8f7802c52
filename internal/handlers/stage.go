package handlers

import (
	"github.com/Yokesh17/Project--Management/internal/middleware"
	"github.com/Yokesh17/Project--Management/internal/services"
	"github.com/Yokesh17/Project--Management/pkg/response"
	"github.com/gin-gonic/gin"
)

type StageHandler struct {
	stageService *services.StageService
}

func NewStageHandler(stageService *services.StageService) *StageHandler {
	return &StageHandler{stageService: stageService}
}

// Create adds a stage to a project
// POST /api/projects/:id/stages
func (h *StageHandler) Create(c *gin.Context) {
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}
	var req services.CreateStageRequest
	if !bindJSON(c, &req) {
		return
	}

	stage, err := h.stageService.Create(c.Request.Context(), middleware.GetUserID(c), projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, stage)
}

// Delete removes a stage and its tasks
// DELETE /api/stages/:id
func (h *StageHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "stage")
	if !ok {
		return
	}

	if err := h.stageService.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "stage deleted successfully"})
}
