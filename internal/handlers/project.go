package handlers

import (
	"github.com/Yokesh17/Project--Management/internal/middleware"
	"github.com/Yokesh17/Project--Management/internal/services"
	"github.com/Yokesh17/Project--Management/pkg/response"
	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectService  *services.ProjectService
	activityService *services.ActivityService
}

func NewProjectHandler(projectService *services.ProjectService, activityService *services.ActivityService) *ProjectHandler {
	return &ProjectHandler{
		projectService:  projectService,
		activityService: activityService,
	}
}

// List returns the projects the caller owns or has joined
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.ListForUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}

// GetByID returns a project with its members, stages, tasks and boards
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	project, err := h.projectService.GetByID(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// Create creates a new project
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, project)
}

// Delete deletes a project and everything in it
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "project deleted successfully"})
}

// Activity returns the project's activity log, oldest first
// GET /api/projects/:id/activity
func (h *ProjectHandler) Activity(c *gin.Context) {
	id, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	logs, err := h.activityService.ListByProject(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, logs)
}
