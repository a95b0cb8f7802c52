package handlers

import (
	"github.com/Yokesh17/Project--Management/internal/middleware"
	"github.com/Yokesh17/Project--Management/internal/services"
	"github.com/Yokesh17/Project--Management/pkg/response"
	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// List returns a task's comments, oldest first
// GET /api/tasks/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	comments, err := h.commentService.List(c.Request.Context(), middleware.GetUserID(c), taskID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, comments)
}

// Create posts a comment and notifies mentioned users and the assignee
// POST /api/tasks/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}
	var req services.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), middleware.GetUserID(c), taskID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, comment)
}

// Delete removes a comment; allowed for its author and the project owner
// DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "comment")
	if !ok {
		return
	}

	if err := h.commentService.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "comment deleted successfully"})
}
