package handlers

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/Yokesh17/Project--Management/internal/middleware"
	"github.com/Yokesh17/Project--Management/internal/services"
	"github.com/Yokesh17/Project--Management/pkg/response"
	"github.com/gin-gonic/gin"
)

type AttachmentHandler struct {
	attachmentService *services.AttachmentService
}

func NewAttachmentHandler(attachmentService *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

// UploadToTask stores the multipart "file" field on a task
// POST /api/tasks/:id/attachments
func (h *AttachmentHandler) UploadToTask(c *gin.Context) {
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}
	h.upload(c, services.AttachmentOwner{TaskID: taskID})
}

// UploadToProject stores the multipart "file" field on a project
// POST /api/projects/:id/attachments
func (h *AttachmentHandler) UploadToProject(c *gin.Context) {
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}
	h.upload(c, services.AttachmentOwner{ProjectID: projectID})
}

func (h *AttachmentHandler) upload(c *gin.Context, owner services.AttachmentOwner) {
	header, err := c.FormFile("file")
	if err != nil {
		response.ValidationFailed(c, "file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		response.BadRequest(c, "cannot read uploaded file")
		return
	}
	defer file.Close()

	attachment, err := h.attachmentService.Upload(c.Request.Context(), middleware.GetUserID(c), owner, header.Filename, file, header.Size)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, attachment)
}

// Download streams the attachment bytes
// GET /api/attachments/:id/download
func (h *AttachmentHandler) Download(c *gin.Context) {
	id, ok := parseID(c, "id", "attachment")
	if !ok {
		return
	}

	attachment, rc, err := h.attachmentService.Open(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(attachment.Filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, attachment.Size, contentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", attachment.Filename),
	})
}

// Delete removes an attachment
// DELETE /api/attachments/:id
func (h *AttachmentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "attachment")
	if !ok {
		return
	}

	if err := h.attachmentService.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "attachment deleted successfully"})
}
