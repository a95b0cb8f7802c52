package handlers

import (
	"github.com/Yokesh17/Project--Management/internal/middleware"
	"github.com/Yokesh17/Project--Management/internal/services"
	"github.com/Yokesh17/Project--Management/pkg/response"
	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	memberService *services.MemberService
}

func NewMemberHandler(memberService *services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// List returns the owner and members of a project
// GET /api/projects/:id/members
func (h *MemberHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	users, err := h.memberService.List(c.Request.Context(), middleware.GetUserID(c), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, users)
}

// Invite adds a registered user to the project by email
// POST /api/projects/:id/invite
func (h *MemberHandler) Invite(c *gin.Context) {
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}
	var req services.InviteMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.memberService.Invite(c.Request.Context(), middleware.GetUserID(c), projectID, req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "User added to project", "user": user})
}

// Remove takes a member out of the project
// DELETE /api/projects/:id/members/:userId
func (h *MemberHandler) Remove(c *gin.Context) {
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}
	memberID, ok := parseID(c, "userId", "user")
	if !ok {
		return
	}

	if err := h.memberService.Remove(c.Request.Context(), middleware.GetUserID(c), projectID, memberID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "User removed from project"})
}
