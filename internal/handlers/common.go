package handlers

import (
	"strconv"

	"github.com/Yokesh17/Project--Management/pkg/response"
	"github.com/gin-gonic/gin"
)

// parseID reads a numeric path parameter. On failure it writes a 400 and
// returns false.
func parseID(c *gin.Context, param, what string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+what+" id")
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the body into req, answering 422 when it does not fit.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ValidationFailed(c, err.Error())
		return false
	}
	return true
}
