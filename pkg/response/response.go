package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Yokesh17/Project--Management/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Response is the unified API response format.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Kind is the error category that must survive from the services to the client.
type Kind string

const (
	KindBadRequest    Kind = "bad_request"
	KindUnauthorized  Kind = "unauthorized"
	KindForbidden     Kind = "forbidden"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindQuotaExceeded Kind = "quota_exceeded"
	KindValidation    Kind = "validation"
	KindInternal      Kind = "internal"
)

// Application-level codes. Forbidden and QuotaExceeded share HTTP 403 and are
// told apart by Code.
const (
	CodeBadRequest    = 400
	CodeUnauthorized  = 401
	CodeForbidden     = 403
	CodeQuotaExceeded = 4031
	CodeNotFound      = 404
	CodeConflict      = 409
	CodeValidation    = 422
	CodeServerError   = 500
)

// AppError represents a structured application error with HTTP status and error code.
type AppError struct {
	Kind       Kind
	HTTPStatus int    // HTTP status code (e.g. 400, 404, 500)
	Code       int    // Application-level error code
	Message    string // Human-readable error message
	Limit      int    // Plan limit that was hit, only for KindQuotaExceeded
}

func (e *AppError) Error() string {
	return e.Message
}

func NewBadRequest(msg string) *AppError {
	return &AppError{Kind: KindBadRequest, HTTPStatus: http.StatusBadRequest, Code: CodeBadRequest, Message: msg}
}

func NewUnauthorized(msg string) *AppError {
	return &AppError{Kind: KindUnauthorized, HTTPStatus: http.StatusUnauthorized, Code: CodeUnauthorized, Message: msg}
}

func NewForbidden(msg string) *AppError {
	return &AppError{Kind: KindForbidden, HTTPStatus: http.StatusForbidden, Code: CodeForbidden, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{Kind: KindNotFound, HTTPStatus: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

// NewConflict is rendered as 400 to match the existing clients.
func NewConflict(msg string) *AppError {
	return &AppError{Kind: KindConflict, HTTPStatus: http.StatusBadRequest, Code: CodeConflict, Message: msg}
}

// NewQuotaExceeded builds the plan-limit error; what names the limited resource ("projects").
func NewQuotaExceeded(what string, limit int) *AppError {
	return &AppError{
		Kind:       KindQuotaExceeded,
		HTTPStatus: http.StatusForbidden,
		Code:       CodeQuotaExceeded,
		Message:    fmt.Sprintf("%s limit reached for your plan (%d %s).", capitalize(what), limit, what),
		Limit:      limit,
	}
}

func NewValidation(msg string) *AppError {
	return &AppError{Kind: KindValidation, HTTPStatus: http.StatusUnprocessableEntity, Code: CodeValidation, Message: msg}
}

func NewServerError(msg string) *AppError {
	return &AppError{Kind: KindInternal, HTTPStatus: http.StatusInternalServerError, Code: CodeServerError, Message: msg}
}

// IsKind reports whether err wraps an *AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

// --- Gin response helpers ---

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// Error sends an error response. If err is an *AppError, its code and status
// are used; otherwise the error is logged and a generic 500 is returned.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{
			Code:    appErr.Code,
			Message: appErr.Message,
		})
		return
	}
	logger.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("unhandled error")
	c.JSON(http.StatusInternalServerError, Response{
		Code:    CodeServerError,
		Message: "internal server error",
	})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: CodeBadRequest, Message: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Response{Code: CodeUnauthorized, Message: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, Response{Code: CodeForbidden, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Code: CodeNotFound, Message: msg})
}

func ValidationFailed(c *gin.Context, msg string) {
	c.JSON(http.StatusUnprocessableEntity, Response{Code: CodeValidation, Message: msg})
}

func ServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, Response{Code: CodeServerError, Message: msg})
}
