package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/devpath-io/devpath-service/internal/services"
	"github.com/devpath-io/devpath-service/internal/utils"
	"github.com/devpath-io/devpath-service/internal/validator"
)

// ErrorResponse is the envelope for all error payloads.
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse is the envelope for operations without a resource body.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the shared helpers every handler embeds.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs a handler entry with the request-scoped logger.
func (h BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c.Request.Context()).Debug(msg, args...)
}

// LogError logs an unexpected error with the request-scoped logger.
func (h BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err)
	utils.FromContext(c.Request.Context()).Error(msg, args...)
}

// parseIDParam parses a numeric path parameter. On failure it writes a
// 400 response and returns 0; callers must return when they see 0.
func (h BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
			Details: raw,
		})
		return 0
	}
	return uint(id)
}

// currentUserID returns the authenticated user id set by the auth
// middleware. On failure it writes a 401 response and returns false.
func (h BaseHandler) currentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", false
	}

	id, ok := userID.(string)
	if !ok || id == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", false
	}
	return id, true
}

// parsePagination reads limit/offset query parameters with sane bounds.
func (h BaseHandler) parsePagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// handleServiceError maps service layer errors onto HTTP status codes.
func (h BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var unanswered *services.UnansweredError
	if errors.As(err, &unanswered) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Attempt has unanswered questions",
			Details: map[string]interface{}{"unanswered_count": unanswered.Count},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrAssessmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Assessment not found"})
	case errors.Is(err, services.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Attempt not found"})
	case errors.Is(err, services.ErrSelectionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Career selection not found"})
	case errors.Is(err, services.ErrRoadmapNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Roadmap not found"})
	case errors.Is(err, services.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Notification not found"})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "User not found"})

	case errors.Is(err, services.ErrAssessmentNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Assessment is not open for attempts"})
	case errors.Is(err, services.ErrAttemptLimitReached):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Maximum attempts reached for this assessment"})
	case errors.Is(err, services.ErrAttemptAlreadySubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Attempt has already been submitted"})
	case errors.Is(err, services.ErrAttemptNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Attempt is not in progress"})
	case errors.Is(err, services.ErrCareerAlreadySelected):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "A career has already been selected"})
	case errors.Is(err, services.ErrSlugTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Assessment slug already in use"})

	case errors.Is(err, services.ErrInvalidOTP):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid or expired verification code"})
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})

	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized access"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Forbidden - insufficient permissions"})

	case errors.Is(err, services.ErrPredictionUnavailable):
		c.JSON(http.StatusBadGateway, ErrorResponse{Message: "Career recommendations are temporarily unavailable"})

	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
