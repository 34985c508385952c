package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"github.com/devpath-io/devpath-service/internal/services"
	"github.com/devpath-io/devpath-service/internal/utils"
	"github.com/devpath-io/devpath-service/internal/validator"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	validator      *validator.Validator
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	validator *validator.Validator,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		validator:      validator,
	}
}

// StartAttempt opens a new attempt, or resumes an in-progress one, for the
// assessment identified by slug.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req services.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting attempt", "slug", req.Slug)

	attempt, err := h.attemptService.Start(c.Request.Context(), &req, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// SaveAnswer upserts a single answer on an open attempt.
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	resultID := h.parseIDParam(c, "id")
	if resultID == 0 {
		return
	}

	var req services.SaveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.attemptService.SaveAnswer(c.Request.Context(), resultID, &req, studentID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Answer saved successfully",
	})
}

// SubmitAttempt finalizes an attempt. Every question must be answered;
// otherwise the submission is rejected and nothing is written.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	var req services.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting attempt", "result_id", req.ResultID)

	attempt, err := h.attemptService.Submit(c.Request.Context(), &req, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// AbandonAttempt marks an open attempt as abandoned. Abandoned attempts do
// not count against the attempt limit.
func (h *AttemptHandler) AbandonAttempt(c *gin.Context) {
	resultID := h.parseIDParam(c, "id")
	if resultID == 0 {
		return
	}

	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.attemptService.Abandon(c.Request.Context(), resultID, studentID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Attempt abandoned",
	})
}

// GetAttempt retrieves a single attempt with its answers.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	resultID := h.parseIDParam(c, "id")
	if resultID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), resultID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetCurrentAttempt returns the caller's open attempt for an assessment,
// if one exists.
func (h *AttemptHandler) GetCurrentAttempt(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid slug parameter"})
		return
	}

	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetCurrent(c.Request.Context(), slug, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// ListMyAttempts lists the caller's attempts with optional filters.
func (h *AttemptHandler) ListMyAttempts(c *gin.Context) {
	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.ResultFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if status := c.Query("status"); status != "" {
		s := models.ResultStatus(status)
		filters.Status = &s
	}
	if category := c.Query("category"); category != "" {
		cat := models.AssessmentCategory(category)
		filters.Category = &cat
	}
	if assessmentID, err := strconv.ParseUint(c.Query("assessment_id"), 10, 32); err == nil {
		id := uint(assessmentID)
		filters.AssessmentID = &id
	}

	attempts, total, err := h.attemptService.ListByStudent(c.Request.Context(), studentID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempts": attempts,
		"total":    total,
		"limit":    filters.Limit,
		"offset":   filters.Offset,
	})
}

// CanStartAttempt reports whether the caller may open a new attempt for
// the assessment.
func (h *AttemptHandler) CanStartAttempt(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid slug parameter"})
		return
	}

	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	canStart, err := h.attemptService.CanStart(c.Request.Context(), slug, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slug":      slug,
		"can_start": canStart,
	})
}

// GetAttemptCount reports how many completed attempts the caller has for
// an assessment.
func (h *AttemptHandler) GetAttemptCount(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "assessment_id")
	if assessmentID == 0 {
		return
	}

	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	count, err := h.attemptService.GetAttemptCount(c.Request.Context(), assessmentID, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assessment_id":      assessmentID,
		"completed_attempts": count,
	})
}
