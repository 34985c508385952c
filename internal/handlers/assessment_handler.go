package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"github.com/devpath-io/devpath-service/internal/services"
	"github.com/devpath-io/devpath-service/internal/utils"
	"github.com/devpath-io/devpath-service/internal/validator"
)

type AssessmentHandler struct {
	BaseHandler
	assessmentService   services.AssessmentService
	importExportService services.ImportExportService
	validator           *validator.Validator
}

func NewAssessmentHandler(
	assessmentService services.AssessmentService,
	importExportService services.ImportExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *AssessmentHandler {
	return &AssessmentHandler{
		BaseHandler:         NewBaseHandler(logger),
		assessmentService:   assessmentService,
		importExportService: importExportService,
		validator:           validator,
	}
}

// CreateAssessment creates a new assessment in Draft status.
func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	var req services.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	assessment, err := h.assessmentService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assessment)
}

// GetAssessment retrieves an assessment by ID.
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting assessment", "assessment_id", id)

	assessment, err := h.assessmentService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// GetAssessmentWithQuestions retrieves an assessment including its questions.
func (h *AssessmentHandler) GetAssessmentWithQuestions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting assessment with questions", "assessment_id", id)

	assessment, err := h.assessmentService.GetByIDWithQuestions(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// GetAssessmentBySlug retrieves an assessment by its catalog slug.
func (h *AssessmentHandler) GetAssessmentBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid slug parameter"})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	assessment, err := h.assessmentService.GetBySlug(c.Request.Context(), slug, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// UpdateAssessment updates an existing assessment.
func (h *AssessmentHandler) UpdateAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Updating assessment", "assessment_id", id)

	assessment, err := h.assessmentService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// DeleteAssessment removes a draft assessment and its questions.
func (h *AssessmentHandler) DeleteAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting assessment", "assessment_id", id)

	if err := h.assessmentService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Assessment deleted successfully",
	})
}

// ListAssessments lists assessments with optional filters.
func (h *AssessmentHandler) ListAssessments(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	filters := h.parseAssessmentFilters(c)

	list, err := h.assessmentService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetActiveAssessments returns the catalog of currently active assessments.
func (h *AssessmentHandler) GetActiveAssessments(c *gin.Context) {
	assessments, err := h.assessmentService.GetActive(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assessments": assessments,
		"total":       len(assessments),
	})
}

// UpdateAssessmentStatus performs an explicit lifecycle transition.
func (h *AssessmentHandler) UpdateAssessmentStatus(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Changing assessment status", "assessment_id", id, "new_status", req.Status)

	change, err := h.assessmentService.UpdateStatus(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, change)
}

// PublishAssessment transitions a draft assessment to Active.
func (h *AssessmentHandler) PublishAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.assessmentService.Publish(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Assessment published successfully",
	})
}

// ArchiveAssessment transitions an assessment to Archived.
func (h *AssessmentHandler) ArchiveAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.assessmentService.Archive(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Assessment archived successfully",
	})
}

// GetAssessmentStats returns aggregate attempt statistics for an assessment.
func (h *AssessmentHandler) GetAssessmentStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.assessmentService.GetStats(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// AddQuestion appends a question to an assessment.
func (h *AssessmentHandler) AddQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	question, err := h.assessmentService.AddQuestion(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// UpdateQuestion modifies a question belonging to an assessment.
func (h *AssessmentHandler) UpdateQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}

	var req services.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	question, err := h.assessmentService.UpdateQuestion(c.Request.Context(), id, questionID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// RemoveQuestion deletes a question from an assessment.
func (h *AssessmentHandler) RemoveQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.assessmentService.RemoveQuestion(c.Request.Context(), id, questionID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Question removed successfully",
	})
}

// ImportAssessments ingests a JSON catalog document, either uploaded as a
// multipart "file" field or sent as the raw request body.
func (h *AssessmentHandler) ImportAssessments(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	req := &models.ImportAssessmentsRequest{
		Overwrite:    c.Query("overwrite") == "true",
		ValidateOnly: c.Query("validate_only") == "true",
	}

	var reader io.Reader = c.Request.Body
	if file, _, err := c.Request.FormFile("file"); err == nil {
		defer file.Close()
		reader = file
	}

	h.LogRequest(c, "Importing assessments", "overwrite", req.Overwrite, "validate_only", req.ValidateOnly)

	result, err := h.importExportService.ImportAssessments(c.Request.Context(), reader, req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportResults streams completed results as an xlsx workbook.
func (h *AssessmentHandler) ExportResults(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	params := &models.ExportResultsParams{
		AssessmentSlug: c.Query("assessment_slug"),
		Category:       c.Query("category"),
	}
	if from := c.Query("date_from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid date_from parameter", Details: from})
			return
		}
		params.DateFrom = &t
	}
	if to := c.Query("date_to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid date_to parameter", Details: to})
			return
		}
		params.DateTo = &t
	}

	h.LogRequest(c, "Exporting results", "assessment_slug", params.AssessmentSlug, "category", params.Category)

	workbook, err := h.importExportService.ExportResults(c.Request.Context(), params, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("results-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := workbook.Write(c.Writer); err != nil {
		h.LogError(c, err, "Failed to stream export workbook")
	}
}

func (h *AssessmentHandler) parseAssessmentFilters(c *gin.Context) repositories.AssessmentFilters {
	limit, offset := h.parsePagination(c)

	filters := repositories.AssessmentFilters{
		Search:    c.Query("search"),
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if status := c.Query("status"); status != "" {
		s := models.AssessmentStatus(status)
		filters.Status = &s
	}
	if category := c.Query("category"); category != "" {
		cat := models.AssessmentCategory(category)
		filters.Category = &cat
	}
	if creator := c.Query("created_by"); creator != "" {
		filters.CreatedBy = &creator
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		filters.Offset = (page - 1) * filters.Limit
	}

	return filters
}
