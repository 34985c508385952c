package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devpath-io/devpath-service/internal/services"
	"github.com/devpath-io/devpath-service/internal/utils"
	"github.com/devpath-io/devpath-service/internal/validator"
)

type CareerHandler struct {
	BaseHandler
	careerService services.CareerService
	validator     *validator.Validator
}

func NewCareerHandler(
	careerService services.CareerService,
	validator *validator.Validator,
	logger utils.Logger,
) *CareerHandler {
	return &CareerHandler{
		BaseHandler:   NewBaseHandler(logger),
		careerService: careerService,
		validator:     validator,
	}
}

// GetMatches builds the caller's feature vector from their best completed
// results and returns ranked career recommendations.
func (h *CareerHandler) GetMatches(c *gin.Context) {
	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting career matches")

	matches, err := h.careerService.GetMatches(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, matches)
}

// GetSelection returns the caller's selected career, if any.
func (h *CareerHandler) GetSelection(c *gin.Context) {
	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	selection, err := h.careerService.GetSelection(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, selection)
}

// SelectCareer records the caller's career choice. The choice is
// write-once; a second selection is rejected.
func (h *CareerHandler) SelectCareer(c *gin.Context) {
	var req services.SelectCareerRequest
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

	h.LogRequest(c, "Selecting career", "job_role", req.JobRole)

	selection, err := h.careerService.SelectCareer(c.Request.Context(), &req, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, selection)
}
