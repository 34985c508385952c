package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devpath-io/devpath-service/internal/services"
	"github.com/devpath-io/devpath-service/internal/utils"
	"github.com/devpath-io/devpath-service/internal/validator"
)

type ProgressHandler struct {
	BaseHandler
	dashboardService services.DashboardService
	roadmapService   services.RoadmapService
	validator        *validator.Validator
}

func NewProgressHandler(
	dashboardService services.DashboardService,
	roadmapService services.RoadmapService,
	validator *validator.Validator,
	logger utils.Logger,
) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:      NewBaseHandler(logger),
		dashboardService: dashboardService,
		roadmapService:   roadmapService,
		validator:        validator,
	}
}

// GetProgress returns the caller's dashboard summary: per-category
// completion, overall completion rate, activity streak and recent
// activity.
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting progress summary")

	progress, err := h.dashboardService.GetProgress(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetRoadmap returns the caller's learning roadmap for their selected
// career.
func (h *ProgressHandler) GetRoadmap(c *gin.Context) {
	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	roadmap, err := h.roadmapService.Get(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, roadmap)
}

// UpdateRoadmap replaces the caller's roadmap steps and recomputes the
// completion counters.
func (h *ProgressHandler) UpdateRoadmap(c *gin.Context) {
	var req services.UpdateRoadmapRequest
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

	h.LogRequest(c, "Updating roadmap", "steps", len(req.Steps))

	roadmap, err := h.roadmapService.Update(c.Request.Context(), studentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, roadmap)
}
