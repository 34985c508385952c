package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devpath-io/devpath-service/internal/repositories"
	"github.com/devpath-io/devpath-service/internal/services"
	"github.com/devpath-io/devpath-service/internal/utils"
)

type NotificationHandler struct {
	BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(
	notificationService services.NotificationService,
	logger utils.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         NewBaseHandler(logger),
		notificationService: notificationService,
	}
}

// ListNotifications lists the caller's in-app notifications, newest first.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.NotificationFilters{
		UnreadOnly: c.Query("unread_only") == "true",
		Limit:      limit,
		Offset:     offset,
	}

	notifications, total, err := h.notificationService.List(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
		"limit":         filters.Limit,
		"offset":        filters.Offset,
	})
}

// MarkNotificationRead marks one of the caller's notifications as read.
func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Notification marked as read",
	})
}

// GetUnreadCount returns the caller's unread notification count.
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationService.CountUnread(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"unread_count": count,
	})
}
