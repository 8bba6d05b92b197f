package handler

import (
	"github.com/gin-gonic/gin"
	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
)

// NotificationHandler serves the caller's in-app notifications
type NotificationHandler struct {
	BaseHandler
	notifications *appinvoicing.NotificationService
}

// NewNotificationHandler creates a NotificationHandler
func NewNotificationHandler(notifications *appinvoicing.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List handles GET /notifications
func (h *NotificationHandler) List(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	userID := h.Actor(c)
	if userID == nil {
		h.Error(c, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}
	var q dto.NotificationListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.notifications.List(c.Request.Context(), tenantID, *userID, q.UnreadOnly, q.ListQuery.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondList(c, dto.ToNotificationResponses(page.Items), page)
}

// MarkRead handles POST /notifications/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	userID := h.Actor(c)
	if userID == nil {
		h.Error(c, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}
	var req dto.MarkNotificationsReadRequest
	if !h.BindJSON(c, &req) {
		return
	}
	updated, err := h.notifications.MarkRead(c.Request.Context(), tenantID, *userID, req.IDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"updated": updated})
}
