package handler

import (
	"github.com/gin-gonic/gin"
	appnotif "github.com/stockflow/backend/internal/application/notification"
)

// NotificationHandler serves the in-app inbox of the current user
type NotificationHandler struct {
	BaseHandler
	inbox *appnotif.InboxService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(base BaseHandler, inbox *appnotif.InboxService) *NotificationHandler {
	return &NotificationHandler{BaseHandler: base, inbox: inbox}
}

// InboxQuery holds the inbox list parameters
type InboxQuery struct {
	Page       int  `form:"page" binding:"omitempty,min=1"`
	PageSize   int  `form:"page_size" binding:"omitempty,min=1,max=100"`
	UnreadOnly bool `form:"unread_only"`
}

// List returns the actor's notifications
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q InboxQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.inbox.List(c.Request.Context(), actor, appnotif.InboxFilter{
		Page:       q.Page,
		PageSize:   q.PageSize,
		UnreadOnly: q.UnreadOnly,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessPage(c, page.Items, page.Total, page.Page, page.PageSize)
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	if err := h.inbox.MarkRead(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// MarkAllRead marks every notification of the actor as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	n, err := h.inbox.MarkAllRead(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"marked": n})
}
