package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/services"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/utils"
)

type MessageHandler struct {
	BaseHandler
	messages      services.MessageService
	notifications services.NotificationService
}

func NewMessageHandler(messages services.MessageService, notifications services.NotificationService, logger utils.Logger) *MessageHandler {
	return &MessageHandler{
		BaseHandler:   NewBaseHandler(logger),
		messages:      messages,
		notifications: notifications,
	}
}

func (h *MessageHandler) Conversations(c *gin.Context) {
	convs, err := h.messages.Conversations(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

// Thread returns the conversation with :userId and marks it read.
func (h *MessageHandler) Thread(c *gin.Context) {
	otherID := h.parseIDParam(c, "userId")
	if otherID == 0 {
		return
	}

	msgs, err := h.messages.Thread(c.Request.Context(), currentUserID(c), otherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req models.MessageCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ListNotifications returns the caller's notifications; ?unread=true filters.
func (h *MessageHandler) ListNotifications(c *gin.Context) {
	unread, _ := strconv.ParseBool(c.Query("unread"))

	list, err := h.notifications.List(c.Request.Context(), currentUserID(c), unread)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *MessageHandler) MarkNotificationRead(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	n, err := h.notifications.MarkRead(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}
