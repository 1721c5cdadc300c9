package handlers

import (
	"net/http"
	"strconv"

	"github.com/tilak5758/barber-salon-backend/services/notification"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/gin-gonic/gin"
)

// NotificationHandler serves the per-user inbox.
type NotificationHandler struct {
	Notifications notification.Service
}

func NewNotificationHandler(notifs notification.Service) *NotificationHandler {
	return &NotificationHandler{Notifications: notifs}
}

func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	notifs, err := h.Notifications.ListForUser(c.Request.Context(), actor.ID, limit)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifs)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.Notifications.MarkRead(c.Request.Context(), actor.ID, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked read"})
}
