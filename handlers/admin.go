package handlers

import (
	"net/http"

	"github.com/tilak5758/barber-salon-backend/services/admin"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the operational dashboard.
type AdminHandler struct {
	Admin admin.Service
}

func NewAdminHandler(adm admin.Service) *AdminHandler {
	return &AdminHandler{Admin: adm}
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	dashboard, err := h.Admin.GetDashboard(c.Request.Context(), actor)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
