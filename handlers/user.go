package handlers

import (
	"net/http"

	"github.com/tilak5758/barber-salon-backend/middleware"
	userService "github.com/tilak5758/barber-salon-backend/services/user"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler serves profile endpoints.
type UserHandler struct {
	Users userService.Service
}

func NewUserHandler(users userService.Service) *UserHandler {
	return &UserHandler{Users: users}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "authentication required", utils.CodeForbidden)
		return
	}

	user, err := h.Users.Get(c.Request.Context(), actor, actor.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetByID(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "authentication required", utils.CodeForbidden)
		return
	}

	user, err := h.Users.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) RegisterDeviceToken(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "authentication required", utils.CodeForbidden)
		return
	}

	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	if err := h.Users.RegisterDeviceToken(c.Request.Context(), actor, req.Token); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "device registered"})
}
