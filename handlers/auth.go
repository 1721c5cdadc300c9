package handlers

import (
	"net/http"

	"github.com/tilak5758/barber-salon-backend/middleware"
	userService "github.com/tilak5758/barber-salon-backend/services/user"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves registration and session endpoints.
type AuthHandler struct {
	Users userService.Service
}

func NewAuthHandler(users userService.Service) *AuthHandler {
	return &AuthHandler{Users: users}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req userService.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	user, err := h.Users.Register(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req userService.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	user, tokens, err := h.Users.Login(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "tokens": tokens})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	tokens, err := h.Users.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	if err := h.Users.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) RequestMobileOTP(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "authentication required", utils.CodeForbidden)
		return
	}

	if err := h.Users.RequestMobileOTP(c.Request.Context(), actor); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
}

func (h *AuthHandler) VerifyMobile(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "authentication required", utils.CodeForbidden)
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	if err := h.Users.VerifyMobile(c.Request.Context(), actor, req.Code); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "mobile verified"})
}
