package handlers

import (
	"net/http"
	"strconv"

	"github.com/tilak5758/barber-salon-backend/middleware"
	"github.com/tilak5758/barber-salon-backend/services/catalog"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/gin-gonic/gin"
)

// BarberHandler serves barber profiles and their service catalog.
type BarberHandler struct {
	Catalog catalog.Service
}

func NewBarberHandler(cat catalog.Service) *BarberHandler {
	return &BarberHandler{Catalog: cat}
}

func (h *BarberHandler) Register(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "authentication required", utils.CodeForbidden)
		return
	}

	var req catalog.BarberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	barber, err := h.Catalog.RegisterBarber(c.Request.Context(), actor, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, barber)
}

func (h *BarberHandler) Get(c *gin.Context) {
	barber, err := h.Catalog.GetBarber(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, barber)
}

func (h *BarberHandler) GetOwnProfile(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "authentication required", utils.CodeForbidden)
		return
	}

	barber, err := h.Catalog.GetOwnProfile(c.Request.Context(), actor)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, barber)
}

func (h *BarberHandler) Update(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "authentication required", utils.CodeForbidden)
		return
	}

	var req catalog.BarberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	barber, err := h.Catalog.UpdateBarber(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, barber)
}

func (h *BarberHandler) List(c *gin.Context) {
	verifiedOnly, _ := strconv.ParseBool(c.Query("verified"))
	barbers, err := h.Catalog.ListBarbers(c.Request.Context(), c.Query("city"), verifiedOnly)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, barbers)
}

func (h *BarberHandler) SetVerified(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "authentication required", utils.CodeForbidden)
		return
	}

	var req struct {
		Verified *bool `json:"verified" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	if err := h.Catalog.SetVerified(c.Request.Context(), actor, c.Param("id"), *req.Verified); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verification updated"})
}

func (h *BarberHandler) CreateService(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "authentication required", utils.CodeForbidden)
		return
	}

	var req catalog.ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	svc, err := h.Catalog.CreateService(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

func (h *BarberHandler) UpdateService(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "authentication required", utils.CodeForbidden)
		return
	}

	var req catalog.ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	svc, err := h.Catalog.UpdateService(c.Request.Context(), actor, c.Param("serviceId"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (h *BarberHandler) ListServices(c *gin.Context) {
	activeOnly := true
	if v := c.Query("all"); v == "true" {
		activeOnly = false
	}
	services, err := h.Catalog.ListServices(c.Request.Context(), c.Param("id"), activeOnly)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services)
}
