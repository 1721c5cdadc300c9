package handlers

import (
	"net/http"

	"github.com/tilak5758/barber-salon-backend/middleware"
	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/services/availability"
	"github.com/tilak5758/barber-salon-backend/services/catalog"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/gin-gonic/gin"
)

// AvailabilityHandler serves the slot ledger. Publishing is restricted to
// the owning barber or an admin; reads are public.
type AvailabilityHandler struct {
	Availability availability.Service
	Catalog      catalog.Service
}

func NewAvailabilityHandler(avail availability.Service, cat catalog.Service) *AvailabilityHandler {
	return &AvailabilityHandler{Availability: avail, Catalog: cat}
}

type publishRequest struct {
	Timezone string                   `json:"timezone"`
	Slots    []availability.SlotInput `json:"slots" binding:"required"`
}

func (h *AvailabilityHandler) Publish(c *gin.Context) {
	_, barberID, ok := h.authorizeOwner(c)
	if !ok {
		return
	}

	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	day, err := h.Availability.Publish(c.Request.Context(), barberID, c.Param("date"), req.Timezone, req.Slots)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

func (h *AvailabilityHandler) GetDay(c *gin.Context) {
	day, err := h.Availability.GetDay(c.Request.Context(), c.Param("id"), c.Param("date"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, publicDay(day))
}

type addSlotRequest struct {
	Timezone string                 `json:"timezone"`
	Slot     availability.SlotInput `json:"slot" binding:"required"`
}

func (h *AvailabilityHandler) AddSlot(c *gin.Context) {
	_, barberID, ok := h.authorizeOwner(c)
	if !ok {
		return
	}

	var req addSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	slot, err := h.Availability.AddSingleSlot(c.Request.Context(), barberID, c.Param("date"), req.Timezone, req.Slot)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

func (h *AvailabilityHandler) RemoveSlot(c *gin.Context) {
	_, barberID, ok := h.authorizeOwner(c)
	if !ok {
		return
	}

	if err := h.Availability.RemoveSlot(c.Request.Context(), barberID, c.Param("date"), c.Param("slotId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "slot removed"})
}

// authorizeOwner resolves the barber from the path and checks the actor
// manages it. Writes the error response itself on failure.
func (h *AvailabilityHandler) authorizeOwner(c *gin.Context) (models.Actor, string, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "authentication required", utils.CodeForbidden)
		return models.Actor{}, "", false
	}

	barberID := c.Param("id")
	barber, err := h.Catalog.GetBarber(c.Request.Context(), barberID)
	if err != nil {
		utils.RespondError(c, err)
		return models.Actor{}, "", false
	}
	if barber.UserID != actor.ID && !actor.IsAdmin() {
		utils.JSONError(c, http.StatusForbidden, "you do not manage this barber profile", utils.CodeForbidden)
		return models.Actor{}, "", false
	}
	return actor, barberID, true
}

// publicDay hides which appointment holds each booked slot.
func publicDay(day *models.Availability) gin.H {
	slots := make([]gin.H, 0, len(day.Slots))
	for _, s := range day.Slots {
		slots = append(slots, gin.H{
			"id":       s.ID,
			"start":    s.Start,
			"end":      s.End,
			"isBooked": s.IsBooked,
		})
	}
	return gin.H{
		"barberId": day.BarberID,
		"date":     day.Date,
		"timezone": day.Timezone,
		"slots":    slots,
	}
}
