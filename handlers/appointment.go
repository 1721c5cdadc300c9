package handlers

import (
	"net/http"

	"github.com/tilak5758/barber-salon-backend/middleware"
	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/services/scheduler"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/gin-gonic/gin"
)

// AppointmentHandler serves the booking state machine.
type AppointmentHandler struct {
	Scheduler scheduler.Service
}

func NewAppointmentHandler(sched scheduler.Service) *AppointmentHandler {
	return &AppointmentHandler{Scheduler: sched}
}

func (h *AppointmentHandler) Book(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req scheduler.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	appt, err := h.Scheduler.Book(c.Request.Context(), actor, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	appt, err := h.Scheduler.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	appt, err := h.Scheduler.Confirm(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// Reason is optional; ignore bind errors on an empty body.
	_ = c.ShouldBindJSON(&req)

	appt, err := h.Scheduler.Cancel(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	appt, err := h.Scheduler.Complete(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req struct {
		Date  string `json:"date" binding:"required"`
		Start int    `json:"start" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	appt, err := h.Scheduler.Reschedule(c.Request.Context(), actor, c.Param("id"), req.Date, req.Start)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *AppointmentHandler) ListMine(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	appts, err := h.Scheduler.ListForCustomer(c.Request.Context(), actor)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appts)
}

func (h *AppointmentHandler) ListForBarber(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	appts, err := h.Scheduler.ListForBarber(c.Request.Context(), actor, c.Param("id"), c.Query("date"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appts)
}

// requireActor fetches the authenticated actor or writes a 401.
func requireActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "authentication required", utils.CodeForbidden)
		return models.Actor{}, false
	}
	return actor, true
}
