package handlers

import (
	"net/http"

	"github.com/tilak5758/barber-salon-backend/services/payment"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/gin-gonic/gin"
)

// PaymentHandler serves checkout sessions and refunds.
type PaymentHandler struct {
	Payments payment.Service
}

func NewPaymentHandler(payments payment.Service) *PaymentHandler {
	return &PaymentHandler{Payments: payments}
}

func (h *PaymentHandler) CreateSession(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req struct {
		AppointmentID string `json:"appointmentId" binding:"required"`
		Provider      string `json:"provider" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	session, err := h.Payments.CreateSession(c.Request.Context(), actor, req.AppointmentID, req.Provider)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *PaymentHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	p, err := h.Payments.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PaymentHandler) RequestRefund(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req struct {
		Amount float64 `json:"amount"`
		Reason string  `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	refund, err := h.Payments.RequestRefund(c.Request.Context(), actor, c.Param("id"), req.Amount, req.Reason)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, refund)
}

func (h *PaymentHandler) ListRefunds(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	refunds, err := h.Payments.ListRefunds(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refunds)
}
