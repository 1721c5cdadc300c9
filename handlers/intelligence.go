package handlers

import (
	"net/http"

	ai "github.com/tilak5758/barber-salon-backend/services/intelligence"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/gin-gonic/gin"
)

// IntelligenceHandler serves barber recommendations.
type IntelligenceHandler struct {
	AI ai.Service
}

func NewIntelligenceHandler(svc ai.Service) *IntelligenceHandler {
	return &IntelligenceHandler{AI: svc}
}

func (h *IntelligenceHandler) Recommend(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req ai.RecommendRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input: "+err.Error(), utils.CodeValidation)
		return
	}

	result, err := h.AI.Recommend(c.Request.Context(), actor, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
