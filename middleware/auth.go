package middleware

import (
	"net/http"
	"strings"

	userRepo "github.com/tilak5758/barber-salon-backend/database/repository/user"
	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/gin-gonic/gin"
)

// actorKey is the gin context key holding the authenticated Actor.
const actorKey = "actor"

// AuthMiddleware validates the bearer token and loads the account. The role
// comes from the database, not the token claims, so a role change takes
// effect without waiting for the token to expire.
func AuthMiddleware(users userRepo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		userID, _, err := utils.ExtractClaimsFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account not found"})
			return
		}
		if user.Status != models.UserActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is " + user.Status})
			return
		}

		c.Set(actorKey, models.Actor{ID: user.ID, Role: user.Role})
		c.Next()
	}
}

// GetActor returns the authenticated actor set by AuthMiddleware.
func GetActor(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}
