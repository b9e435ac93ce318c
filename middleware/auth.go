// middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"farberge/models"
	"farberge/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by JWTAuthMiddleware.
const (
	ActorIDKey   = "actorID"
	ActorRoleKey = "actorRole"
)

// JWTAuthMiddleware validates the Bearer token and stores the caller's id
// and role in the context.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Missing or invalid Authorization header", Code: "UNAUTHORIZED"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		id, role, err := utils.ExtractActor(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Invalid token", Code: "UNAUTHORIZED"})
			return
		}
		switch role {
		case models.RoleCustomer, models.RoleWorker, models.RoleAdmin:
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Unknown role in token", Code: "UNAUTHORIZED"})
			return
		}

		c.Set(ActorIDKey, id)
		c.Set(ActorRoleKey, role)
		c.Next()
	}
}

// ActorFromContext returns the authenticated caller, if any.
func ActorFromContext(c *gin.Context) (models.Actor, bool) {
	id := c.GetString(ActorIDKey)
	role := c.GetString(ActorRoleKey)
	if id == "" || role == "" {
		return models.Actor{}, false
	}
	return models.Actor{ID: id, Role: role}, true
}
