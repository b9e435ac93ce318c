package middleware

import (
	"net/http"

	"farberge/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through only for the listed roles. It must
// run after JWTAuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Not authenticated", Code: "UNAUTHORIZED"})
			return
		}
		if !allowed[actor.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse{Message: "Role " + actor.Role + " may not access this resource", Code: "FORBIDDEN"})
			return
		}
		c.Next()
	}
}
