package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskhub-dev/taskhub/internal/domain/user"
)

// RequireRole gates a route on the caller's role. Runs after RequireAuth.
func (m *AuthMiddleware) RequireRole(required user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)

		if !ok {
			abortUnauthorized(c, "Missing identity context")
			return
		}

		if claims.Role != required {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Admin role required",
			})
			return
		}
		c.Next()
	}
}
