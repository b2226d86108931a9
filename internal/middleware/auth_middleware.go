package middleware

import (
	"strings"

	"ottbot/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminAuthRequired validates the bearer token and sets the admin identity
// on the request context. All admin API routes sit behind this.
func AdminAuthRequired(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		if claims.Role != "admin" {
			utils.ForbiddenResponse(c)
			c.Abort()
			return
		}

		c.Set("admin_username", claims.Username)
		c.Set("admin_role", claims.Role)
		c.Next()
	}
}

// AdminUsername returns the authenticated admin's username, or "admin" when
// the handler runs outside the auth middleware (tests).
func AdminUsername(c *gin.Context) string {
	if username, exists := c.Get("admin_username"); exists {
		if s, ok := username.(string); ok && s != "" {
			return s
		}
	}
	return "admin"
}
