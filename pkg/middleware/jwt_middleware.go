package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"masareefy/pkg/utils"
)

const (
	ContextTenantID = "tenant_id"
	ContextRole     = "role"
	RoleAdmin       = "admin"
)

func JWTAuthMiddleware(secret []byte) gin.HandlerFunc {

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondErrorCode(c, http.StatusUnauthorized, "unauthorized", "Authorization header missing or invalid")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateToken(secret, tokenString)
		if err != nil {
			utils.RespondErrorCode(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			c.Abort()
			return
		}

		// Pass tenant information to the next handler
		c.Set(ContextTenantID, claims.TenantID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

func RoleMiddleware(requiredRole string) gin.HandlerFunc {

	return func(c *gin.Context) {
		role := c.GetString(ContextRole)

		if role != requiredRole {
			utils.RespondErrorCode(c, http.StatusForbidden, "forbidden", "Forbidden: insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}
