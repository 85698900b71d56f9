package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"agri-broker/broker-portal/broker-portal-backend/internal/session"
	"agri-broker/broker-portal/broker-portal-backend/internal/users"
)

// Authenticate requires a valid bearer token. The token may also be passed
// as the "token" query parameter for WebSocket upgrades.
func (m *TokenManager) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if raw == "" {
			raw = c.Query("token")
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}

		claims, err := m.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		session.Set(c, claims.ID, string(claims.Role))
		c.Next()
	}
}

// RequireRole rejects principals whose role is not listed
func RequireRole(roles ...users.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := users.Role(session.Role(c))
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	}
}
