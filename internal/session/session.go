// Package session carries the authenticated principal through a gin request.
package session

import "github.com/gin-gonic/gin"

const (
	userIDKey = "user_id"
	roleKey   = "role"
)

// Set stores the principal resolved by the auth middleware
func Set(c *gin.Context, userID, role string) {
	c.Set(userIDKey, userID)
	c.Set(roleKey, role)
}

// UserID returns the authenticated user id, or "" outside an authenticated route
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// Role returns the authenticated user role
func Role(c *gin.Context) string {
	return c.GetString(roleKey)
}
