package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes registers Auth routes
func RegisterRoutes(r gin.IRouter, handler *Handler) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", handler.Register)
		authGroup.POST("/login", handler.Login)
	}
}
