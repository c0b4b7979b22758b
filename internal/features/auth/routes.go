package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the auth endpoints.
func RegisterRoutes(api *gin.RouterGroup, h *Handler) {
	group := api.Group("/auth")
	{
		group.POST("/login", h.Login)
		group.POST("/refresh", h.Refresh)
	}
}
