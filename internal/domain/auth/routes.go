package auth

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup, signInLimit gin.HandlerFunc) {
	authGroup := v1.Group("/auth")
	{
		if signInLimit != nil {
			authGroup.POST("/signin", signInLimit, h.SignIn)
		} else {
			authGroup.POST("/signin", h.SignIn)
		}
		authGroup.GET("/verify", h.Verify)
		authGroup.POST("/signout", h.SignOut)
		authGroup.GET("/dev-magic-link", h.DevMagicLink)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.GET("/auth/me", h.Me)
}
