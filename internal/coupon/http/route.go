package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, identityMiddleware gin.HandlerFunc) {
	group := g.Group("/coupons")

	group.Use(identityMiddleware)
	{
		group.GET("", h.List)
		group.POST("/:id/issue", h.Issue)
	}
}
