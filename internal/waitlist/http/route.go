package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, identityMiddleware gin.HandlerFunc) {
	group := g.Group("/waitlists")

	group.Use(identityMiddleware)
	{
		group.POST("", h.Register)
		group.DELETE("/:id", h.Cancel)
	}
}
