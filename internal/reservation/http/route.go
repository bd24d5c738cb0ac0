package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, identityMiddleware gin.HandlerFunc) {
	group := g.Group("/reservations")

	group.Use(identityMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", h.Create)
		group.POST("/:id/payment", h.ConfirmPayment)
		group.POST("/:id/checkin", h.CheckIn)
		group.POST("/:id/cancel", h.Cancel)
		group.GET("/:id/refund-quote", h.RefundQuote)
	}
}
