package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/coupon"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/identity"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/pkg/request"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/pkg/response"
)

type Handler struct {
	service coupon.Service
}

func NewHandler(service coupon.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	coupons, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]CouponResponse, len(coupons))
	for i, cp := range coupons {
		items[i] = NewCouponResponse(cp)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Issue hands today's coupon to the caller. Quota exhaustion and repeat
// requests come back as 409s the client can surface as "try tomorrow".
func (h *Handler) Issue(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coupon id"})
		return
	}

	uc, err := h.service.Issue(c.Request.Context(), identity.GetUserID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewUserCouponResponse(uc))
}
