package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/identity"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/pkg/request"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/pkg/response"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/waitlist"
)

type Handler struct {
	service waitlist.Service
}

func NewHandler(service waitlist.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(c *gin.Context) {
	var body RegisterWaitlistRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	checkin, _ := time.Parse(dateLayout, body.Checkin)
	checkout, _ := time.Parse(dateLayout, body.Checkout)

	entry, err := h.service.Register(c.Request.Context(), waitlist.RegisterRequest{
		UserID:     identity.GetUserID(c),
		RoomID:     body.RoomID,
		Checkin:    checkin,
		Checkout:   checkout,
		GuestCount: body.GuestCount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewWaitlistEntryResponse(entry))
}

func (h *Handler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid waitlist id"})
		return
	}

	if err := h.service.Cancel(c.Request.Context(), uri.ID, identity.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
