package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/identity"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/pkg/request"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/pkg/response"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/reservation"
)

type Handler struct {
	service reservation.Service
}

func NewHandler(service reservation.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateReservationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	checkin, _ := time.Parse(dateLayout, body.Checkin)
	checkout, _ := time.Parse(dateLayout, body.Checkout)

	req := reservation.CreateRequest{
		RoomID:       body.RoomID,
		UserID:       identity.GetUserID(c),
		Checkin:      checkin,
		Checkout:     checkout,
		GuestCount:   body.GuestCount,
		UserCouponID: body.UserCouponID,
	}

	res, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewReservationResponse(res))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return
	}

	res, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if res.UserID != identity.GetUserID(c) {
		response.Error(c, reservation.ErrPermissionDenied)
		return
	}
	c.JSON(http.StatusOK, NewReservationResponse(res))
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.service.ListByUser(c.Request.Context(), identity.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ReservationResponse, len(list))
	for i, res := range list {
		items[i] = NewReservationResponse(res)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ConfirmPayment is called by the payment callback once the provider
// reports a captured payment for the reservation.
func (h *Handler) ConfirmPayment(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return
	}

	res, err := h.service.ConfirmPayment(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReservationResponse(res))
}

func (h *Handler) CheckIn(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return
	}

	res, err := h.service.CheckIn(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReservationResponse(res))
}

func (h *Handler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return
	}

	result, err := h.service.Cancel(c.Request.Context(), uri.ID, identity.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := CancelReservationResponse{Reservation: NewReservationResponse(result.Reservation)}
	if result.Refund.PolicyCode != "" {
		quote := NewRefundQuoteResponse(result.Refund)
		resp.Refund = &quote
	}
	c.JSON(http.StatusOK, resp)
}

// RefundQuote previews the refund a cancellation would grant right now,
// without changing anything.
func (h *Handler) RefundQuote(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return
	}

	res, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if res.UserID != identity.GetUserID(c) {
		response.Error(c, reservation.ErrPermissionDenied)
		return
	}

	quote, err := h.service.RefundQuote(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewRefundQuoteResponse(quote))
}
