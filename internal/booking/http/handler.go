package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/roomhive/meeting-room-backend/internal/auth"
	"github.com/roomhive/meeting-room-backend/internal/booking"
	"github.com/roomhive/meeting-room-backend/internal/pkg/request"
	"github.com/roomhive/meeting-room-backend/internal/pkg/response"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

// requester builds the booking requester identity from the JWT context.
func requester(c *gin.Context) booking.Requester {
	return booking.Requester{
		Email:   auth.GetUserEmail(c),
		Name:    auth.GetUserName(c),
		IsAdmin: auth.IsAdmin(c),
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	// All wall-clock inputs are interpreted as UTC.
	start, err := time.Parse("2006-01-02 15:04", req.Date+" "+req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date or start time"})
		return
	}

	who := requester(c)
	b, err := h.service.Create(c.Request.Context(), booking.CreateRequest{
		RoomID:          req.RoomID,
		StartTime:       start,
		DurationMinutes: req.DurationMinutes,
		UserEmail:       who.Email,
		UserName:        who.Name,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), uri.ID, requester(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// List returns the requester's ACTIVE bookings, optionally filtered by date
// and/or room.
func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	filter := booking.Filter{RoomID: req.RoomID}
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		filter.Date = &d
	}

	items, err := h.service.ListMine(c.Request.Context(), auth.GetUserEmail(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := make([]BookingResponse, len(items))
	for i, b := range items {
		resp[i] = NewBookingResponse(b)
	}

	c.JSON(http.StatusOK, response.NewListResponse(resp))
}

// Availability returns a room's capacity and its ACTIVE bookings on a date.
func (h *Handler) Availability(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var q AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required (YYYY-MM-DD)"})
		return
	}
	date, _ := time.Parse("2006-01-02", q.Date)

	a, err := h.service.Availability(c.Request.Context(), uri.ID, date)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAvailabilityResponse(a))
}

// AllAvailabilities returns the availability projection of every room on a date.
func (h *Handler) AllAvailabilities(c *gin.Context) {
	var q AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required (YYYY-MM-DD)"})
		return
	}
	date, _ := time.Parse("2006-01-02", q.Date)

	items, err := h.service.AllAvailabilities(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := make([]AvailabilityResponse, len(items))
	for i, a := range items {
		resp[i] = NewAvailabilityResponse(a)
	}

	c.JSON(http.StatusOK, response.NewListResponse(resp))
}

func (h *Handler) Complete(c *gin.Context) {
	h.applyTransition(c, h.service.Complete)
}

func (h *Handler) Cancel(c *gin.Context) {
	h.applyTransition(c, h.service.Cancel)
}

func (h *Handler) applyTransition(
	c *gin.Context,
	fn func(ctx context.Context, id string, req booking.Requester) (*booking.Booking, error),
) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	b, err := fn(c.Request.Context(), uri.ID, requester(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}
