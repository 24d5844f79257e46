package handler

import (
	"context"
	"strconv"

	"github.com/dormhub/service-booking/internal/application"
	bookingDomain "github.com/dormhub/service-booking/internal/domain/booking"
	"github.com/dormhub/service-booking/internal/domain/ledger"
	"github.com/dormhub/service-booking/internal/platform/domain"
	"github.com/dormhub/service-booking/internal/platform/middleware"
	"github.com/dormhub/service-booking/internal/platform/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BookingCommands changes booking and payment state.
type BookingCommands interface {
	CreateBooking(ctx context.Context, actor ledger.Actor, req application.CreateBookingRequest) (*application.BookingView, error)
	UpdateBookingStatus(ctx context.Context, bookingID uuid.UUID, actor ledger.Actor, req application.UpdateStatusRequest) (*application.BookingView, error)
	UpdatePaymentStatus(ctx context.Context, bookingID uuid.UUID, actor ledger.Actor, req application.UpdatePaymentStatusRequest) (*application.PaymentView, error)
	ProcessRefund(ctx context.Context, bookingID uuid.UUID, actor ledger.Actor, req application.RefundRequest) (*application.BookingView, error)
}

// BookingReader serves booking read models.
type BookingReader interface {
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*application.BookingView, error)
	GetBookingByNumber(ctx context.Context, number string) (*application.BookingView, error)
	ListBookings(ctx context.Context, filter bookingDomain.ListFilter, page, limit int) (*domain.PaginatedResult[application.BookingView], error)
	ListRefundsOwed(ctx context.Context, page, limit int) (*domain.PaginatedResult[application.BookingView], error)
	GetStatusHistory(ctx context.Context, bookingID uuid.UUID) ([]application.StatusEventDTO, error)
	GetBookingStats(ctx context.Context) (*application.BookingStatsDTO, error)
}

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	commands BookingCommands
	queries  BookingReader
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(commands BookingCommands, queries BookingReader) *BookingHandler {
	return &BookingHandler{commands: commands, queries: queries}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/api/v1/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/number/:number", h.GetBookingByNumber)
		bookings.GET("/:id", h.GetBooking)
		bookings.GET("/:id/history", h.GetStatusHistory)
		bookings.PATCH("/:id/status", h.UpdateStatus)
		bookings.PATCH("/:id/payment-status", h.UpdatePaymentStatus)
		bookings.POST("/:id/refund", h.ProcessRefund)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.commands.CreateBooking(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings with optional property_id,
// status and refund_owed filters.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, limit := parsePagination(c)

	result, err := h.queries.ListBookings(c.Request.Context(), filter, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}

	result, err := h.queries.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBookingByNumber handles GET /api/v1/bookings/number/:number.
func (h *BookingHandler) GetBookingByNumber(c *gin.Context) {
	result, err := h.queries.GetBookingByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetStatusHistory handles GET /api/v1/bookings/:id/history.
func (h *BookingHandler) GetStatusHistory(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}

	result, err := h.queries.GetStatusHistory(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateStatus handles PATCH /api/v1/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}

	var req application.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.commands.UpdateBookingStatus(c.Request.Context(), bookingID, actorFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdatePaymentStatus handles PATCH /api/v1/bookings/:id/payment-status.
func (h *BookingHandler) UpdatePaymentStatus(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}

	var req application.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.commands.UpdatePaymentStatus(c.Request.Context(), bookingID, actorFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ProcessRefund handles POST /api/v1/bookings/:id/refund.
func (h *BookingHandler) ProcessRefund(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}

	req := application.RefundRequest{ShouldRefund: true}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.commands.ProcessRefund(c.Request.Context(), bookingID, actorFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

func bookingIDParam(c *gin.Context) (uuid.UUID, bool) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return uuid.Nil, false
	}
	return bookingID, true
}

func actorFrom(c *gin.Context) ledger.Actor {
	a := middleware.GetActor(c)
	return ledger.Actor{Type: a.Type, ID: a.ID}
}

func parseListFilter(c *gin.Context) (bookingDomain.ListFilter, error) {
	var filter bookingDomain.ListFilter

	if raw := c.Query("property_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, domain.NewValidationError("invalid property_id")
		}
		filter.PropertyID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status, err := bookingDomain.ParseBookingStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	if raw := c.Query("refund_owed"); raw != "" {
		owed, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, domain.NewValidationError("refund_owed must be true or false")
		}
		filter.RefundOwed = owed
	}
	return filter, nil
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
