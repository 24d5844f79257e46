package handler

import (
	"github.com/gin-gonic/gin"

	bookingDomain "github.com/dormhub/service-booking/internal/domain/booking"
	"github.com/dormhub/service-booking/internal/platform/response"
)

// AdminBookingHandler handles admin HTTP requests for booking management.
// Access control is enforced by the gateway.
type AdminBookingHandler struct {
	queries BookingReader
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(queries BookingReader) *AdminBookingHandler {
	return &AdminBookingHandler{queries: queries}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/api/v1/admin")
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/refunds-owed", h.RefundsOwed)
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.queries.ListBookings(c.Request.Context(), bookingDomain.ListFilter{}, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// RefundsOwed handles GET /api/v1/admin/refunds-owed: cancelled bookings that
// still hold collected money.
func (h *AdminBookingHandler) RefundsOwed(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.queries.ListRefundsOwed(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.queries.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
