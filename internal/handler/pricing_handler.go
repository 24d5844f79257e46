package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dormhub/service-booking/internal/application"
	"github.com/dormhub/service-booking/internal/platform/response"
)

// QuoteProvider prices a prospective stay.
type QuoteProvider interface {
	GetQuote(ctx context.Context, roomID uuid.UUID, start, end string) (*application.QuoteDTO, error)
}

// PricingHandler serves pricing previews.
type PricingHandler struct {
	quotes QuoteProvider
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(quotes QuoteProvider) *PricingHandler {
	return &PricingHandler{quotes: quotes}
}

// RegisterRoutes registers pricing routes.
func (h *PricingHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/api/v1/rooms/:roomId/pricing-quote", h.GetQuote)
}

// GetQuote handles GET /api/v1/rooms/:roomId/pricing-quote?start=&end=.
func (h *PricingHandler) GetQuote(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("roomId"))
	if err != nil {
		response.BadRequest(c, "invalid room ID")
		return
	}

	start, end := c.Query("start"), c.Query("end")
	if start == "" || end == "" {
		response.BadRequest(c, "start and end query parameters are required (YYYY-MM-DD)")
		return
	}

	quote, err := h.quotes.GetQuote(c.Request.Context(), roomID, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, quote)
}
