package application

import (
	"context"

	"github.com/dormhub/service-booking/internal/domain/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PricingService prices stays against a room's current rate configuration.
// Previews and the charge fixed on a booking both go through Quote.
type PricingService struct {
	rates  pricing.RateRepository
	engine *pricing.Engine
	logger *zap.Logger
}

// NewPricingService creates a new PricingService.
func NewPricingService(rates pricing.RateRepository, engine *pricing.Engine, logger *zap.Logger) *PricingService {
	return &PricingService{
		rates:  rates,
		engine: engine,
		logger: logger,
	}
}

// Quote loads the room's rate config and prices stay.
func (s *PricingService) Quote(ctx context.Context, roomID uuid.UUID, stay pricing.StayRange) (pricing.Quote, *pricing.RateConfig, error) {
	cfg, err := s.rates.FindByRoomID(ctx, roomID)
	if err != nil {
		return pricing.Quote{}, nil, err
	}

	q, err := s.engine.Quote(*cfg, stay)
	if err != nil {
		s.logger.Warn("pricing quote rejected",
			zap.String("room_id", roomID.String()),
			zap.String("policy", cfg.Policy.String()),
			zap.String("stay", stay.String()),
			zap.Error(err),
		)
		return pricing.Quote{}, nil, err
	}
	return q, cfg, nil
}

// GetQuote prices a stay given as YYYY-MM-DD strings.
func (s *PricingService) GetQuote(ctx context.Context, roomID uuid.UUID, start, end string) (*QuoteDTO, error) {
	stay, err := pricing.ParseStayRange(start, end)
	if err != nil {
		return nil, err
	}

	q, _, err := s.Quote(ctx, roomID, stay)
	if err != nil {
		return nil, err
	}

	result := toQuoteDTO(roomID, stay, q)
	return &result, nil
}
