package application

import (
	"context"
	"testing"

	"github.com/dormhub/service-booking/internal/domain/pricing"
	"github.com/dormhub/service-booking/internal/platform/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPricingService_GetQuote(t *testing.T) {
	rates := newMemRates()
	roomID := uuid.New()
	daily := decimal.NewFromInt(300)
	rates.put(pricing.RateConfig{
		RoomID:      roomID,
		Policy:      pricing.PolicyMonthlyWithDaily,
		MonthlyRate: decimal.NewFromInt(5000),
		DailyRate:   &daily,
	})
	svc := NewPricingService(rates, pricing.NewEngine(), zap.NewNop())
	ctx := context.Background()

	q, err := svc.GetQuote(ctx, roomID, "2026-01-01", "2026-02-05")
	require.NoError(t, err)
	assert.Equal(t, 35, q.Days)
	assert.Equal(t, "monthly_with_daily", q.Policy)
	assert.Equal(t, 1, q.Breakdown.Months)
	assert.Equal(t, 5, q.Breakdown.ExtraDays)
	assert.True(t, q.Breakdown.ExtraDaysCharge.Equal(decimal.NewFromInt(1500)))
	assert.True(t, q.Total.Equal(decimal.NewFromInt(6500)))
	assert.Equal(t, "2026-01-01", q.StayStart)

	_, err = svc.GetQuote(ctx, roomID, "2026-01-05", "2026-01-05")
	requireCode(t, err, domain.CodeValidation)

	_, err = svc.GetQuote(ctx, roomID, "01/05/2026", "2026-01-09")
	requireCode(t, err, domain.CodeValidation)

	_, err = svc.GetQuote(ctx, uuid.New(), "2026-01-01", "2026-01-09")
	requireCode(t, err, domain.CodeNotFound)
}
