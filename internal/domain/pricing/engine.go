// Package pricing turns a room's rate configuration and a stay into a charge.
package pricing

import (
	"github.com/dormhub/service-booking/internal/platform/domain"
	"github.com/shopspring/decimal"
)

// DaysPerMonth is the length of one billing month.
const DaysPerMonth = 30

// Breakdown explains how a total was reached.
type Breakdown struct {
	Months          int
	ExtraDays       int
	MonthsCharge    decimal.Decimal
	ExtraDaysCharge decimal.Decimal
}

// Quote is the derived charge for a stay. It is never persisted.
type Quote struct {
	Days      int
	Policy    BillingPolicy
	Breakdown Breakdown
	Total     decimal.Decimal
}

// Engine computes quotes. It holds no state; the zero value is ready to use.
type Engine struct{}

// NewEngine creates a new Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Quote prices stay under cfg. Every monetary result is rounded to 2 places,
// half away from zero.
//
// Policies:
//   - monthly: max(floor(days/30), 1) months; leftover days are not billed
//   - monthly_with_daily: full months plus leftover days at the daily rate,
//     with the leftover charge capped at one monthly rate
//   - daily: every day at the daily rate
//
// The monthly_with_daily cap departs from the plain
// months*monthly + extraDays*daily sum. Without it a stay one day short of a
// full month could cost more than the full month (5000/300 over 59 days sums
// to 13700 while 60 days is 10000); with it the quote is 10000 and totals
// never decrease as the stay grows.
func (e *Engine) Quote(cfg RateConfig, stay StayRange) (Quote, error) {
	if err := cfg.Validate(); err != nil {
		return Quote{}, err
	}
	days := stay.Days()
	if days < 1 {
		return Quote{}, domain.NewValidationError("stay must be at least one day")
	}

	var b Breakdown
	switch cfg.Policy {
	case PolicyMonthly:
		b.Months = days / DaysPerMonth
		if b.Months == 0 {
			b.Months = 1
		}
		b.MonthsCharge = cfg.MonthlyRate.Mul(decimal.NewFromInt(int64(b.Months)))
		b.ExtraDaysCharge = decimal.Zero

	case PolicyMonthlyWithDaily:
		b.Months = days / DaysPerMonth
		b.ExtraDays = days - b.Months*DaysPerMonth
		b.MonthsCharge = cfg.MonthlyRate.Mul(decimal.NewFromInt(int64(b.Months)))
		b.ExtraDaysCharge = cfg.DailyRate.Mul(decimal.NewFromInt(int64(b.ExtraDays)))
		// A partial month never costs more than a full one.
		if b.ExtraDaysCharge.GreaterThan(cfg.MonthlyRate) {
			b.ExtraDaysCharge = cfg.MonthlyRate
		}

	case PolicyDaily:
		b.ExtraDays = days
		b.MonthsCharge = decimal.Zero
		b.ExtraDaysCharge = cfg.DailyRate.Mul(decimal.NewFromInt(int64(days)))
	}

	b.MonthsCharge = b.MonthsCharge.Round(2)
	b.ExtraDaysCharge = b.ExtraDaysCharge.Round(2)

	return Quote{
		Days:      days,
		Policy:    cfg.Policy,
		Breakdown: b,
		Total:     b.MonthsCharge.Add(b.ExtraDaysCharge).Round(2),
	}, nil
}
