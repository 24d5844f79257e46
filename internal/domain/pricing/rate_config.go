package pricing

import (
	"context"
	"fmt"

	"github.com/dormhub/service-booking/internal/platform/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingPolicy determines how a stay's duration converts to a charge.
type BillingPolicy string

const (
	PolicyMonthly          BillingPolicy = "monthly"
	PolicyMonthlyWithDaily BillingPolicy = "monthly_with_daily"
	PolicyDaily            BillingPolicy = "daily"
)

// IsValid returns true if the policy is a recognized billing policy.
func (p BillingPolicy) IsValid() bool {
	switch p {
	case PolicyMonthly, PolicyMonthlyWithDaily, PolicyDaily:
		return true
	}
	return false
}

// RequiresDailyRate reports whether the policy bills leftover days.
func (p BillingPolicy) RequiresDailyRate() bool {
	return p == PolicyMonthlyWithDaily || p == PolicyDaily
}

// String returns the string representation of the policy.
func (p BillingPolicy) String() string {
	return string(p)
}

// ParseBillingPolicy converts a stored policy name. An unknown name is a
// configuration problem of the room, not bad caller input.
func ParseBillingPolicy(s string) (BillingPolicy, error) {
	p := BillingPolicy(s)
	if !p.IsValid() {
		return "", domain.NewConfigurationError(fmt.Sprintf("unknown billing policy: %q", s))
	}
	return p, nil
}

// RateConfig is a room's billing configuration. It is owned by the room
// catalogue and read-only here.
type RateConfig struct {
	RoomID      uuid.UUID
	PropertyID  uuid.UUID
	Policy      BillingPolicy
	MonthlyRate decimal.Decimal
	DailyRate   *decimal.Decimal
}

// Validate checks the config against its policy. An absent daily rate under a
// policy that bills days is an error, never a silent zero.
func (c RateConfig) Validate() error {
	if !c.Policy.IsValid() {
		return domain.NewConfigurationError(fmt.Sprintf("unknown billing policy: %q", c.Policy))
	}
	if c.MonthlyRate.IsNegative() {
		return domain.NewConfigurationError("monthly rate must not be negative")
	}
	if c.DailyRate != nil && c.DailyRate.IsNegative() {
		return domain.NewConfigurationError("daily rate must not be negative")
	}
	if c.Policy.RequiresDailyRate() && (c.DailyRate == nil || !c.DailyRate.IsPositive()) {
		return domain.NewConfigurationError(
			fmt.Sprintf("billing policy %s requires a positive daily rate", c.Policy))
	}
	return nil
}

// RateRepository reads room rate configuration.
type RateRepository interface {
	// FindByRoomID returns the room's rate config or a NOT_FOUND error.
	FindByRoomID(ctx context.Context, roomID uuid.UUID) (*RateConfig, error)
}
