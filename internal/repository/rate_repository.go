package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dormhub/service-booking/internal/domain/pricing"
	"github.com/dormhub/service-booking/internal/platform/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomRateModel is the GORM model for the room_rates table. Rows are owned by
// the property catalogue; this service only reads them.
type RoomRateModel struct {
	RoomID        uuid.UUID           `gorm:"type:uuid;primaryKey"`
	PropertyID    uuid.UUID           `gorm:"type:uuid;index;not null"`
	BillingPolicy string              `gorm:"not null;size:30"`
	MonthlyRate   decimal.Decimal     `gorm:"type:numeric(12,2);not null;check:room_rates_monthly_rate_check,monthly_rate >= 0"`
	DailyRate     decimal.NullDecimal `gorm:"type:numeric(12,2);check:room_rates_daily_rate_check,daily_rate IS NULL OR daily_rate > 0"`
	UpdatedAt     time.Time           `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (RoomRateModel) TableName() string { return "room_rates" }

// GormRateRepository implements RateRepository using GORM.
type GormRateRepository struct {
	db *gorm.DB
}

// NewGormRateRepository creates a new GormRateRepository.
func NewGormRateRepository(db *gorm.DB) *GormRateRepository {
	return &GormRateRepository{db: db}
}

// FindByRoomID returns the room's rate config. A stored policy the engine does
// not know is reported as a configuration error.
func (r *GormRateRepository) FindByRoomID(ctx context.Context, roomID uuid.UUID) (*pricing.RateConfig, error) {
	var model RoomRateModel
	if err := r.db.WithContext(ctx).Where("room_id = ?", roomID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Room", roomID.String())
		}
		return nil, fmt.Errorf("failed to find room rate: %w", err)
	}

	policy, err := pricing.ParseBillingPolicy(model.BillingPolicy)
	if err != nil {
		return nil, err
	}

	cfg := &pricing.RateConfig{
		RoomID:      model.RoomID,
		PropertyID:  model.PropertyID,
		Policy:      policy,
		MonthlyRate: model.MonthlyRate,
	}
	if model.DailyRate.Valid {
		daily := model.DailyRate.Decimal
		cfg.DailyRate = &daily
	}
	return cfg, nil
}

// Upsert writes a rate config. It backs catalogue sync and test fixtures.
func (r *GormRateRepository) Upsert(ctx context.Context, cfg pricing.RateConfig) error {
	model := RoomRateModel{
		RoomID:        cfg.RoomID,
		PropertyID:    cfg.PropertyID,
		BillingPolicy: string(cfg.Policy),
		MonthlyRate:   cfg.MonthlyRate,
		UpdatedAt:     time.Now().UTC(),
	}
	if cfg.DailyRate != nil {
		model.DailyRate = decimal.NewNullDecimal(*cfg.DailyRate)
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"property_id", "billing_policy", "monthly_rate", "daily_rate", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert room rate: %w", err)
	}
	return nil
}
