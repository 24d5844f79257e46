package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	paymentDomain "github.com/dormhub/service-booking/internal/domain/payment"
	"github.com/dormhub/service-booking/internal/platform/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentRecordModel is the GORM model for the payment_records table.
type PaymentRecordModel struct {
	BookingID       uuid.UUID           `gorm:"type:uuid;primaryKey"`
	PaymentStatus   string              `gorm:"not null;size:20;index"`
	AmountCollected decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	RefundAmount    decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	RefundedFrom    string              `gorm:"size:20"`
	RefundedAt      *time.Time          `gorm:""`
	Version         int64               `gorm:"not null;default:1"`
	CreatedAt       time.Time           `gorm:"not null"`
	UpdatedAt       time.Time           `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (PaymentRecordModel) TableName() string { return "payment_records" }

// GormPaymentRepository implements RecordRepository using GORM.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository.
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByBookingID retrieves the payment record of a booking.
func (r *GormPaymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*paymentDomain.Record, error) {
	var model PaymentRecordModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("PaymentRecord", bookingID.String())
		}
		return nil, fmt.Errorf("failed to find payment record: %w", err)
	}
	return toPaymentDomain(&model)
}

// FindByBookingIDs retrieves the payment records of several bookings, keyed by
// booking ID. Bookings without a record are absent from the map.
func (r *GormPaymentRepository) FindByBookingIDs(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID]*paymentDomain.Record, error) {
	records := make(map[uuid.UUID]*paymentDomain.Record, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return records, nil
	}

	var models []PaymentRecordModel
	if err := r.db.WithContext(ctx).Where("booking_id IN ?", bookingIDs).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find payment records: %w", err)
	}
	for i := range models {
		rec, err := toPaymentDomain(&models[i])
		if err != nil {
			return nil, err
		}
		records[rec.BookingID()] = rec
	}
	return records, nil
}

// Save persists a new payment record.
func (r *GormPaymentRepository) Save(ctx context.Context, rec *paymentDomain.Record) error {
	if err := r.db.WithContext(ctx).Create(toPaymentModel(rec)).Error; err != nil {
		return fmt.Errorf("failed to save payment record: %w", err)
	}
	return nil
}

// Update persists changes to an existing payment record with optimistic locking.
// The record's version must already be incremented.
func (r *GormPaymentRepository) Update(ctx context.Context, rec *paymentDomain.Record) error {
	model := toPaymentModel(rec)
	previousVersion := rec.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&PaymentRecordModel{}).
		Where("booking_id = ? AND version = ?", model.BookingID, previousVersion).
		Updates(map[string]interface{}{
			"payment_status":   model.PaymentStatus,
			"amount_collected": model.AmountCollected,
			"refund_amount":    model.RefundAmount,
			"refunded_from":    model.RefundedFrom,
			"refunded_at":      model.RefundedAt,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update payment record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("payment record was modified by another transaction")
	}
	return nil
}

func toPaymentModel(rec *paymentDomain.Record) *PaymentRecordModel {
	m := &PaymentRecordModel{
		BookingID:       rec.BookingID(),
		PaymentStatus:   string(rec.Status()),
		AmountCollected: rec.AmountCollected(),
		RefundedFrom:    string(rec.RefundedFrom()),
		RefundedAt:      rec.RefundedAt(),
		Version:         rec.Version(),
		CreatedAt:       rec.CreatedAt(),
		UpdatedAt:       rec.UpdatedAt(),
	}
	if amt := rec.RefundAmount(); amt != nil {
		m.RefundAmount = decimal.NewNullDecimal(*amt)
	}
	return m
}

func toPaymentDomain(m *PaymentRecordModel) (*paymentDomain.Record, error) {
	status, err := paymentDomain.ParsePaymentStatus(m.PaymentStatus)
	if err != nil {
		return nil, fmt.Errorf("payment record %s: %w", m.BookingID, err)
	}

	var refundAmount *decimal.Decimal
	if m.RefundAmount.Valid {
		amt := m.RefundAmount.Decimal
		refundAmount = &amt
	}

	return paymentDomain.ReconstructRecord(
		m.BookingID,
		status,
		m.AmountCollected,
		refundAmount,
		paymentDomain.PaymentStatus(m.RefundedFrom),
		m.RefundedAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
