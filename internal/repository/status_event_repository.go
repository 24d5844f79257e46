package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dormhub/service-booking/internal/domain/ledger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusEventModel is the GORM model for the append-only booking_status_events table.
type StatusEventModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_booking_status_events_collection,where:collection_id IS NOT NULL;not null"`
	Axis       string    `gorm:"not null;size:10"`
	FromStatus string    `gorm:"size:20"`
	ToStatus   string    `gorm:"not null;size:20"`
	ActorType  string    `gorm:"not null;size:30"`
	ActorID    string    `gorm:"size:100"`
	Reason     string    `gorm:"size:500"`
	// CollectionID is NULL except on collections reported with a provider reference.
	CollectionID *string   `gorm:"size:100;uniqueIndex:idx_booking_status_events_collection,where:collection_id IS NOT NULL"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (StatusEventModel) TableName() string { return "booking_status_events" }

// GormStatusEventRepository implements ledger.EventLog using GORM.
type GormStatusEventRepository struct {
	db *gorm.DB
}

// NewGormStatusEventRepository creates a new GormStatusEventRepository.
func NewGormStatusEventRepository(db *gorm.DB) *GormStatusEventRepository {
	return &GormStatusEventRepository{db: db}
}

// Append inserts one status event.
func (r *GormStatusEventRepository) Append(ctx context.Context, e ledger.StatusEvent) error {
	model := StatusEventModel{
		ID:         e.ID,
		BookingID:  e.BookingID,
		Axis:       string(e.Axis),
		FromStatus: e.From,
		ToStatus:   e.To,
		ActorType:  e.ActorType,
		ActorID:    e.ActorID,
		Reason:     e.Reason,
		CreatedAt:  e.CreatedAt,
	}
	if e.CollectionID != "" {
		id := e.CollectionID
		model.CollectionID = &id
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to append status event: %w", err)
	}
	return nil
}

// ListByBooking returns a booking's events, oldest first.
func (r *GormStatusEventRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]ledger.StatusEvent, error) {
	var models []StatusEventModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list status events: %w", err)
	}

	evts := make([]ledger.StatusEvent, len(models))
	for i, m := range models {
		evts[i] = ledger.StatusEvent{
			ID:        m.ID,
			BookingID: m.BookingID,
			Axis:      ledger.Axis(m.Axis),
			From:      m.FromStatus,
			To:        m.ToStatus,
			ActorType: m.ActorType,
			ActorID:   m.ActorID,
			Reason:    m.Reason,
			CreatedAt: m.CreatedAt,
		}
		if m.CollectionID != nil {
			evts[i].CollectionID = *m.CollectionID
		}
	}
	return evts, nil
}

// HasCollection reports whether a payment event with collectionID exists for the booking.
func (r *GormStatusEventRepository) HasCollection(ctx context.Context, bookingID uuid.UUID, collectionID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&StatusEventModel{}).
		Where("booking_id = ? AND collection_id = ?", bookingID, collectionID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up collection: %w", err)
	}
	return count > 0, nil
}
