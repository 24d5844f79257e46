package payment

import (
	"context"

	"github.com/google/uuid"
)

// RecordRepository defines the persistence contract for payment records.
type RecordRepository interface {
	// FindByBookingID retrieves the record of a booking.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Record, error)

	// FindByBookingIDs retrieves records for many bookings, keyed by booking ID.
	FindByBookingIDs(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID]*Record, error)

	// Save persists a new record.
	Save(ctx context.Context, record *Record) error

	// Update persists changes to an existing record with optimistic locking.
	Update(ctx context.Context, record *Record) error
}
