// Package ledger groups the booking and payment stores into one consistency
// unit so both records change together or not at all.
package ledger

import (
	"context"
	"time"

	"github.com/dormhub/service-booking/internal/domain/booking"
	"github.com/dormhub/service-booking/internal/domain/payment"
	"github.com/google/uuid"
)

// Axis names which status a StatusEvent describes.
type Axis string

const (
	AxisBooking Axis = "booking"
	AxisPayment Axis = "payment"
)

// StatusEvent is one accepted status change. The log is append-only.
type StatusEvent struct {
	ID        uuid.UUID
	BookingID uuid.UUID
	Axis      Axis
	From      string
	To        string
	ActorType string
	ActorID   string
	Reason    string
	// CollectionID is the provider's reference for a payment collection,
	// unique per booking. Empty for every other change.
	CollectionID string
	CreatedAt    time.Time
}

// Actor identifies who requested a change.
type Actor struct {
	Type string
	ID   string
}

// NewStatusEvent stamps an event for a change made by actor.
func NewStatusEvent(bookingID uuid.UUID, axis Axis, from, to string, actor Actor, reason string) StatusEvent {
	return StatusEvent{
		ID:        uuid.New(),
		BookingID: bookingID,
		Axis:      axis,
		From:      from,
		To:        to,
		ActorType: actor.Type,
		ActorID:   actor.ID,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
}

// EventLog stores status events.
type EventLog interface {
	Append(ctx context.Context, event StatusEvent) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]StatusEvent, error)
	// HasCollection reports whether a collection with this ID was already
	// recorded for the booking.
	HasCollection(ctx context.Context, bookingID uuid.UUID, collectionID string) (bool, error)
}

// Tx exposes the stores bound to one transaction.
type Tx struct {
	Bookings booking.BookingRepository
	Payments payment.RecordRepository
	Events   EventLog
}

// UnitOfWork runs fn inside a transaction. A nil return commits; any error
// rolls back every write made through tx.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
