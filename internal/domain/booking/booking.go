package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/dormhub/service-booking/internal/domain/pricing"
	"github.com/dormhub/service-booking/internal/platform/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	guestName     string
	roomID        uuid.UUID
	propertyID    uuid.UUID
	stay          pricing.StayRange
	amount        decimal.Decimal
	status        BookingStatus

	cancellationReason string
	confirmedAt        *time.Time
	completedAt        *time.Time
	cancelledAt        *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a new Booking aggregate with status=pending. amount is the
// quoted charge at request time; it is fixed again on confirmation.
func NewBooking(
	guestName string,
	roomID uuid.UUID,
	propertyID uuid.UUID,
	stay pricing.StayRange,
	amount decimal.Decimal,
) (*Booking, error) {
	guestName = strings.TrimSpace(guestName)
	if guestName == "" {
		return nil, domain.NewValidationError("guest name is required")
	}
	if roomID == uuid.Nil {
		return nil, domain.NewValidationError("room ID is required")
	}
	if propertyID == uuid.Nil {
		return nil, domain.NewValidationError("property ID is required")
	}
	if stay.Days() < 1 {
		return nil, domain.NewValidationError("stay must be at least one day")
	}
	if amount.IsNegative() {
		return nil, domain.NewValidationError("amount must not be negative")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:            uuid.New(),
		bookingNumber: bookingNumber,
		guestName:     guestName,
		roomID:        roomID,
		propertyID:    propertyID,
		stay:          stay,
		amount:        amount,
		status:        StatusPending,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	guestName string,
	roomID uuid.UUID,
	propertyID uuid.UUID,
	stay pricing.StayRange,
	amount decimal.Decimal,
	status BookingStatus,
	cancellationReason string,
	confirmedAt *time.Time,
	completedAt *time.Time,
	cancelledAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                 id,
		bookingNumber:      bookingNumber,
		guestName:          guestName,
		roomID:             roomID,
		propertyID:         propertyID,
		stay:               stay,
		amount:             amount,
		status:             status,
		cancellationReason: cancellationReason,
		confirmedAt:        confirmedAt,
		completedAt:        completedAt,
		cancelledAt:        cancelledAt,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// GuestName returns the name the stay was requested under.
func (b *Booking) GuestName() string { return b.guestName }

// RoomID returns the booked room.
func (b *Booking) RoomID() uuid.UUID { return b.roomID }

// PropertyID returns the property the room belongs to.
func (b *Booking) PropertyID() uuid.UUID { return b.propertyID }

// Stay returns the booked date range.
func (b *Booking) Stay() pricing.StayRange { return b.stay }

// Amount returns the charge for the stay.
func (b *Booking) Amount() decimal.Decimal { return b.amount }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// CancellationReason returns the reason given for cancelling or rejecting.
func (b *Booking) CancellationReason() string { return b.cancellationReason }

// ConfirmedAt returns when the booking was confirmed.
func (b *Booking) ConfirmedAt() *time.Time { return b.confirmedAt }

// CompletedAt returns when the stay was marked complete.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// CancelledAt returns when the booking was cancelled or rejected.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// ChargeFixed reports whether the amount is final. It is fixed once the
// booking leaves pending.
func (b *Booking) ChargeFixed() bool { return b.status != StatusPending }

// --- Behavior ---

// Confirm transitions pending to confirmed and fixes the charge.
func (b *Booking) Confirm(amount decimal.Decimal) error {
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return domain.NewInvalidTransitionError(string(b.status), string(StatusConfirmed))
	}
	if amount.IsNegative() {
		return domain.NewValidationError("amount must not be negative")
	}
	now := time.Now().UTC()
	b.amount = amount
	b.status = StatusConfirmed
	b.confirmedAt = &now
	b.updatedAt = now
	return nil
}

// Complete transitions confirmed to completed. Payment guards are the
// caller's concern.
func (b *Booking) Complete() error {
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidTransitionError(string(b.status), string(StatusCompleted))
	}
	now := time.Now().UTC()
	b.status = StatusCompleted
	b.completedAt = &now
	b.updatedAt = now
	return nil
}

// Reject transitions pending to rejected.
func (b *Booking) Reject(reason string) error {
	return b.close(StatusRejected, reason)
}

// Cancel transitions the booking to cancelled if it is not in a terminal state.
func (b *Booking) Cancel(reason string) error {
	return b.close(StatusCancelled, reason)
}

func (b *Booking) close(target BookingStatus, reason string) error {
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidTransitionError(string(b.status), string(target))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.NewValidationError(fmt.Sprintf("cancellation_reason is required to move to %s", target))
	}
	now := time.Now().UTC()
	b.status = target
	b.cancellationReason = reason
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// IsSameClose reports whether the booking already sits in target with the
// given reason, meaning a cancel or reject request was already applied.
func (b *Booking) IsSameClose(target BookingStatus, reason string) bool {
	return b.status == target && target.RequiresReason() &&
		b.cancellationReason == strings.TrimSpace(reason)
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
