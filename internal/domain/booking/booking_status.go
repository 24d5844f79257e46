package booking

import (
	"fmt"
	"strings"

	"github.com/dormhub/service-booking/internal/platform/domain"
)

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
	StatusRejected  BookingStatus = "rejected"
)

// validTransitions defines the state machine for booking status transitions.
// A completed stay may still be cancelled after the fact, with a refund.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {StatusCancelled},
	StatusCancelled: {},
	StatusRejected:  {},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// RequiresReason reports whether entering this status needs a cancellation reason.
func (s BookingStatus) RequiresReason() bool {
	return s == StatusCancelled || s == StatusRejected
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning a
// validation error if it is not one of the five lifecycle states.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	if status.IsValid() {
		return status, nil
	}
	if status == "partial-completed" || status == "partial_completed" {
		return "", domain.NewValidationError(
			"status partial-completed is not supported; request completed with accept_partial_payment=true")
	}
	return "", domain.NewValidationError(fmt.Sprintf("invalid booking status: %s", s))
}
