package payment

import (
	"fmt"
	"strings"

	"github.com/dormhub/service-booking/internal/platform/domain"
)

// PaymentStatus is the collection state of a booking's payment.
type PaymentStatus string

const (
	StatusUnpaid   PaymentStatus = "unpaid"
	StatusPartial  PaymentStatus = "partial"
	StatusPaid     PaymentStatus = "paid"
	StatusRefunded PaymentStatus = "refunded"
)

// rank orders the forward progression. Refunded sits outside it.
var rank = map[PaymentStatus]int{
	StatusUnpaid:  0,
	StatusPartial: 1,
	StatusPaid:    2,
}

// IsValid returns true if the status is a recognized payment status.
func (s PaymentStatus) IsValid() bool {
	_, ok := rank[s]
	return ok || s == StatusRefunded
}

// IsCollected reports whether any money is held for the booking.
func (s PaymentStatus) IsCollected() bool {
	return s == StatusPartial || s == StatusPaid
}

// IsBackwardFrom reports whether moving from current to s goes against the
// unpaid, partial, paid order.
func (s PaymentStatus) IsBackwardFrom(current PaymentStatus) bool {
	from, ok1 := rank[current]
	to, ok2 := rank[s]
	return ok1 && ok2 && to < from
}

// String returns the string representation of the status.
func (s PaymentStatus) String() string {
	return string(s)
}

// ParsePaymentStatus converts a string to a PaymentStatus.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", domain.NewValidationError(fmt.Sprintf("invalid payment status: %s", s))
	}
	return status, nil
}
