// Package payment holds the per-booking payment ledger.
package payment

import (
	"fmt"
	"time"

	"github.com/dormhub/service-booking/internal/platform/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record is the payment state of one booking.
type Record struct {
	bookingID       uuid.UUID
	status          PaymentStatus
	amountCollected decimal.Decimal
	refundAmount    *decimal.Decimal
	refundedFrom    PaymentStatus
	refundedAt      *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewRecord creates an unpaid record for a new booking.
func NewRecord(bookingID uuid.UUID) *Record {
	now := time.Now().UTC()
	return &Record{
		bookingID:       bookingID,
		status:          StatusUnpaid,
		amountCollected: decimal.Zero,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}
}

// ReconstructRecord rebuilds a Record from persistence data (no validation).
func ReconstructRecord(
	bookingID uuid.UUID,
	status PaymentStatus,
	amountCollected decimal.Decimal,
	refundAmount *decimal.Decimal,
	refundedFrom PaymentStatus,
	refundedAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Record {
	return &Record{
		bookingID:       bookingID,
		status:          status,
		amountCollected: amountCollected,
		refundAmount:    refundAmount,
		refundedFrom:    refundedFrom,
		refundedAt:      refundedAt,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// BookingID returns the booking this record belongs to.
func (r *Record) BookingID() uuid.UUID { return r.bookingID }

// Status returns the current payment status.
func (r *Record) Status() PaymentStatus { return r.status }

// AmountCollected returns the money received so far.
func (r *Record) AmountCollected() decimal.Decimal { return r.amountCollected }

// RefundAmount returns the refunded amount, or nil if nothing was refunded.
func (r *Record) RefundAmount() *decimal.Decimal { return r.refundAmount }

// RefundedFrom returns the status held before the refund.
func (r *Record) RefundedFrom() PaymentStatus { return r.refundedFrom }

func (r *Record) RefundedAt() *time.Time { return r.refundedAt }
func (r *Record) Version() int64         { return r.version }
func (r *Record) CreatedAt() time.Time   { return r.createdAt }
func (r *Record) UpdatedAt() time.Time   { return r.updatedAt }

// Outstanding returns what is still due against amount.
func (r *Record) Outstanding(amount decimal.Decimal) decimal.Decimal {
	return amount.Sub(r.amountCollected)
}

// RefundOwed reports whether money was kept on a booking that was cancelled.
func (r *Record) RefundOwed(bookingCancelled bool) bool {
	return bookingCancelled && r.status.IsCollected()
}

// Collect moves the record forward to target, adding delta to the collected
// amount. bookingAmount is the fixed charge. It returns false when the request
// is already satisfied and nothing changed.
//
//   - paid without delta collects the outstanding balance; with delta the
//     new total must equal bookingAmount
//   - partial needs a positive delta and must stay below bookingAmount
//   - unpaid is only accepted as a no-op
func (r *Record) Collect(target PaymentStatus, delta *decimal.Decimal, bookingAmount decimal.Decimal) (bool, error) {
	if target == StatusRefunded {
		return false, domain.NewValidationError("refunds are recorded through the refund operation")
	}
	if !target.IsValid() {
		return false, domain.NewValidationError(fmt.Sprintf("invalid payment status: %s", target))
	}
	if r.status == StatusRefunded || target.IsBackwardFrom(r.status) {
		return false, domain.NewInvalidTransitionError(string(r.status), string(target))
	}
	if delta != nil && !delta.IsPositive() {
		return false, domain.NewValidationError("amount_collected_delta must be positive")
	}

	if delta == nil && target == r.status {
		return false, nil
	}

	var collected decimal.Decimal
	switch target {
	case StatusUnpaid:
		return false, domain.NewValidationError("amount_collected_delta cannot be applied to an unpaid payment")

	case StatusPartial:
		if delta == nil {
			return false, domain.NewValidationError("amount_collected_delta is required for a partial payment")
		}
		collected = r.amountCollected.Add(*delta)
		if !collected.LessThan(bookingAmount) {
			return false, domain.NewValidationError(fmt.Sprintf(
				"partial collection would reach %s of %s; mark the payment paid instead",
				collected.StringFixed(2), bookingAmount.StringFixed(2)))
		}

	case StatusPaid:
		if delta == nil {
			collected = bookingAmount
			break
		}
		collected = r.amountCollected.Add(*delta)
		if !collected.Equal(bookingAmount) {
			return false, domain.NewValidationError(fmt.Sprintf(
				"paid requires %s collected in total, got %s",
				bookingAmount.StringFixed(2), collected.StringFixed(2)))
		}
	}

	r.amountCollected = collected
	r.status = target
	r.updatedAt = time.Now().UTC()
	return true, nil
}

// Refund records a refund of amount against what was collected. Amounts are
// never clamped.
func (r *Record) Refund(amount decimal.Decimal) error {
	if r.status == StatusRefunded {
		return domain.NewInvalidTransitionError(string(r.status), string(StatusRefunded))
	}
	if !amount.IsPositive() {
		return domain.NewValidationError("refund_amount must be greater than zero")
	}
	if amount.GreaterThan(r.amountCollected) {
		return domain.NewValidationError(fmt.Sprintf(
			"refund_amount %s exceeds amount collected %s",
			amount.StringFixed(2), r.amountCollected.StringFixed(2)))
	}
	if !r.status.IsCollected() {
		return domain.NewInvalidTransitionError(string(r.status), string(StatusRefunded))
	}

	now := time.Now().UTC()
	refund := amount
	r.refundAmount = &refund
	r.refundedFrom = r.status
	r.refundedAt = &now
	r.status = StatusRefunded
	r.updatedAt = now
	return nil
}

// IsSameRefund reports whether a refund of amount was already recorded.
func (r *Record) IsSameRefund(amount decimal.Decimal) bool {
	return r.status == StatusRefunded && r.refundAmount != nil && r.refundAmount.Equal(amount)
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Record) IncrementVersion() {
	r.version++
	r.updatedAt = time.Now().UTC()
}
