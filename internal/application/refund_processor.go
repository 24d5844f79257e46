package application

import (
	"fmt"

	bookingDomain "github.com/dormhub/service-booking/internal/domain/booking"
	paymentDomain "github.com/dormhub/service-booking/internal/domain/payment"
	"github.com/dormhub/service-booking/internal/platform/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RefundOutcome reports what a refund decision did.
type RefundOutcome struct {
	Refunded   bool
	RefundOwed bool
}

// RefundProcessor validates and records refunds against a cancelled booking's
// payment record. It never persists; the caller owns the transaction.
type RefundProcessor struct {
	logger *zap.Logger
}

// NewRefundProcessor creates a new RefundProcessor.
func NewRefundProcessor(logger *zap.Logger) *RefundProcessor {
	return &RefundProcessor{logger: logger}
}

// Process applies a refund decision to rec. Without shouldRefund the payment
// is left alone and any collected money is reported as owed; an amount sent
// without it is refused. With it the amount must be positive and no more than
// what was collected.
func (p *RefundProcessor) Process(
	bk *bookingDomain.Booking,
	rec *paymentDomain.Record,
	refundAmount *decimal.Decimal,
	shouldRefund bool,
) (RefundOutcome, error) {
	cancelled := bk.Status() == bookingDomain.StatusCancelled

	if !shouldRefund && refundAmount != nil {
		return RefundOutcome{}, domain.NewValidationError("refund_amount requires should_refund=true")
	}
	if !shouldRefund {
		owed := rec.RefundOwed(cancelled)
		if owed {
			p.logger.Info("booking cancelled with refund owed",
				zap.String("booking_id", bk.ID().String()),
				zap.String("payment_status", rec.Status().String()),
				zap.String("amount_collected", rec.AmountCollected().StringFixed(2)),
			)
		}
		return RefundOutcome{RefundOwed: owed}, nil
	}

	if !cancelled {
		return RefundOutcome{}, domain.NewPreconditionFailedError(
			fmt.Sprintf("Cannot refund: booking status is %s; only cancelled bookings can be refunded", bk.Status()))
	}
	if refundAmount == nil {
		return RefundOutcome{}, domain.NewValidationError("refund_amount is required when should_refund is true")
	}
	if err := rec.Refund(*refundAmount); err != nil {
		return RefundOutcome{}, err
	}

	p.logger.Info("refund recorded",
		zap.String("booking_id", bk.ID().String()),
		zap.String("refund_amount", refundAmount.StringFixed(2)),
		zap.String("refunded_from", rec.RefundedFrom().String()),
	)
	return RefundOutcome{Refunded: true}, nil
}
