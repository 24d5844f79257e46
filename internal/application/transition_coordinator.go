package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingDomain "github.com/dormhub/service-booking/internal/domain/booking"
	"github.com/dormhub/service-booking/internal/domain/ledger"
	paymentDomain "github.com/dormhub/service-booking/internal/domain/payment"
	"github.com/dormhub/service-booking/internal/domain/pricing"
	"github.com/dormhub/service-booking/internal/platform/domain"
	"github.com/dormhub/service-booking/internal/platform/events"
	"github.com/dormhub/service-booking/internal/platform/lock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransitionCoordinator applies booking and payment status changes. Each
// change runs under an exclusive per-booking lock and inside one transaction,
// so guards are checked against a consistent snapshot of both records.
type TransitionCoordinator struct {
	uow       ledger.UnitOfWork
	locker    lock.Locker
	pricing   *PricingService
	refunds   *RefundProcessor
	publisher EventPublisher
	logger    *zap.Logger
}

// NewTransitionCoordinator creates a new TransitionCoordinator.
func NewTransitionCoordinator(
	uow ledger.UnitOfWork,
	locker lock.Locker,
	pricing *PricingService,
	refunds *RefundProcessor,
	publisher EventPublisher,
	logger *zap.Logger,
) *TransitionCoordinator {
	return &TransitionCoordinator{
		uow:       uow,
		locker:    locker,
		pricing:   pricing,
		refunds:   refunds,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateBooking quotes the stay and records a pending booking with an unpaid
// payment record.
func (c *TransitionCoordinator) CreateBooking(ctx context.Context, actor ledger.Actor, req CreateBookingRequest) (*BookingView, error) {
	stay, err := pricing.ParseStayRange(req.StayStart, req.StayEnd)
	if err != nil {
		return nil, err
	}

	quote, rate, err := c.pricing.Quote(ctx, req.RoomID, stay)
	if err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(req.GuestName, req.RoomID, rate.PropertyID, stay, quote.Total)
	if err != nil {
		return nil, err
	}
	rec := paymentDomain.NewRecord(bk.ID())

	err = c.uow.Within(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if err := tx.Bookings.Save(ctx, bk); err != nil {
			return err
		}
		if err := tx.Payments.Save(ctx, rec); err != nil {
			return err
		}
		return tx.Events.Append(ctx, ledger.NewStatusEvent(
			bk.ID(), ledger.AxisBooking, "", string(bk.Status()), actor, ""))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	c.logger.Info("booking requested",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_number", bk.BookingNumber()),
		zap.String("amount", bk.Amount().StringFixed(2)),
	)

	publishAll(ctx, c.publisher, c.logger, []outboundEvent{{
		topic:     events.TopicBookingEvents,
		eventType: events.BookingRequested,
		key:       bk.ID().String(),
		data: events.BookingRequestedEvent{
			BookingID:     bk.ID(),
			BookingNumber: bk.BookingNumber(),
			RoomID:        bk.RoomID(),
			PropertyID:    bk.PropertyID(),
			GuestName:     bk.GuestName(),
			StayStart:     bk.Stay().Start().Format(pricing.DateLayout),
			StayEnd:       bk.Stay().End().Format(pricing.DateLayout),
			Amount:        bk.Amount(),
			OccurredAt:    time.Now().UTC(),
		},
	}})

	view := toBookingView(bk, rec)
	return &view, nil
}

// UpdateBookingStatus moves a booking to req.Status, applying the payment
// guards and, for cancellations, the refund decision in the same transaction.
// Repeating a request that is already in effect returns the current view
// with AlreadyApplied set.
func (c *TransitionCoordinator) UpdateBookingStatus(ctx context.Context, bookingID uuid.UUID, actor ledger.Actor, req UpdateStatusRequest) (*BookingView, error) {
	target, err := bookingDomain.ParseBookingStatus(req.Status)
	if err != nil {
		return nil, err
	}
	if req.ShouldRefund && target != bookingDomain.StatusCancelled {
		return nil, domain.NewValidationError("should_refund is only valid when cancelling")
	}
	if req.RefundAmount != nil && !req.ShouldRefund {
		return nil, domain.NewValidationError("refund_amount requires should_refund=true")
	}

	var (
		view    BookingView
		pending []outboundEvent
	)
	err = c.withBookingLock(ctx, bookingID, func() error {
		return c.uow.Within(ctx, func(ctx context.Context, tx ledger.Tx) error {
			pending = nil

			bk, rec, err := loadLedger(ctx, tx, bookingID)
			if err != nil {
				return err
			}

			if bk.Status() == target {
				if !isRepeatOf(bk, rec, target, req) {
					return domain.NewInvalidTransitionError(string(bk.Status()), string(target))
				}
				view = toBookingView(bk, rec)
				view.AlreadyApplied = true
				return nil
			}

			from := bk.Status()
			paymentFrom := rec.Status()
			var outcome RefundOutcome

			switch target {
			case bookingDomain.StatusConfirmed:
				if err := c.confirm(ctx, bk); err != nil {
					return err
				}
			case bookingDomain.StatusCompleted:
				if err := completeGuarded(bk, rec, req.AcceptPartialPayment); err != nil {
					return err
				}
			case bookingDomain.StatusRejected:
				if err := bk.Reject(req.CancellationReason); err != nil {
					return err
				}
			case bookingDomain.StatusCancelled:
				if err := bk.Cancel(req.CancellationReason); err != nil {
					return err
				}
				outcome, err = c.refunds.Process(bk, rec, req.RefundAmount, req.ShouldRefund)
				if err != nil {
					return err
				}
			default:
				return domain.NewInvalidTransitionError(string(from), string(target))
			}

			bk.IncrementVersion()
			if err := tx.Bookings.Update(ctx, bk); err != nil {
				return err
			}
			if err := tx.Events.Append(ctx, ledger.NewStatusEvent(
				bk.ID(), ledger.AxisBooking, string(from), string(target), actor, bk.CancellationReason())); err != nil {
				return err
			}
			pending = append(pending, bookingChangedEvent(bk, from, actor))

			if outcome.Refunded {
				rec.IncrementVersion()
				if err := tx.Payments.Update(ctx, rec); err != nil {
					return err
				}
				if err := tx.Events.Append(ctx, ledger.NewStatusEvent(
					bk.ID(), ledger.AxisPayment, string(paymentFrom), string(rec.Status()), actor, bk.CancellationReason())); err != nil {
					return err
				}
				pending = append(pending, refundedEvent(rec))
			}

			view = toBookingView(bk, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if !view.AlreadyApplied {
		c.logger.Info("booking status changed",
			zap.String("booking_id", bookingID.String()),
			zap.String("to", view.Booking.Status),
			zap.String("payment_status", view.Payment.PaymentStatus),
			zap.Bool("refund_owed", view.RefundOwed),
			zap.String("actor_type", actor.Type),
		)
	}
	publishAll(ctx, c.publisher, c.logger, pending)
	return &view, nil
}

// UpdatePaymentStatus records a collection, or a full refund when req asks
// for refunded. Reaching paid never completes the booking. A collection that
// carries a CollectionID already recorded for the booking is not applied again.
func (c *TransitionCoordinator) UpdatePaymentStatus(ctx context.Context, bookingID uuid.UUID, actor ledger.Actor, req UpdatePaymentStatusRequest) (*PaymentView, error) {
	target, err := paymentDomain.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		return nil, err
	}

	var (
		view    PaymentView
		pending []outboundEvent
	)
	err = c.withBookingLock(ctx, bookingID, func() error {
		return c.uow.Within(ctx, func(ctx context.Context, tx ledger.Tx) error {
			pending = nil

			bk, rec, err := loadLedger(ctx, tx, bookingID)
			if err != nil {
				return err
			}

			from := rec.Status()
			if req.AmountCollectedDelta == nil && target == from {
				view = toPaymentView(bk, rec)
				view.AlreadyApplied = true
				return nil
			}
			if req.CollectionID != "" {
				seen, err := tx.Events.HasCollection(ctx, bookingID, req.CollectionID)
				if err != nil {
					return err
				}
				if seen {
					view = toPaymentView(bk, rec)
					view.AlreadyApplied = true
					return nil
				}
			}

			if target == paymentDomain.StatusRefunded {
				if req.AmountCollectedDelta != nil {
					return domain.NewValidationError("amount_collected_delta is not accepted for refunds; use refund_amount")
				}
				if req.CollectionID != "" {
					return domain.NewValidationError("collection_id is not accepted for refunds")
				}
				if !from.IsCollected() {
					return domain.NewInvalidTransitionError(string(from), string(target))
				}
				full := rec.AmountCollected()
				if _, err := c.refunds.Process(bk, rec, &full, true); err != nil {
					return err
				}
				pending = append(pending, refundedEvent(rec))
			} else {
				if from == paymentDomain.StatusRefunded || target.IsBackwardFrom(from) {
					return domain.NewInvalidTransitionError(string(from), string(target))
				}
				if err := collectionAllowed(bk); err != nil {
					return err
				}
				if _, err := rec.Collect(target, req.AmountCollectedDelta, bk.Amount()); err != nil {
					return err
				}
				pending = append(pending, outboundEvent{
					topic:     events.TopicBookingEvents,
					eventType: events.PaymentStatusChanged,
					key:       bk.ID().String(),
					data: events.PaymentStatusChangedEvent{
						BookingID:       bk.ID(),
						From:            string(from),
						To:              string(rec.Status()),
						AmountCollected: rec.AmountCollected(),
						BookingAmount:   bk.Amount(),
						OccurredAt:      time.Now().UTC(),
					},
				})
			}

			rec.IncrementVersion()
			if err := tx.Payments.Update(ctx, rec); err != nil {
				return err
			}
			evt := ledger.NewStatusEvent(bk.ID(), ledger.AxisPayment, string(from), string(rec.Status()), actor, "")
			evt.CollectionID = req.CollectionID
			if err := tx.Events.Append(ctx, evt); err != nil {
				return err
			}

			view = toPaymentView(bk, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if !view.AlreadyApplied {
		c.logger.Info("payment status changed",
			zap.String("booking_id", bookingID.String()),
			zap.String("to", view.PaymentStatus),
			zap.String("amount_collected", view.AmountCollected.StringFixed(2)),
			zap.String("actor_type", actor.Type),
		)
	}
	publishAll(ctx, c.publisher, c.logger, pending)
	return &view, nil
}

// ProcessRefund settles a refund on an already-cancelled booking, typically
// one cancelled earlier with the refund left owed.
func (c *TransitionCoordinator) ProcessRefund(ctx context.Context, bookingID uuid.UUID, actor ledger.Actor, req RefundRequest) (*BookingView, error) {
	var (
		view    BookingView
		pending []outboundEvent
	)
	err := c.withBookingLock(ctx, bookingID, func() error {
		return c.uow.Within(ctx, func(ctx context.Context, tx ledger.Tx) error {
			pending = nil

			bk, rec, err := loadLedger(ctx, tx, bookingID)
			if err != nil {
				return err
			}

			if req.ShouldRefund && req.RefundAmount != nil && rec.IsSameRefund(*req.RefundAmount) {
				view = toBookingView(bk, rec)
				view.AlreadyApplied = true
				return nil
			}

			from := rec.Status()
			outcome, err := c.refunds.Process(bk, rec, req.RefundAmount, req.ShouldRefund)
			if err != nil {
				return err
			}
			if outcome.Refunded {
				rec.IncrementVersion()
				if err := tx.Payments.Update(ctx, rec); err != nil {
					return err
				}
				if err := tx.Events.Append(ctx, ledger.NewStatusEvent(
					bk.ID(), ledger.AxisPayment, string(from), string(rec.Status()), actor, "refund settled")); err != nil {
					return err
				}
				pending = append(pending, refundedEvent(rec))
			}

			view = toBookingView(bk, rec)
			view.AlreadyApplied = !outcome.Refunded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	publishAll(ctx, c.publisher, c.logger, pending)
	return &view, nil
}

// withBookingLock runs fn while holding the booking's exclusive lock.
func (c *TransitionCoordinator) withBookingLock(ctx context.Context, bookingID uuid.UUID, fn func() error) error {
	unlock, err := c.locker.Acquire(ctx, "booking:"+bookingID.String())
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			c.logger.Warn("booking lock busy", zap.String("booking_id", bookingID.String()))
			return domain.NewConflictError(fmt.Sprintf("booking %s is being modified by another request", bookingID))
		}
		return fmt.Errorf("failed to lock booking: %w", err)
	}
	defer unlock()
	return fn()
}

// confirm re-quotes the stay from the room's current rates and fixes the
// result as the booking amount.
func (c *TransitionCoordinator) confirm(ctx context.Context, bk *bookingDomain.Booking) error {
	if !bk.Status().CanTransitionTo(bookingDomain.StatusConfirmed) {
		return domain.NewInvalidTransitionError(string(bk.Status()), string(bookingDomain.StatusConfirmed))
	}
	quote, _, err := c.pricing.Quote(ctx, bk.RoomID(), bk.Stay())
	if err != nil {
		return err
	}
	if !quote.Total.Equal(bk.Amount()) {
		c.logger.Info("charge changed since request",
			zap.String("booking_id", bk.ID().String()),
			zap.String("requested", bk.Amount().StringFixed(2)),
			zap.String("confirmed", quote.Total.StringFixed(2)),
		)
	}
	return bk.Confirm(quote.Total)
}

func loadLedger(ctx context.Context, tx ledger.Tx, bookingID uuid.UUID) (*bookingDomain.Booking, *paymentDomain.Record, error) {
	bk, err := tx.Bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	rec, err := tx.Payments.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	return bk, rec, nil
}

// completeGuarded completes bk when the payment allows it.
func completeGuarded(bk *bookingDomain.Booking, rec *paymentDomain.Record, acceptPartial bool) error {
	if !bk.Status().CanTransitionTo(bookingDomain.StatusCompleted) {
		return domain.NewInvalidTransitionError(string(bk.Status()), string(bookingDomain.StatusCompleted))
	}
	switch rec.Status() {
	case paymentDomain.StatusPaid:
	case paymentDomain.StatusPartial:
		if !acceptPartial {
			return domain.NewPreconditionFailedError(
				"Cannot complete: payment status is partial; set accept_partial_payment to complete anyway")
		}
	default:
		return domain.NewPreconditionFailedError(
			fmt.Sprintf("Cannot complete: payment status is %s", rec.Status()))
	}
	return bk.Complete()
}

// collectionAllowed refuses money for bookings whose charge is not fixed or
// that were closed.
func collectionAllowed(bk *bookingDomain.Booking) error {
	switch bk.Status() {
	case bookingDomain.StatusPending:
		return domain.NewPreconditionFailedError(
			"Cannot record payment: booking is pending and its charge is not fixed until confirmation")
	case bookingDomain.StatusCancelled, bookingDomain.StatusRejected:
		return domain.NewPreconditionFailedError(
			fmt.Sprintf("Cannot record payment: booking is %s", bk.Status()))
	}
	return nil
}

// isRepeatOf reports whether req asks for exactly what bk already reflects.
func isRepeatOf(bk *bookingDomain.Booking, rec *paymentDomain.Record, target bookingDomain.BookingStatus, req UpdateStatusRequest) bool {
	if !target.RequiresReason() {
		return true
	}
	if !bk.IsSameClose(target, req.CancellationReason) {
		return false
	}
	if req.ShouldRefund {
		return req.RefundAmount != nil && rec.IsSameRefund(*req.RefundAmount)
	}
	return true
}

func bookingChangedEvent(bk *bookingDomain.Booking, from bookingDomain.BookingStatus, actor ledger.Actor) outboundEvent {
	return outboundEvent{
		topic:     events.TopicBookingEvents,
		eventType: events.BookingStatusChanged,
		key:       bk.ID().String(),
		data: events.BookingStatusChangedEvent{
			BookingID:     bk.ID(),
			BookingNumber: bk.BookingNumber(),
			PropertyID:    bk.PropertyID(),
			From:          string(from),
			To:            string(bk.Status()),
			Reason:        bk.CancellationReason(),
			Amount:        bk.Amount(),
			ActorType:     actor.Type,
			ActorID:       actor.ID,
			OccurredAt:    time.Now().UTC(),
		},
	}
}

func refundedEvent(rec *paymentDomain.Record) outboundEvent {
	return outboundEvent{
		topic:     events.TopicBookingEvents,
		eventType: events.PaymentRefunded,
		key:       rec.BookingID().String(),
		data: events.PaymentRefundedEvent{
			BookingID:    rec.BookingID(),
			RefundAmount: *rec.RefundAmount(),
			RefundedFrom: string(rec.RefundedFrom()),
			OccurredAt:   time.Now().UTC(),
		},
	}
}
