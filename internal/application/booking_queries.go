package application

import (
	"context"
	"fmt"

	bookingDomain "github.com/dormhub/service-booking/internal/domain/booking"
	"github.com/dormhub/service-booking/internal/domain/ledger"
	paymentDomain "github.com/dormhub/service-booking/internal/domain/payment"
	"github.com/dormhub/service-booking/internal/platform/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingQueries serves read-only booking views. Reads take no locks; every
// committed transition is visible to the next read.
type BookingQueries struct {
	bookings bookingDomain.BookingRepository
	payments paymentDomain.RecordRepository
	events   ledger.EventLog
	logger   *zap.Logger
}

// NewBookingQueries creates a new BookingQueries.
func NewBookingQueries(
	bookings bookingDomain.BookingRepository,
	payments paymentDomain.RecordRepository,
	events ledger.EventLog,
	logger *zap.Logger,
) *BookingQueries {
	return &BookingQueries{
		bookings: bookings,
		payments: payments,
		events:   events,
		logger:   logger,
	}
}

// GetBooking retrieves a single booking with its payment.
func (q *BookingQueries) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingView, error) {
	bk, err := q.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	rec, err := q.payments.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	view := toBookingView(bk, rec)
	return &view, nil
}

// GetBookingByNumber retrieves a booking by its BK- number.
func (q *BookingQueries) GetBookingByNumber(ctx context.Context, number string) (*BookingView, error) {
	bk, err := q.bookings.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return q.GetBooking(ctx, bk.ID())
}

// ListBookings retrieves paginated bookings matching filter.
func (q *BookingQueries) ListBookings(ctx context.Context, filter bookingDomain.ListFilter, page, limit int) (*domain.PaginatedResult[BookingView], error) {
	bookings, total, err := q.bookings.List(ctx, filter, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	views, err := q.attachPayments(ctx, bookings)
	if err != nil {
		return nil, err
	}

	result := domain.NewPaginatedResult(views, total, page, limit)
	return &result, nil
}

// ListRefundsOwed lists cancelled bookings still holding collected money.
func (q *BookingQueries) ListRefundsOwed(ctx context.Context, page, limit int) (*domain.PaginatedResult[BookingView], error) {
	return q.ListBookings(ctx, bookingDomain.ListFilter{RefundOwed: true}, page, limit)
}

// GetStatusHistory returns the booking's accepted transitions, oldest first.
func (q *BookingQueries) GetStatusHistory(ctx context.Context, bookingID uuid.UUID) ([]StatusEventDTO, error) {
	if _, err := q.bookings.FindByID(ctx, bookingID); err != nil {
		return nil, err
	}
	evts, err := q.events.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load status history: %w", err)
	}
	dtos := make([]StatusEventDTO, len(evts))
	for i, e := range evts {
		dtos[i] = toStatusEventDTO(e)
	}
	return dtos, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (q *BookingQueries) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := q.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	_, owed, err := q.bookings.List(ctx, bookingDomain.ListFilter{RefundOwed: true}, 1, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to count refunds owed: %w", err)
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
		RefundsOwed:   owed,
	}, nil
}

func (q *BookingQueries) attachPayments(ctx context.Context, bookings []*bookingDomain.Booking) ([]BookingView, error) {
	ids := make([]uuid.UUID, len(bookings))
	for i, bk := range bookings {
		ids[i] = bk.ID()
	}
	records, err := q.payments.FindByBookingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	views := make([]BookingView, 0, len(bookings))
	for _, bk := range bookings {
		rec, ok := records[bk.ID()]
		if !ok {
			q.logger.Error("booking has no payment record", zap.String("booking_id", bk.ID().String()))
			return nil, fmt.Errorf("payment record missing for booking %s", bk.ID())
		}
		views = append(views, toBookingView(bk, rec))
	}
	return views, nil
}
