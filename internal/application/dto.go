package application

import (
	"time"

	bookingDomain "github.com/dormhub/service-booking/internal/domain/booking"
	"github.com/dormhub/service-booking/internal/domain/ledger"
	paymentDomain "github.com/dormhub/service-booking/internal/domain/payment"
	"github.com/dormhub/service-booking/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateBookingRequest holds the data needed to request a stay.
type CreateBookingRequest struct {
	RoomID    uuid.UUID `json:"room_id" binding:"required"`
	GuestName string    `json:"guest_name" binding:"required"`
	StayStart string    `json:"stay_start" binding:"required"`
	StayEnd   string    `json:"stay_end" binding:"required"`
}

// UpdateStatusRequest asks for a booking status change.
type UpdateStatusRequest struct {
	Status               string           `json:"status" binding:"required"`
	CancellationReason   string           `json:"cancellation_reason"`
	RefundAmount         *decimal.Decimal `json:"refund_amount"`
	ShouldRefund         bool             `json:"should_refund"`
	AcceptPartialPayment bool             `json:"accept_partial_payment"`
}

// UpdatePaymentStatusRequest asks for a payment status change.
type UpdatePaymentStatusRequest struct {
	PaymentStatus        string           `json:"payment_status" binding:"required"`
	AmountCollectedDelta *decimal.Decimal `json:"amount_collected_delta"`
	// CollectionID identifies the collection at the payment provider. A
	// repeated ID for the same booking is reported as already applied.
	CollectionID string `json:"collection_id" binding:"max=100"`
}

// RefundRequest settles a refund on a cancelled booking.
type RefundRequest struct {
	RefundAmount *decimal.Decimal `json:"refund_amount"`
	ShouldRefund bool             `json:"should_refund"`
}

// QuoteDTO is the response representation of a pricing quote.
type QuoteDTO struct {
	RoomID    uuid.UUID       `json:"room_id"`
	StayStart string          `json:"stay_start"`
	StayEnd   string          `json:"stay_end"`
	Days      int             `json:"days"`
	Policy    string          `json:"policy"`
	Breakdown BreakdownDTO    `json:"breakdown"`
	Total     decimal.Decimal `json:"total"`
}

// BreakdownDTO explains a quote total.
type BreakdownDTO struct {
	Months          int             `json:"months"`
	ExtraDays       int             `json:"extra_days"`
	MonthsCharge    decimal.Decimal `json:"months_charge"`
	ExtraDaysCharge decimal.Decimal `json:"extra_days_charge"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                 uuid.UUID       `json:"id"`
	BookingNumber      string          `json:"booking_number"`
	GuestName          string          `json:"guest_name"`
	RoomID             uuid.UUID       `json:"room_id"`
	PropertyID         uuid.UUID       `json:"property_id"`
	StayStart          string          `json:"stay_start"`
	StayEnd            string          `json:"stay_end"`
	Days               int             `json:"days"`
	Amount             decimal.Decimal `json:"amount"`
	Status             string          `json:"status"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	ConfirmedAt        *time.Time      `json:"confirmed_at,omitempty"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	Version            int64           `json:"version"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// PaymentDTO is the response representation of a payment record.
type PaymentDTO struct {
	BookingID       uuid.UUID        `json:"booking_id"`
	PaymentStatus   string           `json:"payment_status"`
	AmountCollected decimal.Decimal  `json:"amount_collected"`
	Outstanding     decimal.Decimal  `json:"outstanding"`
	RefundAmount    *decimal.Decimal `json:"refund_amount,omitempty"`
	RefundedFrom    string           `json:"refunded_from,omitempty"`
	RefundedAt      *time.Time       `json:"refunded_at,omitempty"`
	Version         int64            `json:"version"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// BookingView is a booking together with its payment.
type BookingView struct {
	Booking BookingDTO `json:"booking"`
	Payment PaymentDTO `json:"payment"`
	// RefundOwed flags a cancelled booking that still holds collected money.
	RefundOwed     bool `json:"refund_owed"`
	AlreadyApplied bool `json:"already_applied"`
}

// PaymentView is a payment record with the booking state it depends on.
type PaymentView struct {
	PaymentDTO
	BookingStatus  string `json:"booking_status"`
	RefundOwed     bool   `json:"refund_owed"`
	AlreadyApplied bool   `json:"already_applied"`
}

// StatusEventDTO is one entry of a booking's status history.
type StatusEventDTO struct {
	Axis      string    `json:"axis"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ActorType string    `json:"actor_type"`
	ActorID   string    `json:"actor_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
	RefundsOwed   int64            `json:"refunds_owed"`
}

// --- Helpers ---

func toQuoteDTO(roomID uuid.UUID, stay pricing.StayRange, q pricing.Quote) QuoteDTO {
	return QuoteDTO{
		RoomID:    roomID,
		StayStart: stay.Start().Format(pricing.DateLayout),
		StayEnd:   stay.End().Format(pricing.DateLayout),
		Days:      q.Days,
		Policy:    q.Policy.String(),
		Breakdown: BreakdownDTO{
			Months:          q.Breakdown.Months,
			ExtraDays:       q.Breakdown.ExtraDays,
			MonthsCharge:    q.Breakdown.MonthsCharge,
			ExtraDaysCharge: q.Breakdown.ExtraDaysCharge,
		},
		Total: q.Total,
	}
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:                 bk.ID(),
		BookingNumber:      bk.BookingNumber(),
		GuestName:          bk.GuestName(),
		RoomID:             bk.RoomID(),
		PropertyID:         bk.PropertyID(),
		StayStart:          bk.Stay().Start().Format(pricing.DateLayout),
		StayEnd:            bk.Stay().End().Format(pricing.DateLayout),
		Days:               bk.Stay().Days(),
		Amount:             bk.Amount(),
		Status:             string(bk.Status()),
		CancellationReason: bk.CancellationReason(),
		ConfirmedAt:        bk.ConfirmedAt(),
		CompletedAt:        bk.CompletedAt(),
		CancelledAt:        bk.CancelledAt(),
		Version:            bk.Version(),
		CreatedAt:          bk.CreatedAt(),
		UpdatedAt:          bk.UpdatedAt(),
	}
}

func toPaymentDTO(rec *paymentDomain.Record, amount decimal.Decimal) PaymentDTO {
	dto := PaymentDTO{
		BookingID:       rec.BookingID(),
		PaymentStatus:   string(rec.Status()),
		AmountCollected: rec.AmountCollected(),
		Outstanding:     decimal.Zero,
		RefundAmount:    rec.RefundAmount(),
		RefundedFrom:    string(rec.RefundedFrom()),
		RefundedAt:      rec.RefundedAt(),
		Version:         rec.Version(),
		UpdatedAt:       rec.UpdatedAt(),
	}
	if rec.Status() != paymentDomain.StatusRefunded {
		if out := rec.Outstanding(amount); out.IsPositive() {
			dto.Outstanding = out
		}
	}
	return dto
}

func toBookingView(bk *bookingDomain.Booking, rec *paymentDomain.Record) BookingView {
	return BookingView{
		Booking:    toBookingDTO(bk),
		Payment:    toPaymentDTO(rec, bk.Amount()),
		RefundOwed: rec.RefundOwed(bk.Status() == bookingDomain.StatusCancelled),
	}
}

func toPaymentView(bk *bookingDomain.Booking, rec *paymentDomain.Record) PaymentView {
	return PaymentView{
		PaymentDTO:    toPaymentDTO(rec, bk.Amount()),
		BookingStatus: string(bk.Status()),
		RefundOwed:    rec.RefundOwed(bk.Status() == bookingDomain.StatusCancelled),
	}
}

func toStatusEventDTO(e ledger.StatusEvent) StatusEventDTO {
	return StatusEventDTO{
		Axis:      string(e.Axis),
		From:      e.From,
		To:        e.To,
		ActorType: e.ActorType,
		ActorID:   e.ActorID,
		Reason:    e.Reason,
		CreatedAt: e.CreatedAt,
	}
}
