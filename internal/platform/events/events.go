// Package events defines the Kafka topics, event types and payloads shared
// with other services.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Source is the CloudEvents source of everything this service publishes.
const Source = "service-booking"

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Event types published on booking.events.
const (
	BookingRequested     = "booking.requested"
	BookingStatusChanged = "booking.status_changed"
	PaymentStatusChanged = "payment.status_changed"
	PaymentRefunded      = "payment.refunded"
)

// Event types consumed from payment.events.
const (
	PaymentCollected = "payment.collected"
)

// BookingRequestedEvent is published when a tenant requests a stay.
type BookingRequestedEvent struct {
	BookingID     uuid.UUID       `json:"booking_id"`
	BookingNumber string          `json:"booking_number"`
	RoomID        uuid.UUID       `json:"room_id"`
	PropertyID    uuid.UUID       `json:"property_id"`
	GuestName     string          `json:"guest_name"`
	StayStart     string          `json:"stay_start"`
	StayEnd       string          `json:"stay_end"`
	Amount        decimal.Decimal `json:"amount"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// BookingStatusChangedEvent is published for every accepted booking transition.
type BookingStatusChangedEvent struct {
	BookingID     uuid.UUID       `json:"booking_id"`
	BookingNumber string          `json:"booking_number"`
	PropertyID    uuid.UUID       `json:"property_id"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	Reason        string          `json:"reason,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	ActorType     string          `json:"actor_type"`
	ActorID       string          `json:"actor_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// PaymentStatusChangedEvent is published when money is collected.
type PaymentStatusChangedEvent struct {
	BookingID       uuid.UUID       `json:"booking_id"`
	From            string          `json:"from"`
	To              string          `json:"to"`
	AmountCollected decimal.Decimal `json:"amount_collected"`
	BookingAmount   decimal.Decimal `json:"booking_amount"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// PaymentRefundedEvent asks the payment provider to return money.
type PaymentRefundedEvent struct {
	BookingID    uuid.UUID       `json:"booking_id"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	RefundedFrom string          `json:"refunded_from"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// PaymentCollectedEvent is reported by the payment provider. Amount is the
// money received in this collection, not the running total.
type PaymentCollectedEvent struct {
	PaymentID     string          `json:"payment_id,omitempty"`
	BookingID     uuid.UUID       `json:"booking_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentStatus string          `json:"payment_status"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
