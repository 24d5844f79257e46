package application

import (
	"context"
	"maps"
	"sort"
	"sync"

	bookingDomain "github.com/dormhub/service-booking/internal/domain/booking"
	"github.com/dormhub/service-booking/internal/domain/ledger"
	paymentDomain "github.com/dormhub/service-booking/internal/domain/payment"
	"github.com/dormhub/service-booking/internal/domain/pricing"
	"github.com/dormhub/service-booking/internal/platform/domain"
	"github.com/dormhub/service-booking/internal/platform/kafka"
	"github.com/google/uuid"
)

// memState is one consistent view of the ledger. Stored aggregates are never
// handed out; reads and writes go through clones.
type memState struct {
	bookings map[uuid.UUID]*bookingDomain.Booking
	payments map[uuid.UUID]*paymentDomain.Record
	events   []ledger.StatusEvent
}

func (s *memState) clone() *memState {
	return &memState{
		bookings: maps.Clone(s.bookings),
		payments: maps.Clone(s.payments),
		events:   append([]ledger.StatusEvent(nil), s.events...),
	}
}

// memStore is an in-memory UnitOfWork. Transactions are serialized and
// staged on a copy that replaces the committed state only when fn succeeds.
type memStore struct {
	mu        sync.Mutex
	committed *memState
	failNext  error
}

func newMemStore() *memStore {
	return &memStore{committed: &memState{
		bookings: map[uuid.UUID]*bookingDomain.Booking{},
		payments: map[uuid.UUID]*paymentDomain.Record{},
	}}
}

func (s *memStore) Within(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.committed.clone()
	err := fn(ctx, ledger.Tx{
		Bookings: &memBookings{st: staged},
		Payments: &memPayments{st: staged},
		Events:   &memEvents{st: staged},
	})
	if err == nil && s.failNext != nil {
		err, s.failNext = s.failNext, nil
	}
	if err != nil {
		return err
	}
	*s.committed = *staged
	return nil
}

// Committed read-side repositories, for queries.
func (s *memStore) bookings() *memBookings { return &memBookings{st: s.committed} }
func (s *memStore) payments() *memPayments { return &memPayments{st: s.committed} }
func (s *memStore) events() *memEvents     { return &memEvents{st: s.committed} }

func (s *memStore) snapshot() (*bookingDomain.Booking, *paymentDomain.Record, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, bk := range s.committed.bookings {
		return cloneBooking(bk), cloneRecord(s.committed.payments[id]), len(s.committed.events)
	}
	return nil, nil, 0
}

func cloneBooking(b *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		b.ID(), b.BookingNumber(), b.GuestName(), b.RoomID(), b.PropertyID(),
		b.Stay(), b.Amount(), b.Status(), b.CancellationReason(),
		b.ConfirmedAt(), b.CompletedAt(), b.CancelledAt(),
		b.Version(), b.CreatedAt(), b.UpdatedAt(),
	)
}

func cloneRecord(r *paymentDomain.Record) *paymentDomain.Record {
	return paymentDomain.ReconstructRecord(
		r.BookingID(), r.Status(), r.AmountCollected(), r.RefundAmount(),
		r.RefundedFrom(), r.RefundedAt(), r.Version(), r.CreatedAt(), r.UpdatedAt(),
	)
}

type memBookings struct{ st *memState }

func (m *memBookings) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	bk, ok := m.st.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return cloneBooking(bk), nil
}

func (m *memBookings) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	for _, bk := range m.st.bookings {
		if bk.BookingNumber() == number {
			return cloneBooking(bk), nil
		}
	}
	return nil, domain.NewNotFoundError("Booking", number)
}

func (m *memBookings) List(_ context.Context, filter bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var matched []*bookingDomain.Booking
	for id, bk := range m.st.bookings {
		if filter.PropertyID != nil && bk.PropertyID() != *filter.PropertyID {
			continue
		}
		if filter.Status != nil && bk.Status() != *filter.Status {
			continue
		}
		if filter.RefundOwed {
			rec, ok := m.st.payments[id]
			if !ok || !rec.RefundOwed(bk.Status() == bookingDomain.StatusCancelled) {
				continue
			}
		}
		matched = append(matched, cloneBooking(bk))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt().Equal(matched[j].CreatedAt()) {
			return matched[i].BookingNumber() > matched[j].BookingNumber()
		}
		return matched[i].CreatedAt().After(matched[j].CreatedAt())
	})

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := min(start+limit, len(matched))
	return matched[start:end], total, nil
}

func (m *memBookings) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, bk := range m.st.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (m *memBookings) Save(_ context.Context, bk *bookingDomain.Booking) error {
	if _, exists := m.st.bookings[bk.ID()]; exists {
		return domain.NewConflictError("booking already exists")
	}
	m.st.bookings[bk.ID()] = cloneBooking(bk)
	return nil
}

func (m *memBookings) Update(_ context.Context, bk *bookingDomain.Booking) error {
	stored, ok := m.st.bookings[bk.ID()]
	if !ok || stored.Version() != bk.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	m.st.bookings[bk.ID()] = cloneBooking(bk)
	return nil
}

type memPayments struct{ st *memState }

func (m *memPayments) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*paymentDomain.Record, error) {
	rec, ok := m.st.payments[bookingID]
	if !ok {
		return nil, domain.NewNotFoundError("PaymentRecord", bookingID.String())
	}
	return cloneRecord(rec), nil
}

func (m *memPayments) FindByBookingIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*paymentDomain.Record, error) {
	out := make(map[uuid.UUID]*paymentDomain.Record, len(ids))
	for _, id := range ids {
		if rec, ok := m.st.payments[id]; ok {
			out[id] = cloneRecord(rec)
		}
	}
	return out, nil
}

func (m *memPayments) Save(_ context.Context, rec *paymentDomain.Record) error {
	m.st.payments[rec.BookingID()] = cloneRecord(rec)
	return nil
}

func (m *memPayments) Update(_ context.Context, rec *paymentDomain.Record) error {
	stored, ok := m.st.payments[rec.BookingID()]
	if !ok || stored.Version() != rec.Version()-1 {
		return domain.NewConflictError("payment record was modified by another transaction")
	}
	m.st.payments[rec.BookingID()] = cloneRecord(rec)
	return nil
}

type memEvents struct{ st *memState }

func (m *memEvents) Append(_ context.Context, e ledger.StatusEvent) error {
	m.st.events = append(m.st.events, e)
	return nil
}

func (m *memEvents) HasCollection(_ context.Context, bookingID uuid.UUID, collectionID string) (bool, error) {
	for _, e := range m.st.events {
		if e.BookingID == bookingID && e.CollectionID == collectionID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memEvents) ListByBooking(_ context.Context, bookingID uuid.UUID) ([]ledger.StatusEvent, error) {
	var out []ledger.StatusEvent
	for _, e := range m.st.events {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memRates struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]pricing.RateConfig
}

func newMemRates() *memRates {
	return &memRates{rooms: map[uuid.UUID]pricing.RateConfig{}}
}

func (m *memRates) put(cfg pricing.RateConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[cfg.RoomID] = cfg
}

func (m *memRates) FindByRoomID(_ context.Context, roomID uuid.UUID) (*pricing.RateConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.rooms[roomID]
	if !ok {
		return nil, domain.NewNotFoundError("Room", roomID.String())
	}
	return &cfg, nil
}

type publishedEvent struct {
	topic string
	event *kafka.CloudEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic string, evt *kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{topic: topic, event: evt})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.event.Type
	}
	return out
}
