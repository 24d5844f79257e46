package payment

import (
	"testing"

	"github.com/dormhub/service-booking/internal/platform/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingAmount = decimal.NewFromInt(6500)

func amt(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestRecord_CollectForward(t *testing.T) {
	r := NewRecord(uuid.New())
	assert.Equal(t, StatusUnpaid, r.Status())
	assert.True(t, r.AmountCollected().IsZero())

	changed, err := r.Collect(StatusPartial, amt(2000), bookingAmount)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, r.AmountCollected().Equal(decimal.NewFromInt(2000)))

	changed, err = r.Collect(StatusPartial, amt(1000), bookingAmount)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, r.Outstanding(bookingAmount).Equal(decimal.NewFromInt(3500)))

	changed, err = r.Collect(StatusPaid, amt(3500), bookingAmount)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusPaid, r.Status())
	assert.True(t, r.AmountCollected().Equal(bookingAmount))
}

func TestRecord_PaidWithoutDeltaCollectsBalance(t *testing.T) {
	r := NewRecord(uuid.New())

	_, err := r.Collect(StatusPaid, nil, bookingAmount)
	require.NoError(t, err)
	assert.True(t, r.AmountCollected().Equal(bookingAmount))

	changed, err := r.Collect(StatusPaid, nil, bookingAmount)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestRecord_CollectRejects(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *Record)
		target PaymentStatus
		delta  *decimal.Decimal
		code   string
	}{
		{"partial without delta", nil, StatusPartial, nil, domain.CodeValidation},
		{"partial reaching full amount", nil, StatusPartial, amt(6500), domain.CodeValidation},
		{"paid with short delta", nil, StatusPaid, amt(100), domain.CodeValidation},
		{"paid overshooting", nil, StatusPaid, amt(7000), domain.CodeValidation},
		{"zero delta", nil, StatusPartial, amt(0), domain.CodeValidation},
		{"negative delta", nil, StatusPaid, amt(-1), domain.CodeValidation},
		{"refunded through collect", nil, StatusRefunded, nil, domain.CodeValidation},
		{"unpaid with delta", nil, StatusUnpaid, amt(5), domain.CodeValidation},
		{
			"paid back to unpaid",
			func(r *Record) { _, _ = r.Collect(StatusPaid, nil, bookingAmount) },
			StatusUnpaid, nil, domain.CodeInvalidTransition,
		},
		{
			"paid back to partial",
			func(r *Record) { _, _ = r.Collect(StatusPaid, nil, bookingAmount) },
			StatusPartial, amt(1), domain.CodeInvalidTransition,
		},
		{
			"partial back to unpaid",
			func(r *Record) { _, _ = r.Collect(StatusPartial, amt(10), bookingAmount) },
			StatusUnpaid, nil, domain.CodeInvalidTransition,
		},
		{
			"collect after refund",
			func(r *Record) {
				_, _ = r.Collect(StatusPaid, nil, bookingAmount)
				_ = r.Refund(bookingAmount)
			},
			StatusPaid, nil, domain.CodeInvalidTransition,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecord(uuid.New())
			if tt.setup != nil {
				tt.setup(r)
			}
			before := r.AmountCollected()
			statusBefore := r.Status()

			_, err := r.Collect(tt.target, tt.delta, bookingAmount)
			require.Error(t, err)
			assert.Equal(t, tt.code, domain.CodeOf(err))
			assert.True(t, before.Equal(r.AmountCollected()))
			assert.Equal(t, statusBefore, r.Status())
		})
	}
}

func TestRecord_UnpaidNoOp(t *testing.T) {
	r := NewRecord(uuid.New())
	changed, err := r.Collect(StatusUnpaid, nil, bookingAmount)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestRecord_Refund(t *testing.T) {
	r := NewRecord(uuid.New())
	_, err := r.Collect(StatusPartial, amt(3000), bookingAmount)
	require.NoError(t, err)

	err = r.Refund(decimal.NewFromInt(3001))
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
	assert.Equal(t, StatusPartial, r.Status())
	assert.Nil(t, r.RefundAmount())

	err = r.Refund(decimal.Zero)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))

	require.NoError(t, r.Refund(decimal.NewFromInt(2500)))
	assert.Equal(t, StatusRefunded, r.Status())
	assert.Equal(t, StatusPartial, r.RefundedFrom())
	require.NotNil(t, r.RefundAmount())
	assert.True(t, r.RefundAmount().Equal(decimal.NewFromInt(2500)))
	assert.NotNil(t, r.RefundedAt())
	assert.True(t, r.IsSameRefund(decimal.NewFromInt(2500)))
	assert.False(t, r.IsSameRefund(decimal.NewFromInt(3000)))

	err = r.Refund(decimal.NewFromInt(1))
	assert.True(t, domain.IsCode(err, domain.CodeInvalidTransition))
}

func TestRecord_RefundUnpaidNeverClamps(t *testing.T) {
	r := NewRecord(uuid.New())
	err := r.Refund(decimal.NewFromInt(1))
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
	assert.Equal(t, StatusUnpaid, r.Status())
}

func TestRecord_RefundOwed(t *testing.T) {
	r := NewRecord(uuid.New())
	assert.False(t, r.RefundOwed(true))

	_, err := r.Collect(StatusPaid, nil, bookingAmount)
	require.NoError(t, err)
	assert.False(t, r.RefundOwed(false))
	assert.True(t, r.RefundOwed(true))

	require.NoError(t, r.Refund(bookingAmount))
	assert.False(t, r.RefundOwed(true))
}

func TestParsePaymentStatus(t *testing.T) {
	s, err := ParsePaymentStatus("PAID")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, s)

	_, err = ParsePaymentStatus("overpaid")
	assert.True(t, domain.IsCode(err, domain.CodeValidation))

	assert.True(t, StatusUnpaid.IsBackwardFrom(StatusPartial))
	assert.False(t, StatusPartial.IsBackwardFrom(StatusPartial))
	assert.False(t, StatusRefunded.IsBackwardFrom(StatusPaid))
}
