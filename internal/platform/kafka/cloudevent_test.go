package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	BookingID string `json:"booking_id"`
	Amount    string `json:"amount"`
}

func TestCloudEvent_EnvelopeAndParse(t *testing.T) {
	ce, err := NewCloudEvent("service-booking", "payment.refunded", samplePayload{BookingID: "b-1", Amount: "6500"})
	require.NoError(t, err)
	ce.WithSubject("b-1")

	assert.Equal(t, "1.0", ce.SpecVersion)
	assert.NotEmpty(t, ce.ID)
	assert.Equal(t, "b-1", ce.Subject)

	raw, err := json.Marshal(ce)
	require.NoError(t, err)

	parsed, err := ParseCloudEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "payment.refunded", parsed.Type)

	var got samplePayload
	require.NoError(t, parsed.ParseData(&got))
	assert.Equal(t, "6500", got.Amount)
}

func TestParseCloudEvent_Rejects(t *testing.T) {
	_, err := ParseCloudEvent([]byte("not json"))
	assert.Error(t, err)

	_, err = ParseCloudEvent([]byte(`{"id":"x"}`))
	assert.Error(t, err)

	assert.Error(t, CloudEvent{ID: "empty"}.ParseData(&samplePayload{}))
}
