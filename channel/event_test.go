package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventType(t *testing.T) {
	tests := map[string]EventType{
		"created":           EventCreated,
		"booking.created":   EventCreated,
		"BOOKING.MODIFIED":  EventModified,
		"cancelled":         EventCancelled,
		"booking.canceled":  EventCancelled,
		" booking.deleted ": EventDeleted,
	}
	for raw, want := range tests {
		got, ok := ParseEventType(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	for _, raw := range []string{"", "booking.", "paid", "booking.updated"} {
		_, ok := ParseEventType(raw)
		assert.False(t, ok, raw)
	}
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"event":"booking.created","eventId":12345678901234567,"timestamp":"t","booking":{"id":501}}`))
	require.NoError(t, err)
	assert.Equal(t, EventCreated, env.Type)
	assert.Equal(t, "12345678901234567", env.EventID)
	assert.Equal(t, "501", NewNormalizer().Normalize(env.Booking).ExternalID)
	assert.Equal(t, "t", env.Timestamp)

	env, err = DecodeEnvelope([]byte(`{"event":"deleted","booking":{"bookingId":"B2"}}`))
	require.NoError(t, err)
	assert.Empty(t, env.EventID)
	assert.Equal(t, "B2", NewNormalizer().Normalize(env.Booking).ExternalID)
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	bodies := []string{
		`not json`,
		`{"booking":{"id":1}}`,
		`{"event":"paid","booking":{"id":1}}`,
		`{"event":"created"}`,
		`{"event":"created","booking":null}`,
		`{"event":"created","booking":[1,2]}`,
		`{"event":"created","booking":"501"}`,
	}
	for _, body := range bodies {
		_, err := DecodeEnvelope([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedEvent, body)
	}
}

func TestSynthesizeEventID(t *testing.T) {
	assert.Equal(t, "beds24-501-1717200000000", SynthesizeEventID("beds24", "501", 1717200000000))
}
