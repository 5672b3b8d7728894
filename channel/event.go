package channel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedEvent = errors.New("malformed webhook event")

type EventType string

const (
	EventCreated   EventType = "created"
	EventModified  EventType = "modified"
	EventCancelled EventType = "cancelled"
	EventDeleted   EventType = "deleted"
)

// ParseEventType accepts the four event names with or without a "booking."
// prefix.
func ParseEventType(raw string) (EventType, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.TrimPrefix(name, "booking.")
	switch EventType(name) {
	case EventCreated, EventModified, EventDeleted:
		return EventType(name), true
	case EventCancelled, "canceled":
		return EventCancelled, true
	}
	return "", false
}

// Envelope is the webhook body: {event, booking, eventId?, timestamp?}.
type Envelope struct {
	Type      EventType
	Booking   map[string]any
	EventID   string
	Timestamp string
}

type rawEnvelope struct {
	Event     string          `json:"event"`
	Booking   json.RawMessage `json:"booking"`
	EventID   json.RawMessage `json:"eventId"`
	Timestamp string          `json:"timestamp"`
}

// DecodeEnvelope parses a webhook body. Numbers inside the booking are kept
// as json.Number so large ids survive.
func DecodeEnvelope(body []byte) (Envelope, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(body, &raw); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	typ, ok := ParseEventType(raw.Event)
	if !ok {
		return Envelope{}, fmt.Errorf("%w: unsupported event type %q", ErrMalformedEvent, raw.Event)
	}
	if len(bytes.TrimSpace(raw.Booking)) == 0 {
		return Envelope{}, fmt.Errorf("%w: booking payload is required", ErrMalformedEvent)
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Booking))
	dec.UseNumber()
	var booking any
	if err := dec.Decode(&booking); err != nil {
		return Envelope{}, fmt.Errorf("%w: booking: %v", ErrMalformedEvent, err)
	}
	obj, ok := booking.(map[string]any)
	if !ok || obj == nil {
		return Envelope{}, fmt.Errorf("%w: booking must be an object", ErrMalformedEvent)
	}

	env := Envelope{Type: typ, Booking: obj, Timestamp: strings.TrimSpace(raw.Timestamp)}
	if len(raw.EventID) > 0 {
		var id any
		d := json.NewDecoder(bytes.NewReader(raw.EventID))
		d.UseNumber()
		if err := d.Decode(&id); err == nil {
			env.EventID = stringify(id)
		}
	}
	return env, nil
}

// SynthesizeEventID builds the fallback identity for events without an id.
func SynthesizeEventID(channelName, externalBookingID string, receivedAtMillis int64) string {
	return fmt.Sprintf("%s-%s-%d", channelName, externalBookingID, receivedAtMillis)
}
