// Package channel holds the channel-facing booking formats: the canonical
// booking, payload normalization, translation to and from reservations,
// webhook envelopes and signatures, and the outbound API client.
package channel

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidBooking = errors.New("invalid booking")

// Status is the channel-agnostic booking status.
type Status string

const (
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked-in"
	StatusCheckedOut Status = "checked-out"
	StatusCancelled  Status = "cancelled"
)

var statusAliases = map[string]Status{
	"confirmed":   StatusConfirmed,
	"request":     StatusConfirmed,
	"new":         StatusConfirmed,
	"inquiry":     StatusConfirmed,
	"checked-in":  StatusCheckedIn,
	"checked_in":  StatusCheckedIn,
	"checkedin":   StatusCheckedIn,
	"arrived":     StatusCheckedIn,
	"checked-out": StatusCheckedOut,
	"checked_out": StatusCheckedOut,
	"checkedout":  StatusCheckedOut,
	"departed":    StatusCheckedOut,
	"cancelled":   StatusCancelled,
	"canceled":    StatusCancelled,
}

// ParseStatus maps a raw channel status. Unrecognized or empty values are
// confirmed.
func ParseStatus(raw string) Status {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "-")
	if s, ok := statusAliases[key]; ok {
		return s
	}
	return StatusConfirmed
}

type GuestIdentity struct {
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	ExternalID string `json:"externalId,omitempty"`
}

func (g GuestIdentity) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(g.FirstName) + " " + strings.TrimSpace(g.LastName))
}

// HasIdentity reports whether any of name, email or phone is present.
func (g GuestIdentity) HasIdentity() bool {
	return g.FullName() != "" || strings.TrimSpace(g.Email) != "" || strings.TrimSpace(g.Phone) != ""
}

// SplitName splits a full name into first token and remainder.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// CanonicalBooking is a booking as any channel would describe it, after
// normalization. Arrival and Departure are calendar dates at UTC midnight and
// stay nil when the payload did not carry them.
type CanonicalBooking struct {
	ExternalID      string          `json:"externalId"`
	MasterID        string          `json:"masterId,omitempty"`
	RoomRef         string          `json:"roomRef,omitempty"`
	Arrival         *time.Time      `json:"arrival,omitempty"`
	Departure       *time.Time      `json:"departure,omitempty"`
	Status          Status          `json:"status"`
	RawStatus       string          `json:"rawStatus,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency,omitempty"`
	Source          string          `json:"source,omitempty"`
	Reference       string          `json:"reference,omitempty"`
	Guest           *GuestIdentity  `json:"guest,omitempty"`
	SpecialRequests string          `json:"specialRequests,omitempty"`
	UnitIndex       *int            `json:"unitIndex,omitempty"`
	Units           *int            `json:"units,omitempty"`
}

// ValidateStay checks that both dates are present and arrival < departure.
func (b CanonicalBooking) ValidateStay() error {
	if b.Arrival == nil || b.Departure == nil {
		return fmt.Errorf("%w: arrival and departure are required", ErrInvalidBooking)
	}
	if !b.Arrival.Before(*b.Departure) {
		return fmt.Errorf("%w: arrival %s is not before departure %s",
			ErrInvalidBooking, b.Arrival.Format(DateLayout), b.Departure.Format(DateLayout))
	}
	return nil
}
