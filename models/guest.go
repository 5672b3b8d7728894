package models

import (
	"strings"
	"time"
)

// UnknownGuestKey marks the single placeholder guest used when a booking
// carries no identifying data. The unique index on SentinelKey keeps it single.
const (
	UnknownGuestKey       = "unknown-guest"
	UnknownGuestFirstName = "Unknown"
	UnknownGuestLastName  = "Guest"
)

type Guest struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	FirstName string `gorm:"size:128" json:"firstName"`
	LastName  string `gorm:"size:128" json:"lastName"`

	Email *string `gorm:"size:191;index" json:"email,omitempty"`
	Phone *string `gorm:"size:64" json:"phone,omitempty"`

	// PhoneKey is Phone with whitespace, hyphens and parentheses removed.
	PhoneKey *string `gorm:"column:phone_key;size:64;index" json:"-"`

	ExternalGuestID *string `gorm:"column:external_guest_id;size:64;index" json:"externalGuestId,omitempty"`

	SentinelKey *string `gorm:"column:sentinel_key;size:32;uniqueIndex" json:"-"`
}

func (g Guest) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(g.FirstName) + " " + strings.TrimSpace(g.LastName))
}

func (g Guest) IsPlaceholder() bool {
	return g.SentinelKey != nil && *g.SentinelKey == UnknownGuestKey
}
