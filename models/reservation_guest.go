package models

import (
	"gorm.io/gorm"
)

// ReservationGuest links guests to a reservation. Exactly one row per
// reservation carries IsPrimary.
type ReservationGuest struct {
	gorm.Model
	ReservationID uint `gorm:"index;column:reservation_id" json:"reservation_id"`
	GuestID       uint `gorm:"index;column:guest_id" json:"guest_id"`
	IsPrimary     bool `gorm:"column:is_primary;default:false" json:"isPrimary"`

	Guest Guest `gorm:"foreignKey:GuestID;references:ID" json:"guest,omitempty"`
}
