package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusConfirmed  = "Confirmed"
	StatusCheckedIn  = "Checked-In"
	StatusCheckedOut = "Checked-Out"
	StatusCancelled  = "Cancelled"
)

const SourceDirect = "Direct"

// Reservation references exactly one of Room or RoomType. DeletedAt is the
// tombstone written by channel deletions.
type Reservation struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	RoomID     *uint `gorm:"column:room_id;index" json:"roomId,omitempty"`
	RoomTypeID *uint `gorm:"column:room_type_id;index" json:"roomTypeId,omitempty"`

	// AssignedUnit is zero-based and only set for room-type reservations.
	AssignedUnit *int `gorm:"column:assigned_unit" json:"assignedUnit,omitempty"`

	GuestID uint `gorm:"column:guest_id;index" json:"guestId"`

	CheckIn  time.Time `gorm:"column:check_in;index" json:"checkIn"`
	CheckOut time.Time `gorm:"column:check_out;index" json:"checkOut"`

	Status      string          `gorm:"column:status;size:32;index" json:"status"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:decimal(12,2)" json:"totalAmount"`
	Currency    string          `gorm:"column:currency;size:3" json:"currency"`
	Source      string          `gorm:"column:source;size:64" json:"source"`

	// ExternalBookingID is the upsert key for channel traffic.
	ExternalBookingID *string `gorm:"column:external_booking_id;size:64;uniqueIndex" json:"externalBookingId,omitempty"`
	ExternalMasterID  *string `gorm:"column:external_master_id;size:64;index" json:"externalMasterId,omitempty"`
	ExternalReference string  `gorm:"column:external_reference;size:128" json:"externalReference,omitempty"`

	UnitsRequested  int    `gorm:"column:units_requested;default:1" json:"unitsRequested"`
	SpecialRequests string `gorm:"column:special_requests;type:text" json:"specialRequests,omitempty"`

	ChannelData datatypes.JSON `gorm:"column:channel_data" json:"-"`

	Room     *Room              `gorm:"foreignKey:RoomID;references:ID" json:"room,omitempty"`
	RoomType *RoomType          `gorm:"foreignKey:RoomTypeID;references:ID" json:"roomType,omitempty"`
	Guests   []ReservationGuest `gorm:"foreignKey:ReservationID" json:"guests,omitempty"`
}

// IsActive reports whether the reservation still holds inventory.
func (r Reservation) IsActive() bool {
	if r.DeletedAt.Valid {
		return false
	}
	return r.Status != StatusCancelled && r.Status != StatusCheckedOut
}

// Units returns UnitsRequested, never less than one.
func (r Reservation) Units() int {
	if r.UnitsRequested < 1 {
		return 1
	}
	return r.UnitsRequested
}
