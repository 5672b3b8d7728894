package models

import (
	"gorm.io/gorm"
)

const (
	RoomStatusAvailable     = "Available"
	RoomStatusOccupied      = "Occupied"
	RoomStatusNeedsCleaning = "Needs-Cleaning"
)

type Room struct {
	gorm.Model

	// Nullable so a room without a type never inserts FK=0.
	RoomTypeID *uint  `json:"RoomTypeID,omitempty" gorm:"column:room_type_id;index"`
	RoomNumber string `json:"roomNumber" gorm:"column:room_number;uniqueIndex;type:varchar(50)"`
	RoomCode   string `json:"roomCode"   gorm:"column:room_code;type:varchar(50)"`

	// ExternalRef is the channel's identifier for this physical room.
	ExternalRef string `json:"externalRef,omitempty" gorm:"column:external_ref;size:64;index"`

	Status      string  `json:"status"`
	Floor       string  `json:"floor" gorm:"type:varchar(10)"`
	Price       float64 `json:"price"`
	Description string  `json:"description" gorm:"type:text"`

	RoomType *RoomType `gorm:"foreignKey:RoomTypeID" json:"roomType,omitempty"`
}
