package models

import "time"

const HousekeepingOutOfService = "out-of-service"

// HousekeepingRecord is a per-room, per-day housekeeping state. Records with
// status out-of-service hold the room for that date only.
type HousekeepingRecord struct {
	ID uint `gorm:"primaryKey" json:"id"`

	RoomID uint      `gorm:"column:room_id;index" json:"roomId"`
	Date   time.Time `gorm:"column:date;index" json:"date"`
	Status string    `gorm:"column:status;size:32" json:"status"`
	Notes  string    `gorm:"column:notes;type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
