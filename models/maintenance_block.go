package models

import "time"

const (
	MaintenanceScheduled  = "scheduled"
	MaintenanceInProgress = "in-progress"
	MaintenanceCompleted  = "completed"
)

// MaintenanceBlock removes AffectedUnits from sale for every day in
// [StartDate, EndDate], both ends included.
type MaintenanceBlock struct {
	ID uint `gorm:"primaryKey" json:"id"`

	RoomID     *uint `gorm:"column:room_id;index" json:"roomId,omitempty"`
	RoomTypeID *uint `gorm:"column:room_type_id;index" json:"roomTypeId,omitempty"`

	StartDate     time.Time `gorm:"column:start_date;index" json:"startDate"`
	EndDate       time.Time `gorm:"column:end_date;index" json:"endDate"`
	AffectedUnits int       `gorm:"column:affected_units;default:1" json:"affectedUnits"`
	Status        string    `gorm:"column:status;size:32" json:"status"`
	Reason        string    `gorm:"column:reason;type:text" json:"reason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
