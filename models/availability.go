package models

import (
	"strconv"
	"time"
)

// AvailabilityDay is derived on demand and never stored.
type AvailabilityDay struct {
	Date      time.Time `json:"date"`
	Remaining int       `json:"remaining"`
}

// AllModels lists every table owned by the sync engine in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&RoomType{},
		&Room{},
		&Guest{},
		&Reservation{},
		&ReservationGuest{},
		&MaintenanceBlock{},
		&HousekeepingRecord{},
		&WebhookEvent{},
	}
}

func (d AvailabilityDay) MarshalJSON() ([]byte, error) {
	return []byte(`{"date":"` + d.Date.Format("2006-01-02") + `","remaining":` + strconv.Itoa(d.Remaining) + `}`), nil
}
