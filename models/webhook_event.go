package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	WebhookPending   = "pending"
	WebhookSucceeded = "succeeded"
	WebhookFailed    = "failed"
)

// WebhookEvent records one received channel event. EventID is unique; a
// second receipt with the same id is never processed.
type WebhookEvent struct {
	ID uint `gorm:"primaryKey" json:"id"`

	EventID           string `gorm:"column:event_id;size:191;not null;uniqueIndex" json:"eventId"`
	Channel           string `gorm:"column:channel;size:64;index" json:"channel"`
	EventType         string `gorm:"column:event_type;size:32;index" json:"eventType"`
	ExternalBookingID string `gorm:"column:external_booking_id;size:64;index" json:"externalBookingId"`

	Payload datatypes.JSON `gorm:"column:payload" json:"payload"`

	Status   string `gorm:"column:status;size:16;index" json:"status"`
	Message  string `gorm:"column:message;type:text" json:"message,omitempty"`
	Error    string `gorm:"column:error;type:text" json:"error,omitempty"`
	Attempts int    `gorm:"column:attempts;default:0" json:"attempts"`

	ReceivedAt  time.Time  `gorm:"column:received_at;index" json:"receivedAt"`
	ProcessedAt *time.Time `gorm:"column:processed_at" json:"processedAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (e WebhookEvent) IsTerminal() bool {
	return e.Status == WebhookSucceeded || e.Status == WebhookFailed
}
