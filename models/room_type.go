package models

import (
	"time"

	"gorm.io/gorm"
)

// RoomType is pooled inventory: Quantity interchangeable units sold as one product.
type RoomType struct {
	ID uint `gorm:"primaryKey" json:"id"`

	TypeName    string `json:"typeName"`
	Description string `json:"description"`
	MaxGuests   uint   `json:"max_guests"`

	// Quantity is the number of sellable units. Zero is treated as one.
	Quantity int `gorm:"column:quantity;default:1" json:"quantity"`

	// ExternalRef is the channel's identifier for this room type.
	ExternalRef string `gorm:"column:external_ref;size:64;index" json:"externalRef,omitempty"`

	CreatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// Units returns the configured quantity, never less than one.
func (rt RoomType) Units() int {
	if rt.Quantity < 1 {
		return 1
	}
	return rt.Quantity
}
