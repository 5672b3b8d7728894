package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hotel-sync/channel"
	"hotel-sync/models"

	"gorm.io/gorm"
)

type RoomService struct {
	DB *gorm.DB
}

func NewRoomService(db *gorm.DB) *RoomService {
	return &RoomService{DB: db}
}

func (s *RoomService) GetAll(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	err := s.DB.WithContext(ctx).Preload("RoomType").Order("room_number").Find(&rooms).Error
	return rooms, err
}

func (s *RoomService) GetByID(ctx context.Context, id uint) (models.Room, error) {
	var room models.Room
	err := s.DB.WithContext(ctx).Preload("RoomType").First(&room, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return room, fmt.Errorf("%w: room %d", ErrNotFound, id)
	}
	return room, err
}

// ResolveTarget maps a channel room reference to a room or, failing that, a
// room type. Rooms match on external ref, then room number.
func (s *RoomService) ResolveTarget(ctx context.Context, tx *gorm.DB, ref string) (channel.Target, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return channel.Target{}, fmt.Errorf("%w: booking has no room reference", ErrValidation)
	}
	if tx == nil {
		tx = s.DB
	}
	db := tx.WithContext(ctx)

	var room models.Room
	err := db.Where("external_ref = ?", ref).Order("id").First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = db.Where("room_number = ?", ref).First(&room).Error
	}
	if err == nil {
		id := room.ID
		return channel.Target{RoomID: &id}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return channel.Target{}, fmt.Errorf("find room %q: %w", ref, err)
	}

	var rt models.RoomType
	err = db.Where("external_ref = ?", ref).Order("id").First(&rt).Error
	if err == nil {
		id := rt.ID
		return channel.Target{RoomTypeID: &id}, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return channel.Target{}, fmt.Errorf("%w: no room or room type for reference %q", ErrNotFound, ref)
	}
	return channel.Target{}, fmt.Errorf("find room type %q: %w", ref, err)
}

func (s *RoomService) SetStatus(ctx context.Context, tx *gorm.DB, roomID uint, status string) error {
	if tx == nil {
		tx = s.DB
	}
	return tx.WithContext(ctx).Model(&models.Room{}).Where("id = ?", roomID).Update("status", status).Error
}

// HasOtherActiveReservation reports whether any live, non-cancelled,
// non-checked-out reservation other than excludeID holds the room.
func (s *RoomService) HasOtherActiveReservation(ctx context.Context, tx *gorm.DB, roomID, excludeID uint) (bool, error) {
	if tx == nil {
		tx = s.DB
	}
	var n int64
	err := tx.WithContext(ctx).Model(&models.Reservation{}).
		Where("room_id = ? AND id <> ?", roomID, excludeID).
		Where("status NOT IN ?", []string{models.StatusCancelled, models.StatusCheckedOut}).
		Count(&n).Error
	return n > 0, err
}

// ChannelRef is the identifier the channel knows this room by.
func ChannelRef(room models.Room) string {
	if room.ExternalRef != "" {
		return room.ExternalRef
	}
	return room.RoomNumber
}
