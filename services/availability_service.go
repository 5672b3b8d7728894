package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotel-sync/channel"
	"hotel-sync/models"

	"gorm.io/gorm"
)

// Inventory is a resolved sellable entity: one physical room or a room type
// pool.
type Inventory struct {
	Target     channel.Target
	Total      int
	ChannelRef string
	Name       string
}

// InventoryRef names an entity by id. PreferRoomType tries room types first;
// otherwise rooms are tried first with room types as fallback.
type InventoryRef struct {
	ID             uint
	PreferRoomType bool
}

type AvailabilityService struct {
	DB      *gorm.DB
	MaxDays int
}

func NewAvailabilityService(db *gorm.DB, maxDays int) *AvailabilityService {
	if maxDays <= 0 {
		maxDays = 366
	}
	return &AvailabilityService{DB: db, MaxDays: maxDays}
}

func (s *AvailabilityService) Resolve(ctx context.Context, ref InventoryRef) (Inventory, error) {
	db := s.DB.WithContext(ctx)
	lookups := []func() (Inventory, error){
		func() (Inventory, error) { return s.room(db, ref.ID) },
		func() (Inventory, error) { return s.roomType(db, ref.ID) },
	}
	if ref.PreferRoomType {
		lookups[0], lookups[1] = lookups[1], lookups[0]
	}
	for _, lookup := range lookups {
		inv, err := lookup()
		if err == nil {
			return inv, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return Inventory{}, err
		}
	}
	return Inventory{}, fmt.Errorf("%w: no room or room type with id %d", ErrNotFound, ref.ID)
}

func (s *AvailabilityService) room(db *gorm.DB, id uint) (Inventory, error) {
	var room models.Room
	if err := db.First(&room, id).Error; err != nil {
		return Inventory{}, err
	}
	rid := room.ID
	return Inventory{
		Target:     channel.Target{RoomID: &rid},
		Total:      1,
		ChannelRef: ChannelRef(room),
		Name:       room.RoomNumber,
	}, nil
}

func (s *AvailabilityService) roomType(db *gorm.DB, id uint) (Inventory, error) {
	var rt models.RoomType
	if err := db.First(&rt, id).Error; err != nil {
		return Inventory{}, err
	}
	tid := rt.ID
	return Inventory{
		Target:     channel.Target{RoomTypeID: &tid},
		Total:      rt.Units(),
		ChannelRef: rt.ExternalRef,
		Name:       rt.TypeName,
	}, nil
}

// Availability returns one entry per calendar day in [from, to]. Remaining
// units never go below zero.
func (s *AvailabilityService) Availability(ctx context.Context, ref InventoryRef, from, to time.Time) ([]models.AvailabilityDay, error) {
	if err := s.CheckWindow(from, to); err != nil {
		return nil, err
	}
	inv, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.ForInventory(ctx, inv, from, to)
}

// CheckWindow rejects reversed windows and windows longer than MaxDays.
func (s *AvailabilityService) CheckWindow(from, to time.Time) error {
	from, to = channel.DateOf(from), channel.DateOf(to)
	if from.After(to) {
		return fmt.Errorf("%w: from %s is after to %s", ErrValidation, from.Format(channel.DateLayout), to.Format(channel.DateLayout))
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > s.MaxDays {
		return fmt.Errorf("%w: window of %d days exceeds %d", ErrValidation, days, s.MaxDays)
	}
	return nil
}

// ForInventory computes availability for an already resolved entity. A room
// type pool only counts bookings made against the pool itself.
func (s *AvailabilityService) ForInventory(ctx context.Context, inv Inventory, from, to time.Time) ([]models.AvailabilityDay, error) {
	from, to = channel.DateOf(from), channel.DateOf(to)
	db := s.DB.WithContext(ctx)

	column, id := "room_id", uint(0)
	if inv.Target.IsRoomType() {
		column, id = "room_type_id", *inv.Target.RoomTypeID
	} else if inv.Target.RoomID != nil {
		id = *inv.Target.RoomID
	}

	var reservations []models.Reservation
	err := db.Where(column+" = ?", id).
		Where("status NOT IN ?", []string{models.StatusCancelled, models.StatusCheckedOut}).
		Where("check_in <= ? AND check_out > ?", to, from).
		Find(&reservations).Error
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}

	var blocks []models.MaintenanceBlock
	err = db.Where(column+" = ?", id).
		Where("status <> ?", models.MaintenanceCompleted).
		Where("start_date <= ? AND end_date >= ?", to, from).
		Find(&blocks).Error
	if err != nil {
		return nil, fmt.Errorf("load maintenance blocks: %w", err)
	}

	var housekeeping []models.HousekeepingRecord
	if !inv.Target.IsRoomType() {
		err = db.Where("room_id = ? AND status = ?", id, models.HousekeepingOutOfService).
			Where("date >= ? AND date <= ?", from, to).
			Find(&housekeeping).Error
		if err != nil {
			return nil, fmt.Errorf("load housekeeping: %w", err)
		}
	}

	days := make([]models.AvailabilityDay, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = channel.AddDays(d, 1) {
		used := 0
		for _, r := range reservations {
			if !d.Before(channel.DateOf(r.CheckIn)) && d.Before(channel.DateOf(r.CheckOut)) {
				used += r.Units()
			}
		}
		for _, b := range blocks {
			if !d.Before(channel.DateOf(b.StartDate)) && !d.After(channel.DateOf(b.EndDate)) {
				used += max(b.AffectedUnits, 1)
			}
		}
		for _, h := range housekeeping {
			if channel.DateOf(h.Date).Equal(d) {
				used++
			}
		}
		days = append(days, models.AvailabilityDay{Date: d, Remaining: max(inv.Total-used, 0)})
	}
	return days, nil
}
