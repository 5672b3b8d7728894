package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hotel-sync/channel"
	"hotel-sync/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Outcome describes what applying one channel event did.
type Outcome struct {
	Message       string
	ReservationID uint
	// Satisfied is set when nothing had to change.
	Satisfied bool
}

// ReservationService applies canonical bookings to reservations. Every
// operation runs in its own transaction.
type ReservationService struct {
	DB         *gorm.DB
	log        *zap.Logger
	guests     *GuestService
	rooms      *RoomService
	translator channel.Translator
}

func NewReservationService(db *gorm.DB, log *zap.Logger, guests *GuestService, rooms *RoomService, translator channel.Translator) *ReservationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReservationService{
		DB:         db,
		log:        log.Named("reservations"),
		guests:     guests,
		rooms:      rooms,
		translator: translator,
	}
}

func (s *ReservationService) GetByID(ctx context.Context, id uint) (models.Reservation, error) {
	var r models.Reservation
	err := s.DB.WithContext(ctx).Preload("Room").Preload("RoomType").First(&r, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r, fmt.Errorf("%w: reservation %d", ErrNotFound, id)
	}
	return r, err
}

// ApplyCreated creates the reservation, or updates it when the external id
// is already known.
func (s *ReservationService) ApplyCreated(ctx context.Context, b channel.CanonicalBooking) (Outcome, error) {
	var out Outcome
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.findByExternalID(tx, b.ExternalID)
		if err != nil {
			return err
		}
		switch {
		case existing == nil:
			out, err = s.create(ctx, tx, b)
		case existing.DeletedAt.Valid:
			out = tombstoned(existing)
		default:
			out, err = s.update(ctx, tx, existing, b)
		}
		return err
	})
	return out, err
}

// ApplyModified updates the reservation, creating it if the channel never
// sent the original.
func (s *ReservationService) ApplyModified(ctx context.Context, b channel.CanonicalBooking) (Outcome, error) {
	return s.ApplyCreated(ctx, b)
}

func (s *ReservationService) ApplyCancelled(ctx context.Context, externalID string) (Outcome, error) {
	var out Outcome
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.findByExternalID(tx, externalID)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("%w: reservation for booking %s", ErrNotFound, externalID)
		}
		if existing.DeletedAt.Valid {
			out = tombstoned(existing)
			return nil
		}
		if existing.Status == models.StatusCancelled {
			out = Outcome{ReservationID: existing.ID, Satisfied: true,
				Message: fmt.Sprintf("reservation %d already cancelled", existing.ID)}
			return nil
		}
		if err := tx.Model(&models.Reservation{}).Where("id = ?", existing.ID).
			Update("status", models.StatusCancelled).Error; err != nil {
			return fmt.Errorf("cancel reservation %d: %w", existing.ID, err)
		}
		if err := s.releaseRoom(ctx, tx, existing); err != nil {
			return err
		}
		out = Outcome{ReservationID: existing.ID, Message: fmt.Sprintf("reservation %d cancelled", existing.ID)}
		return nil
	})
	return out, err
}

// ApplyDeleted cancels and tombstones the reservation. An unknown booking is
// not an error.
func (s *ReservationService) ApplyDeleted(ctx context.Context, externalID string) (Outcome, error) {
	var out Outcome
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.findByExternalID(tx, externalID)
		if err != nil {
			return err
		}
		if existing == nil {
			out = Outcome{Satisfied: true, Message: fmt.Sprintf("no reservation found for booking %s; nothing to delete", externalID)}
			return nil
		}
		if existing.DeletedAt.Valid {
			out = tombstoned(existing)
			return nil
		}
		if err := tx.Model(&models.Reservation{}).Where("id = ?", existing.ID).
			Update("status", models.StatusCancelled).Error; err != nil {
			return fmt.Errorf("cancel reservation %d: %w", existing.ID, err)
		}
		if err := tx.Delete(&models.Reservation{}, existing.ID).Error; err != nil {
			return fmt.Errorf("delete reservation %d: %w", existing.ID, err)
		}
		if err := s.releaseRoom(ctx, tx, existing); err != nil {
			return err
		}
		out = Outcome{ReservationID: existing.ID, Message: fmt.Sprintf("reservation %d deleted", existing.ID)}
		return nil
	})
	return out, err
}

func (s *ReservationService) create(ctx context.Context, tx *gorm.DB, b channel.CanonicalBooking) (Outcome, error) {
	r, err := s.build(ctx, tx, b)
	if err != nil {
		return Outcome{}, err
	}
	if err := tx.Create(&r).Error; err != nil {
		if isDuplicateKey(err) {
			return Outcome{}, fmt.Errorf("reservation for booking %s was created concurrently: %w", b.ExternalID, err)
		}
		return Outcome{}, fmt.Errorf("create reservation: %w", err)
	}
	if err := s.linkPrimaryGuest(tx, r.ID, r.GuestID); err != nil {
		return Outcome{}, err
	}
	if err := s.applyRoomStatus(ctx, tx, r.ID, r); err != nil {
		return Outcome{}, err
	}
	s.log.Info("reservation created",
		zap.Uint("reservation_id", r.ID),
		zap.String("external_booking_id", b.ExternalID))
	return Outcome{ReservationID: r.ID, Message: fmt.Sprintf("reservation %d created", r.ID)}, nil
}

func (s *ReservationService) update(ctx context.Context, tx *gorm.DB, existing *models.Reservation, b channel.CanonicalBooking) (Outcome, error) {
	r, err := s.build(ctx, tx, b)
	if err != nil {
		return Outcome{}, err
	}
	if err := tx.Model(&models.Reservation{}).Where("id = ?", existing.ID).
		Updates(channel.UpdateColumns(r)).Error; err != nil {
		return Outcome{}, fmt.Errorf("update reservation %d: %w", existing.ID, err)
	}
	if movedOff(existing.RoomID, r.RoomID) {
		if err := s.releaseRoom(ctx, tx, existing); err != nil {
			return Outcome{}, err
		}
	}
	if err := s.linkPrimaryGuest(tx, existing.ID, r.GuestID); err != nil {
		return Outcome{}, err
	}
	if err := s.applyRoomStatus(ctx, tx, existing.ID, r); err != nil {
		return Outcome{}, err
	}
	s.log.Info("reservation updated",
		zap.Uint("reservation_id", existing.ID),
		zap.String("external_booking_id", b.ExternalID))
	return Outcome{ReservationID: existing.ID, Message: fmt.Sprintf("reservation %d updated", existing.ID)}, nil
}

// build resolves guest and room and translates the booking. Nothing is
// written except a new or merged guest.
func (s *ReservationService) build(ctx context.Context, tx *gorm.DB, b channel.CanonicalBooking) (models.Reservation, error) {
	if err := b.ValidateStay(); err != nil {
		return models.Reservation{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	guestID, err := s.guests.Resolve(ctx, tx, b.Guest)
	if err != nil {
		return models.Reservation{}, err
	}
	target, err := s.rooms.ResolveTarget(ctx, tx, b.RoomRef)
	if err != nil {
		return models.Reservation{}, err
	}
	r, err := s.translator.ToReservation(b, target, guestID)
	if err != nil {
		return models.Reservation{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return r, nil
}

// applyRoomStatus mirrors the reservation status onto its physical room.
func (s *ReservationService) applyRoomStatus(ctx context.Context, tx *gorm.DB, reservationID uint, r models.Reservation) error {
	if r.RoomID == nil {
		return nil
	}
	switch r.Status {
	case models.StatusCheckedIn:
		return s.rooms.SetStatus(ctx, tx, *r.RoomID, models.RoomStatusOccupied)
	case models.StatusCheckedOut:
		return s.rooms.SetStatus(ctx, tx, *r.RoomID, models.RoomStatusNeedsCleaning)
	case models.StatusCancelled:
		r.ID = reservationID
		return s.releaseRoom(ctx, tx, &r)
	}
	return nil
}

// releaseRoom frees an occupied room once no other active reservation holds
// it.
func (s *ReservationService) releaseRoom(ctx context.Context, tx *gorm.DB, r *models.Reservation) error {
	if r.RoomID == nil {
		return nil
	}
	var room models.Room
	if err := tx.First(&room, *r.RoomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("load room %d: %w", *r.RoomID, err)
	}
	if room.Status != models.RoomStatusOccupied {
		return nil
	}
	busy, err := s.rooms.HasOtherActiveReservation(ctx, tx, room.ID, r.ID)
	if err != nil {
		return fmt.Errorf("check room %d: %w", room.ID, err)
	}
	if busy {
		return nil
	}
	return s.rooms.SetStatus(ctx, tx, room.ID, models.RoomStatusAvailable)
}

func (s *ReservationService) linkPrimaryGuest(tx *gorm.DB, reservationID, guestID uint) error {
	var link models.ReservationGuest
	err := tx.Where("reservation_id = ? AND is_primary = ?", reservationID, true).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		link = models.ReservationGuest{ReservationID: reservationID, GuestID: guestID, IsPrimary: true}
		return tx.Create(&link).Error
	}
	if err != nil {
		return fmt.Errorf("load primary guest: %w", err)
	}
	if link.GuestID == guestID {
		return nil
	}
	return tx.Model(&link).Update("guest_id", guestID).Error
}

// findByExternalID includes tombstoned rows and locks the match.
func (s *ReservationService) findByExternalID(tx *gorm.DB, externalID string) (*models.Reservation, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, fmt.Errorf("%w: external booking id is required", ErrValidation)
	}
	var r models.Reservation
	err := forUpdate(tx.Unscoped()).Where("external_booking_id = ?", externalID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find reservation for booking %s: %w", externalID, err)
	}
	return &r, nil
}

// movedOff reports whether a reservation left the physical room it held.
func movedOff(before, after *uint) bool {
	return before != nil && (after == nil || *after != *before)
}

func tombstoned(r *models.Reservation) Outcome {
	return Outcome{
		ReservationID: r.ID,
		Satisfied:     true,
		Message:       fmt.Sprintf("reservation %d was deleted; event ignored", r.ID),
	}
}
