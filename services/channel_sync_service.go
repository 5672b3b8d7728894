package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotel-sync/channel"
	"hotel-sync/metrics"
	"hotel-sync/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ChannelSyncService pushes local reservations and availability to the
// channel.
type ChannelSyncService struct {
	DB           *gorm.DB
	log          *zap.Logger
	client       channel.Client
	translator   channel.Translator
	availability *AvailabilityService
	metrics      *metrics.Metrics
}

func NewChannelSyncService(
	db *gorm.DB,
	log *zap.Logger,
	client channel.Client,
	translator channel.Translator,
	availability *AvailabilityService,
	m *metrics.Metrics,
) *ChannelSyncService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChannelSyncService{
		DB:           db,
		log:          log.Named("channel.sync"),
		client:       client,
		translator:   translator,
		availability: availability,
		metrics:      m,
	}
}

// PushReservation sends one reservation to the channel. A reservation the
// channel has never seen is created there and the returned id is stored as
// its external booking id.
func (s *ChannelSyncService) PushReservation(ctx context.Context, reservationID uint) (channel.OutboundBooking, error) {
	var r models.Reservation
	err := s.DB.WithContext(ctx).Preload("Room").Preload("RoomType").First(&r, reservationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return channel.OutboundBooking{}, fmt.Errorf("%w: reservation %d", ErrNotFound, reservationID)
	}
	if err != nil {
		return channel.OutboundBooking{}, fmt.Errorf("load reservation %d: %w", reservationID, err)
	}

	roomRef := ""
	switch {
	case r.Room != nil:
		roomRef = ChannelRef(*r.Room)
	case r.RoomType != nil:
		roomRef = r.RoomType.ExternalRef
	}
	if roomRef == "" {
		return channel.OutboundBooking{}, fmt.Errorf("%w: reservation %d has no channel room reference", ErrValidation, reservationID)
	}

	var guest *models.Guest
	var g models.Guest
	if err := s.DB.WithContext(ctx).First(&g, r.GuestID).Error; err == nil {
		guest = &g
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return channel.OutboundBooking{}, fmt.Errorf("load guest %d: %w", r.GuestID, err)
	}

	out := s.translator.ToOutbound(r, roomRef, guest)
	id, err := s.client.UpsertBooking(ctx, out)
	s.metrics.ChannelPush("booking", err)
	if err != nil {
		return out, fmt.Errorf("push reservation %d: %w", reservationID, err)
	}

	if !out.IsUpdate() && id != "" {
		if err := s.DB.WithContext(ctx).Model(&models.Reservation{}).Where("id = ?", r.ID).
			Update("external_booking_id", id).Error; err != nil {
			return out, fmt.Errorf("store external booking id for reservation %d: %w", r.ID, err)
		}
		out.ID = id
	}
	s.log.Info("reservation pushed",
		zap.Uint("reservation_id", r.ID),
		zap.String("external_booking_id", out.ID))
	return out, nil
}

// PushAvailability computes availability for [from, to] and sends it.
func (s *ChannelSyncService) PushAvailability(ctx context.Context, ref InventoryRef, from, to time.Time) (channel.OutboundAvailability, error) {
	if err := s.availability.CheckWindow(from, to); err != nil {
		return channel.OutboundAvailability{}, err
	}
	inv, err := s.availability.Resolve(ctx, ref)
	if err != nil {
		return channel.OutboundAvailability{}, err
	}
	if inv.ChannelRef == "" {
		return channel.OutboundAvailability{}, fmt.Errorf("%w: %s has no channel reference", ErrValidation, inv.Name)
	}
	days, err := s.availability.ForInventory(ctx, inv, from, to)
	if err != nil {
		return channel.OutboundAvailability{}, err
	}

	out := channel.ToOutboundAvailability(inv.ChannelRef, days)
	err = s.client.PushAvailability(ctx, out)
	s.metrics.ChannelPush("availability", err)
	if err != nil {
		return out, fmt.Errorf("push availability for %s: %w", inv.ChannelRef, err)
	}
	s.log.Info("availability pushed", zap.String("room_ref", inv.ChannelRef), zap.Int("days", len(days)))
	return out, nil
}
