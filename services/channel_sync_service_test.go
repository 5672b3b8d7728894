package services

import (
	"context"
	"errors"
	"testing"

	"hotel-sync/channel"
	"hotel-sync/metrics"
	"hotel-sync/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	bookings     []channel.OutboundBooking
	availability []channel.OutboundAvailability
	returnID     string
	err          error
}

func (f *fakeClient) UpsertBooking(_ context.Context, b channel.OutboundBooking) (string, error) {
	f.bookings = append(f.bookings, b)
	if f.err != nil {
		return "", f.err
	}
	if b.ID != "" {
		return b.ID, nil
	}
	return f.returnID, nil
}

func (f *fakeClient) PushAvailability(_ context.Context, a channel.OutboundAvailability) error {
	f.availability = append(f.availability, a)
	return f.err
}

func newSync(t *testing.T, client channel.Client) (*ChannelSyncService, *metrics.Metrics, *AvailabilityService) {
	t.Helper()
	db := newTestDB(t)
	m := metrics.New(prometheus.NewRegistry())
	avail := NewAvailabilityService(db, 0)
	return NewChannelSyncService(db, nil, client, channel.NewTranslator(channel.TranslatorConfig{}), avail, m), m, avail
}

func TestPushReservation_CreateStoresExternalID(t *testing.T) {
	client := &fakeClient{returnID: "CH-77"}
	svc, m, _ := newSync(t, client)
	room := seedRoom(t, svc.DB, "101", "R101")

	guest := models.Guest{FirstName: "A", LastName: "B", Email: strRef("a@b.com")}
	require.NoError(t, svc.DB.Create(&guest).Error)
	r := models.Reservation{
		RoomID: uintRef(room.ID), GuestID: guest.ID,
		CheckIn: day("2025-06-01"), CheckOut: day("2025-06-03"),
		Status: models.StatusCheckedIn, Source: models.SourceDirect,
		TotalAmount: decimal.NewFromInt(2500), Currency: "THB",
	}
	require.NoError(t, svc.DB.Create(&r).Error)

	out, err := svc.PushReservation(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, "CH-77", out.ID)

	require.Len(t, client.bookings, 1)
	sent := client.bookings[0]
	assert.False(t, sent.IsUpdate())
	assert.Equal(t, "R101", sent.RoomID)
	assert.Equal(t, channel.StatusCheckedIn, sent.Status)
	assert.Equal(t, channel.ExternalSourceDirect, sent.Source)
	assert.Equal(t, "2500.00", sent.Price)
	assert.Equal(t, "a@b.com", sent.Email)

	var stored models.Reservation
	require.NoError(t, svc.DB.First(&stored, r.ID).Error)
	require.NotNil(t, stored.ExternalBookingID)
	assert.Equal(t, "CH-77", *stored.ExternalBookingID)

	// A second push is an update and keeps the id.
	out, err = svc.PushReservation(context.Background(), r.ID)
	require.NoError(t, err)
	assert.True(t, out.IsUpdate())
	assert.Equal(t, "CH-77", client.bookings[1].ID)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChannelPushCount("booking", metrics.OutcomeSucceeded)))
}

func TestPushReservation_Errors(t *testing.T) {
	client := &fakeClient{err: errors.New("channel down")}
	svc, m, _ := newSync(t, client)

	_, err := svc.PushReservation(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)

	rt := seedRoomType(t, svc.DB, "Dorm", "", 4)
	r := models.Reservation{RoomTypeID: uintRef(rt.ID), GuestID: 1, CheckIn: day("2025-06-01"), CheckOut: day("2025-06-02"), Status: models.StatusConfirmed}
	require.NoError(t, svc.DB.Create(&r).Error)
	_, err = svc.PushReservation(context.Background(), r.ID)
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.DB.Model(&rt).Update("external_ref", "DORM").Error)
	_, err = svc.PushReservation(context.Background(), r.ID)
	assert.ErrorContains(t, err, "channel down")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChannelPushCount("booking", metrics.OutcomeFailed)))

	var stored models.Reservation
	require.NoError(t, svc.DB.First(&stored, r.ID).Error)
	assert.Nil(t, stored.ExternalBookingID)
}

func TestPushAvailability(t *testing.T) {
	client := &fakeClient{}
	svc, _, _ := newSync(t, client)
	rt := seedRoomType(t, svc.DB, "Dorm", "DORM", 2)
	require.NoError(t, svc.DB.Create(&models.Reservation{
		RoomTypeID: uintRef(rt.ID), GuestID: 1, Status: models.StatusConfirmed,
		CheckIn: day("2025-06-02"), CheckOut: day("2025-06-03"),
	}).Error)

	out, err := svc.PushAvailability(context.Background(), InventoryRef{ID: rt.ID, PreferRoomType: true}, day("2025-06-01"), day("2025-06-03"))
	require.NoError(t, err)
	require.Len(t, client.availability, 1)
	assert.Equal(t, out, client.availability[0])
	assert.Equal(t, "DORM", out.RoomID)
	assert.Equal(t, []channel.OutboundDay{
		{Date: "2025-06-01", Available: 2},
		{Date: "2025-06-02", Available: 1},
		{Date: "2025-06-03", Available: 2},
	}, out.Days)

	_, err = svc.PushAvailability(context.Background(), InventoryRef{ID: rt.ID}, day("2025-06-03"), day("2025-06-01"))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, client.availability, 1)
}
