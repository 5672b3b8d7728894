package channel

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"hotel-sync/models"
)

const (
	ExternalSourceDirect  = "direct"
	ExternalSourceChannel = "channel"
)

var toInternalStatus = map[Status]string{
	StatusConfirmed:  models.StatusConfirmed,
	StatusCheckedIn:  models.StatusCheckedIn,
	StatusCheckedOut: models.StatusCheckedOut,
	StatusCancelled:  models.StatusCancelled,
}

var toExternalStatus = map[string]Status{
	models.StatusConfirmed:  StatusConfirmed,
	models.StatusCheckedIn:  StatusCheckedIn,
	models.StatusCheckedOut: StatusCheckedOut,
	models.StatusCancelled:  StatusCancelled,
}

func InternalStatus(s Status) string {
	if v, ok := toInternalStatus[s]; ok {
		return v
	}
	return models.StatusConfirmed
}

func ExternalStatus(internal string) Status {
	if v, ok := toExternalStatus[internal]; ok {
		return v
	}
	return StatusConfirmed
}

func ExternalSource(internal string) string {
	if strings.EqualFold(strings.TrimSpace(internal), models.SourceDirect) {
		return ExternalSourceDirect
	}
	return ExternalSourceChannel
}

// InternalUnitIndex converts a 1-based channel unit to a zero-based index.
func InternalUnitIndex(external int) (int, bool) {
	if external < 1 {
		return 0, false
	}
	return external - 1, true
}

func ExternalUnitIndex(internal int) int {
	return internal + 1
}

// UnitKey identifies one unit of pooled inventory as {roomTypeId}-unit-{index}.
func UnitKey(roomTypeID uint, zeroBased int) string {
	return fmt.Sprintf("%d-unit-%d", roomTypeID, zeroBased)
}

func ParseUnitKey(key string) (uint, int, error) {
	typePart, idxPart, ok := strings.Cut(key, "-unit-")
	if !ok {
		return 0, 0, fmt.Errorf("malformed unit key %q", key)
	}
	typeID, err := strconv.ParseUint(typePart, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed unit key %q: %w", key, err)
	}
	idx, err := strconv.Atoi(idxPart)
	if err != nil || idx < 0 {
		return 0, 0, fmt.Errorf("malformed unit key %q", key)
	}
	return uint(typeID), idx, nil
}

type TranslatorConfig struct {
	// SourceName is the internal source recorded for every non-direct booking.
	SourceName      string
	DefaultCurrency string
	DefaultUnits    int
}

// Target is the resolved inventory a booking applies to. Exactly one of the
// two ids is set.
type Target struct {
	RoomID     *uint
	RoomTypeID *uint
}

func (t Target) IsRoomType() bool { return t.RoomTypeID != nil && t.RoomID == nil }

// Translator maps between canonical bookings and reservations. It performs no
// I/O.
type Translator struct {
	cfg TranslatorConfig
}

func NewTranslator(cfg TranslatorConfig) Translator {
	if strings.TrimSpace(cfg.SourceName) == "" {
		cfg.SourceName = "Beds24"
	}
	if strings.TrimSpace(cfg.DefaultCurrency) == "" {
		cfg.DefaultCurrency = "THB"
	}
	if cfg.DefaultUnits < 1 {
		cfg.DefaultUnits = 1
	}
	return Translator{cfg: cfg}
}

func (t Translator) Config() TranslatorConfig { return t.cfg }

func (t Translator) InternalSource(external string) string {
	if strings.EqualFold(strings.TrimSpace(external), ExternalSourceDirect) {
		return models.SourceDirect
	}
	return t.cfg.SourceName
}

// ToReservation builds the reservation a canonical booking describes. The
// external booking id is always carried so the caller can upsert on it.
func (t Translator) ToReservation(b CanonicalBooking, target Target, guestID uint) (models.Reservation, error) {
	if err := b.ValidateStay(); err != nil {
		return models.Reservation{}, err
	}
	if strings.TrimSpace(b.ExternalID) == "" {
		return models.Reservation{}, fmt.Errorf("%w: external booking id is required", ErrInvalidBooking)
	}
	if (target.RoomID == nil) == (target.RoomTypeID == nil) {
		return models.Reservation{}, fmt.Errorf("%w: booking must target exactly one room or room type", ErrInvalidBooking)
	}

	currency := strings.ToUpper(strings.TrimSpace(b.Currency))
	if currency == "" {
		currency = t.cfg.DefaultCurrency
	}
	units := t.cfg.DefaultUnits
	if b.Units != nil && *b.Units > 0 {
		units = *b.Units
	}
	externalID := strings.TrimSpace(b.ExternalID)

	r := models.Reservation{
		RoomID:            target.RoomID,
		RoomTypeID:        target.RoomTypeID,
		GuestID:           guestID,
		CheckIn:           *b.Arrival,
		CheckOut:          *b.Departure,
		Status:            InternalStatus(b.Status),
		TotalAmount:       b.Price.Round(2),
		Currency:          currency,
		Source:            t.InternalSource(b.Source),
		ExternalBookingID: &externalID,
		ExternalReference: b.Reference,
		UnitsRequested:    units,
		SpecialRequests:   b.SpecialRequests,
	}
	if b.MasterID != "" {
		master := b.MasterID
		r.ExternalMasterID = &master
	}
	if target.IsRoomType() && b.UnitIndex != nil {
		if idx, ok := InternalUnitIndex(*b.UnitIndex); ok {
			r.AssignedUnit = &idx
		}
	}
	if raw, err := json.Marshal(b); err == nil {
		r.ChannelData = raw
	}
	return r, nil
}

// UpdateColumns lists the columns an inbound modification overwrites on an
// existing reservation.
func UpdateColumns(r models.Reservation) map[string]interface{} {
	return map[string]interface{}{
		"room_id":            r.RoomID,
		"room_type_id":       r.RoomTypeID,
		"assigned_unit":      r.AssignedUnit,
		"guest_id":           r.GuestID,
		"check_in":           r.CheckIn,
		"check_out":          r.CheckOut,
		"status":             r.Status,
		"total_amount":       r.TotalAmount,
		"currency":           r.Currency,
		"source":             r.Source,
		"external_master_id": r.ExternalMasterID,
		"external_reference": r.ExternalReference,
		"units_requested":    r.UnitsRequested,
		"special_requests":   r.SpecialRequests,
		"channel_data":       r.ChannelData,
	}
}

// OutboundBooking is the payload sent to the channel API. An empty ID asks
// the channel to create the booking.
type OutboundBooking struct {
	ID        string `json:"id,omitempty"`
	RoomID    string `json:"roomId"`
	UnitID    *int   `json:"unitId,omitempty"`
	Arrival   string `json:"arrival"`
	Departure string `json:"departure"`
	Status    Status `json:"status"`
	Price     string `json:"price"`
	Currency  string `json:"currency"`
	Source    string `json:"source"`
	Reference string `json:"apiReference,omitempty"`
	NumUnits  int    `json:"numUnits,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func (o OutboundBooking) IsUpdate() bool { return o.ID != "" }

// ToOutbound builds the channel payload for a reservation. roomRef is the
// channel's identifier for the reservation's room or room type.
func (t Translator) ToOutbound(r models.Reservation, roomRef string, guest *models.Guest) OutboundBooking {
	currency := r.Currency
	if currency == "" {
		currency = t.cfg.DefaultCurrency
	}
	out := OutboundBooking{
		RoomID:    roomRef,
		Arrival:   r.CheckIn.Format(DateLayout),
		Departure: r.CheckOut.Format(DateLayout),
		Status:    ExternalStatus(r.Status),
		Price:     r.TotalAmount.StringFixed(2),
		Currency:  currency,
		Source:    ExternalSource(r.Source),
		Reference: r.ExternalReference,
		NumUnits:  r.Units(),
		Notes:     r.SpecialRequests,
	}
	if r.ExternalBookingID != nil {
		out.ID = *r.ExternalBookingID
	}
	if r.RoomTypeID != nil && r.RoomID == nil && r.AssignedUnit != nil {
		unit := ExternalUnitIndex(*r.AssignedUnit)
		out.UnitID = &unit
	}
	if guest != nil && !guest.IsPlaceholder() {
		out.FirstName = guest.FirstName
		out.LastName = guest.LastName
		if guest.Email != nil {
			out.Email = *guest.Email
		}
		if guest.Phone != nil {
			out.Phone = *guest.Phone
		}
	}
	return out
}

type OutboundDay struct {
	Date      string `json:"date"`
	Available int    `json:"available"`
}

type OutboundAvailability struct {
	RoomID string        `json:"roomId"`
	Days   []OutboundDay `json:"days"`
}

func ToOutboundAvailability(roomRef string, days []models.AvailabilityDay) OutboundAvailability {
	out := OutboundAvailability{RoomID: roomRef, Days: make([]OutboundDay, 0, len(days))}
	for _, d := range days {
		out.Days = append(out.Days, OutboundDay{Date: d.Date.Format(DateLayout), Available: d.Remaining})
	}
	return out
}
