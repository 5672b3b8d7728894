package channel

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Field names a logical booking or guest attribute.
type Field string

const (
	FieldExternalID      Field = "externalId"
	FieldMasterID        Field = "masterId"
	FieldRoomRef         Field = "roomRef"
	FieldArrival         Field = "arrival"
	FieldDeparture       Field = "departure"
	FieldStatus          Field = "status"
	FieldPrice           Field = "price"
	FieldCurrency        Field = "currency"
	FieldSource          Field = "source"
	FieldReference       Field = "reference"
	FieldSpecialRequests Field = "specialRequests"
	FieldUnitIndex       Field = "unitIndex"
	FieldUnits           Field = "units"

	FieldGuestList   Field = "guestList"
	FieldGuestObject Field = "guestObject"

	FieldFirstName Field = "firstName"
	FieldLastName  Field = "lastName"
	FieldFullName  Field = "fullName"
	FieldEmail     Field = "email"
	FieldPhone     Field = "phone"
	FieldGuestID   Field = "guestId"
)

// Aliases maps a logical field to the payload keys tried in order. Dotted
// keys walk nested objects.
type Aliases map[Field][]string

// DefaultBookingAliases covers the push and pull shapes seen across channel
// API versions.
func DefaultBookingAliases() Aliases {
	return Aliases{
		FieldExternalID:      {"id", "bookingId", "booking_id", "bookId", "externalId"},
		FieldMasterID:        {"masterId", "master_id", "groupId", "group_id"},
		FieldRoomRef:         {"roomId", "room_id", "propertyRoomId", "roomTypeId", "room.id", "room"},
		FieldArrival:         {"arrival", "arrivalDate", "checkIn", "check_in", "startDate", "firstNight", "dates.arrival", "dates.checkIn", "dates.start"},
		FieldDeparture:       {"departure", "departureDate", "checkOut", "check_out", "endDate", "dates.departure", "dates.checkOut", "dates.end"},
		FieldStatus:          {"status", "bookingStatus", "state"},
		FieldPrice:           {"price", "totalPrice", "total", "amount", "price.amount"},
		FieldCurrency:        {"currency", "currencyCode", "price.currency"},
		FieldSource:          {"source", "channel", "referer", "apiSource"},
		FieldReference:       {"apiReference", "reference", "externalReference", "ref"},
		FieldSpecialRequests: {"specialRequests", "notes", "comments", "guestComments"},
		FieldUnitIndex:       {"unitId", "unit_id", "unitIndex", "unit"},
		FieldUnits:           {"numUnits", "units", "quantity", "numRooms"},
		FieldGuestList:       {"guests", "guestList", "guest_list"},
		FieldGuestObject:     {"guest", "primaryGuest", "mainGuest", "customer"},
	}
}

// DefaultGuestAliases applies to guest sub-objects.
func DefaultGuestAliases() Aliases {
	return Aliases{
		FieldFirstName: {"firstName", "first_name", "firstname", "givenName"},
		FieldLastName:  {"lastName", "last_name", "lastname", "surname", "familyName"},
		FieldFullName:  {"name", "fullName", "full_name"},
		FieldEmail:     {"email", "emailAddress", "email_address"},
		FieldPhone:     {"phone", "mobile", "phoneNumber", "telephone"},
		FieldGuestID:   {"id", "guestId", "guest_id"},
	}
}

// DefaultInlineGuestAliases applies to guest fields written directly on the
// booking payload. The booking's own id is never read as a guest id here.
func DefaultInlineGuestAliases() Aliases {
	return Aliases{
		FieldFirstName: {"guestFirstName", "firstName", "first_name"},
		FieldLastName:  {"guestLastName", "guestName", "lastName", "last_name"},
		FieldFullName:  {"guestFullName", "fullName"},
		FieldEmail:     {"guestEmail", "email"},
		FieldPhone:     {"guestPhone", "guestMobile", "phone", "mobile"},
		FieldGuestID:   {"guestId", "guest_id"},
	}
}

// Extend appends aliases for a field after the existing ones.
func (a Aliases) Extend(field Field, keys ...string) Aliases {
	a[field] = append(a[field], keys...)
	return a
}

type Normalizer struct {
	booking Aliases
	guest   Aliases
	inline  Aliases
}

type NormalizerOption func(*Normalizer)

// WithBookingAlias adds keys tried after the defaults for a booking field.
func WithBookingAlias(field Field, keys ...string) NormalizerOption {
	return func(n *Normalizer) { n.booking.Extend(field, keys...) }
}

// WithGuestAlias adds keys for guest sub-objects.
func WithGuestAlias(field Field, keys ...string) NormalizerOption {
	return func(n *Normalizer) { n.guest.Extend(field, keys...) }
}

// WithInlineGuestAlias adds keys for guest fields inlined on the booking.
func WithInlineGuestAlias(field Field, keys ...string) NormalizerOption {
	return func(n *Normalizer) { n.inline.Extend(field, keys...) }
}

func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		booking: DefaultBookingAliases(),
		guest:   DefaultGuestAliases(),
		inline:  DefaultInlineGuestAliases(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts a raw channel payload into a CanonicalBooking. It
// returns nil only when raw is not an object. Missing dates are left nil for
// the caller to judge.
func (n *Normalizer) Normalize(raw any) *CanonicalBooking {
	m, ok := asObject(raw)
	if !ok {
		return nil
	}

	b := &CanonicalBooking{
		ExternalID:      n.str(m, n.booking, FieldExternalID),
		MasterID:        n.str(m, n.booking, FieldMasterID),
		RoomRef:         n.str(m, n.booking, FieldRoomRef),
		RawStatus:       n.str(m, n.booking, FieldStatus),
		Currency:        strings.ToUpper(n.str(m, n.booking, FieldCurrency)),
		Source:          n.str(m, n.booking, FieldSource),
		Reference:       n.str(m, n.booking, FieldReference),
		SpecialRequests: n.str(m, n.booking, FieldSpecialRequests),
	}
	b.Status = ParseStatus(b.RawStatus)

	if v := n.str(m, n.booking, FieldArrival); v != "" {
		if d, ok := ParseDate(v); ok {
			b.Arrival = &d
		}
	}
	if v := n.str(m, n.booking, FieldDeparture); v != "" {
		if d, ok := ParseDate(v); ok {
			b.Departure = &d
		}
	}
	if v := n.str(m, n.booking, FieldPrice); v != "" {
		if p, err := decimal.NewFromString(v); err == nil {
			b.Price = p
		}
	}
	if v := n.str(m, n.booking, FieldUnitIndex); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			b.UnitIndex = &i
		}
	}
	if v := n.str(m, n.booking, FieldUnits); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			b.Units = &i
		}
	}

	b.Guest = n.extractGuest(m)
	return b
}

// extractGuest tries the guest list, then a guest object, then inline fields.
func (n *Normalizer) extractGuest(m map[string]any) *GuestIdentity {
	if list := firstList(m, n.booking[FieldGuestList]); len(list) > 0 {
		if gm, ok := asObject(list[0]); ok {
			if g := n.guestFrom(gm, n.guest); g != nil {
				return g
			}
		}
	}
	if gm := firstObject(m, n.booking[FieldGuestObject]); gm != nil {
		if g := n.guestFrom(gm, n.guest); g != nil {
			return g
		}
	}
	return n.guestFrom(m, n.inline)
}

func (n *Normalizer) guestFrom(m map[string]any, aliases Aliases) *GuestIdentity {
	g := GuestIdentity{
		FirstName:  n.str(m, aliases, FieldFirstName),
		LastName:   n.str(m, aliases, FieldLastName),
		Email:      n.str(m, aliases, FieldEmail),
		Phone:      n.str(m, aliases, FieldPhone),
		ExternalID: n.str(m, aliases, FieldGuestID),
	}
	if g.FirstName == "" && g.LastName == "" {
		g.FirstName, g.LastName = SplitName(n.str(m, aliases, FieldFullName))
	}
	if !g.HasIdentity() {
		return nil
	}
	return &g
}

func (n *Normalizer) str(m map[string]any, aliases Aliases, f Field) string {
	return firstString(m, aliases[f])
}

// firstString returns the first alias holding a present, non-null, non-blank
// scalar.
func firstString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := walk(m, k); ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstList(m map[string]any, keys []string) []any {
	for _, k := range keys {
		if v, ok := walk(m, k); ok {
			if list, isList := v.([]any); isList && len(list) > 0 {
				return list
			}
		}
	}
	return nil
}

func firstObject(m map[string]any, keys []string) map[string]any {
	for _, k := range keys {
		if v, ok := walk(m, k); ok {
			if obj, isObj := asObject(v); isObj {
				return obj
			}
		}
	}
	return nil
}

func walk(m map[string]any, path string) (any, bool) {
	if v, ok := m[path]; ok {
		return v, true
	}
	if !strings.Contains(path, ".") {
		return nil, false
	}
	var cur any = m
	for _, part := range strings.Split(path, ".") {
		obj, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, t != nil
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any, []any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}
