package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"hotel-sync/channel"
	"hotel-sync/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GuestService resolves channel guest identities to guest records.
type GuestService struct {
	DB  *gorm.DB
	log *zap.Logger
}

func NewGuestService(db *gorm.DB, log *zap.Logger) *GuestService {
	if log == nil {
		log = zap.NewNop()
	}
	return &GuestService{DB: db, log: log.Named("guests")}
}

// NormalizePhone removes whitespace, hyphens and parentheses.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '(' || r == ')' {
			return -1
		}
		return r
	}, phone)
}

// Resolve returns the guest id for g, matching by email first and then by
// normalized phone. Matches are merged, never overwritten. A nil or empty
// identity resolves to the unknown-guest placeholder. tx may be a
// transaction; nil uses the service's handle.
func (s *GuestService) Resolve(ctx context.Context, tx *gorm.DB, g *channel.GuestIdentity) (uint, error) {
	db := s.handle(ctx, tx)

	if g == nil || !g.HasIdentity() {
		return s.unknownGuest(db)
	}

	email := strings.TrimSpace(g.Email)
	phone := strings.TrimSpace(g.Phone)
	phoneKey := NormalizePhone(phone)
	name := g.FullName()

	if email != "" {
		var found models.Guest
		err := db.Where("LOWER(email) = ?", strings.ToLower(email)).Order("id").First(&found).Error
		if err == nil {
			return found.ID, s.merge(db, found, g)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("find guest by email: %w", err)
		}
	}

	if phoneKey != "" {
		var found models.Guest
		err := db.Where("phone_key = ?", phoneKey).Order("id").First(&found).Error
		if err == nil {
			return found.ID, s.merge(db, found, g)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("find guest by phone: %w", err)
		}
	}

	if email == "" && phone == "" && isPlaceholderName(name) {
		return s.unknownGuest(db)
	}

	guest := models.Guest{
		FirstName: strings.TrimSpace(g.FirstName),
		LastName:  strings.TrimSpace(g.LastName),
	}
	if email != "" {
		guest.Email = &email
	}
	if phone != "" {
		guest.Phone = &phone
		guest.PhoneKey = &phoneKey
	}
	if ext := strings.TrimSpace(g.ExternalID); ext != "" {
		guest.ExternalGuestID = &ext
	}
	if err := db.Create(&guest).Error; err != nil {
		return 0, fmt.Errorf("create guest: %w", err)
	}
	s.log.Debug("guest created", zap.Uint("guest_id", guest.ID))
	return guest.ID, nil
}

func (s *GuestService) GetByID(ctx context.Context, id uint) (models.Guest, error) {
	var g models.Guest
	err := s.DB.WithContext(ctx).First(&g, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return g, fmt.Errorf("%w: guest %d", ErrNotFound, id)
	}
	return g, err
}

func (s *GuestService) handle(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = s.DB
	}
	return tx.WithContext(ctx)
}

// merge fills absent fields on an existing guest. The name is replaced only
// by a strictly longer one.
func (s *GuestService) merge(db *gorm.DB, existing models.Guest, g *channel.GuestIdentity) error {
	updates := map[string]interface{}{}

	if name := g.FullName(); utf8.RuneCountInString(name) > utf8.RuneCountInString(existing.FullName()) {
		updates["first_name"] = strings.TrimSpace(g.FirstName)
		updates["last_name"] = strings.TrimSpace(g.LastName)
	}
	if email := strings.TrimSpace(g.Email); email != "" && isBlank(existing.Email) {
		updates["email"] = email
	}
	if phone := strings.TrimSpace(g.Phone); phone != "" && isBlank(existing.Phone) {
		updates["phone"] = phone
		updates["phone_key"] = NormalizePhone(phone)
	}
	if ext := strings.TrimSpace(g.ExternalID); ext != "" && isBlank(existing.ExternalGuestID) {
		updates["external_guest_id"] = ext
	}
	if len(updates) == 0 {
		return nil
	}
	if err := db.Model(&models.Guest{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("merge guest %d: %w", existing.ID, err)
	}
	return nil
}

// unknownGuest returns the placeholder guest, creating it at most once.
func (s *GuestService) unknownGuest(db *gorm.DB) (uint, error) {
	var found models.Guest
	err := db.Where("sentinel_key = ?", models.UnknownGuestKey).First(&found).Error
	if err == nil {
		return found.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("find unknown guest: %w", err)
	}

	key := models.UnknownGuestKey
	placeholder := models.Guest{
		FirstName:   models.UnknownGuestFirstName,
		LastName:    models.UnknownGuestLastName,
		SentinelKey: &key,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sentinel_key"}},
		DoNothing: true,
	}).Create(&placeholder).Error; err != nil {
		return 0, fmt.Errorf("create unknown guest: %w", err)
	}

	// A concurrent writer may have won the insert; read back the survivor.
	if err := forUpdate(db).Where("sentinel_key = ?", models.UnknownGuestKey).First(&found).Error; err != nil {
		return 0, fmt.Errorf("reload unknown guest: %w", err)
	}
	return found.ID, nil
}

func isPlaceholderName(name string) bool {
	n := strings.ToLower(strings.Join(strings.Fields(name), " "))
	return n == "" || n == "guest" || n == "unknown guest" || n == "unknown"
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
