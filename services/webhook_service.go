package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"hotel-sync/channel"
	"hotel-sync/metrics"
	"hotel-sync/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookOptions struct {
	// Channel names the sending channel and prefixes synthesized event ids.
	Channel string
	Secret  string
	// PendingGrace is how long an event may stay pending before recovery
	// picks it up again.
	PendingGrace time.Duration
}

// Receipt is what the sender is told about an accepted event.
type Receipt struct {
	EventID   string
	Duplicate bool
	Message   string
}

// WebhookService records channel events and applies them in the background.
// Events touching the same external booking are applied one at a time.
type WebhookService struct {
	DB           *gorm.DB
	log          *zap.Logger
	reservations *ReservationService
	normalizer   *channel.Normalizer
	locker       KeyLocker
	metrics      *metrics.Metrics
	opts         WebhookOptions

	now func() time.Time
	wg  sync.WaitGroup
}

func NewWebhookService(
	db *gorm.DB,
	log *zap.Logger,
	reservations *ReservationService,
	normalizer *channel.Normalizer,
	locker KeyLocker,
	m *metrics.Metrics,
	opts WebhookOptions,
) *WebhookService {
	if log == nil {
		log = zap.NewNop()
	}
	if locker == nil {
		locker = NewMemoryLocker()
	}
	if normalizer == nil {
		normalizer = channel.NewNormalizer()
	}
	if opts.Channel == "" {
		opts.Channel = "channel"
	}
	if opts.PendingGrace <= 0 {
		opts.PendingGrace = 15 * time.Minute
	}
	return &WebhookService{
		DB:           db,
		log:          log.Named("webhooks"),
		reservations: reservations,
		normalizer:   normalizer,
		locker:       locker,
		metrics:      m,
		opts:         opts,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Receive authenticates, validates and records one webhook body, then
// schedules processing. Nothing is written when authentication or
// validation fails.
func (s *WebhookService) Receive(ctx context.Context, body []byte, signature string) (Receipt, error) {
	if !channel.VerifySignature(s.opts.Secret, body, signature) {
		s.metrics.WebhookEvent("", metrics.OutcomeRejected)
		return Receipt{}, fmt.Errorf("%w: signature mismatch", ErrAuthentication)
	}

	env, err := channel.DecodeEnvelope(body)
	if err != nil {
		s.metrics.WebhookEvent("", metrics.OutcomeRejected)
		return Receipt{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	externalID := ""
	if b := s.normalizer.Normalize(env.Booking); b != nil {
		externalID = strings.TrimSpace(b.ExternalID)
	}
	if externalID == "" {
		s.metrics.WebhookEvent(string(env.Type), metrics.OutcomeRejected)
		return Receipt{}, fmt.Errorf("%w: external booking id is required", ErrValidation)
	}

	now := s.now()
	eventID := env.EventID
	if eventID == "" {
		eventID = channel.SynthesizeEventID(s.opts.Channel, externalID, now.UnixMilli())
	}

	rec := models.WebhookEvent{
		EventID:           eventID,
		Channel:           s.opts.Channel,
		EventType:         string(env.Type),
		ExternalBookingID: externalID,
		Payload:           body,
		Status:            models.WebhookPending,
		ReceivedAt:        now,
	}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&rec)
	if res.Error != nil {
		return Receipt{}, fmt.Errorf("record webhook event: %w", res.Error)
	}

	log := s.log.With(
		zap.String("event_id", eventID),
		zap.String("event", string(env.Type)),
		zap.String("external_booking_id", externalID))

	if res.RowsAffected == 0 {
		s.metrics.WebhookEvent(string(env.Type), metrics.OutcomeDuplicate)
		log.Info("duplicate webhook event")
		return Receipt{EventID: eventID, Duplicate: true, Message: "event already received"}, nil
	}

	s.metrics.WebhookEvent(string(env.Type), metrics.OutcomeAccepted)
	log.Info("webhook event accepted")
	s.dispatch(eventID)
	return Receipt{EventID: eventID, Message: "event accepted"}, nil
}

// dispatch processes an event on its own goroutine so the sender is never
// held up by business logic.
func (s *WebhookService) dispatch(eventID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("webhook processing panicked", zap.String("event_id", eventID), zap.Any("panic", r))
			}
		}()
		if err := s.Process(context.Background(), eventID); err != nil {
			s.log.Warn("webhook processing failed", zap.String("event_id", eventID), zap.Error(err))
		}
	}()
}

// Process applies a recorded event and moves it to succeeded or failed.
// Events that are already terminal are left alone.
func (s *WebhookService) Process(ctx context.Context, eventID string) error {
	rec, err := s.load(ctx, eventID)
	if err != nil {
		return err
	}
	if rec.IsTerminal() {
		return nil
	}

	env, err := channel.DecodeEnvelope(rec.Payload)
	if err != nil {
		return s.finish(ctx, rec, Outcome{}, fmt.Errorf("%w: %v", ErrValidation, err))
	}

	key := rec.ExternalBookingID
	if key == "" {
		key = rec.EventID
	}
	unlock, err := s.locker.Lock(ctx, "booking:"+key)
	if err != nil {
		return fmt.Errorf("lock booking %s: %w", key, err)
	}
	defer unlock()

	// A retry may have finished the event while this one waited.
	if rec, err = s.load(ctx, eventID); err != nil {
		return err
	}
	if rec.IsTerminal() {
		return nil
	}

	start := time.Now()
	out, herr := s.apply(ctx, env)
	s.metrics.ObserveProcessing(string(env.Type), time.Since(start))
	return s.finish(ctx, rec, out, herr)
}

func (s *WebhookService) apply(ctx context.Context, env channel.Envelope) (Outcome, error) {
	b := s.normalizer.Normalize(env.Booking)
	if b == nil {
		return Outcome{}, fmt.Errorf("%w: booking is not an object", ErrValidation)
	}
	switch env.Type {
	case channel.EventCreated:
		return s.reservations.ApplyCreated(ctx, *b)
	case channel.EventModified:
		return s.reservations.ApplyModified(ctx, *b)
	case channel.EventCancelled:
		return s.reservations.ApplyCancelled(ctx, b.ExternalID)
	case channel.EventDeleted:
		return s.reservations.ApplyDeleted(ctx, b.ExternalID)
	}
	return Outcome{}, fmt.Errorf("%w: %q", ErrUnsupportedEvent, env.Type)
}

// finish records the terminal state. Only a pending event transitions, so a
// concurrent worker cannot overwrite a result. The handler error is returned.
func (s *WebhookService) finish(ctx context.Context, rec models.WebhookEvent, out Outcome, herr error) error {
	now := s.now()
	updates := map[string]interface{}{
		"status":       models.WebhookSucceeded,
		"message":      out.Message,
		"error":        "",
		"processed_at": now,
		"attempts":     gorm.Expr("attempts + 1"),
	}
	outcome := metrics.OutcomeSucceeded
	if herr != nil {
		updates["status"] = models.WebhookFailed
		updates["error"] = herr.Error()
		outcome = metrics.OutcomeFailed
	}

	// Result is stored even if the caller's context is gone.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	err := s.DB.WithContext(storeCtx).Model(&models.WebhookEvent{}).
		Where("event_id = ? AND status = ?", rec.EventID, models.WebhookPending).
		Updates(updates).Error
	if err != nil {
		s.log.Error("store webhook result failed", zap.String("event_id", rec.EventID), zap.Error(err))
		return errors.Join(herr, err)
	}

	s.metrics.WebhookEvent(rec.EventType, outcome)
	fields := []zap.Field{
		zap.String("event_id", rec.EventID),
		zap.String("event", rec.EventType),
		zap.String("external_booking_id", rec.ExternalBookingID),
		zap.String("message", out.Message),
	}
	if herr != nil {
		s.log.Warn("webhook event failed", append(fields, zap.Error(herr))...)
	} else {
		s.log.Info("webhook event processed", fields...)
	}
	return herr
}

func (s *WebhookService) load(ctx context.Context, eventID string) (models.WebhookEvent, error) {
	var rec models.WebhookEvent
	err := s.DB.WithContext(ctx).Where("event_id = ?", eventID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, fmt.Errorf("%w: webhook event %s", ErrNotFound, eventID)
	}
	if err != nil {
		return rec, fmt.Errorf("load webhook event %s: %w", eventID, err)
	}
	return rec, nil
}

// Get returns one recorded event.
func (s *WebhookService) Get(ctx context.Context, eventID string) (models.WebhookEvent, error) {
	return s.load(ctx, eventID)
}

// Retry resets a failed or stuck event to pending and processes it again.
func (s *WebhookService) Retry(ctx context.Context, eventID string) (models.WebhookEvent, error) {
	rec, err := s.load(ctx, eventID)
	if err != nil {
		return rec, err
	}
	if rec.Status == models.WebhookSucceeded {
		return rec, fmt.Errorf("%w: event %s already succeeded", ErrValidation, eventID)
	}
	err = s.DB.WithContext(ctx).Model(&models.WebhookEvent{}).
		Where("event_id = ? AND status IN ?", eventID, []string{models.WebhookFailed, models.WebhookPending}).
		Updates(map[string]interface{}{"status": models.WebhookPending, "error": ""}).Error
	if err != nil {
		return rec, fmt.Errorf("reset webhook event %s: %w", eventID, err)
	}
	rec.Status = models.WebhookPending
	rec.Error = ""
	s.log.Info("webhook event retried", zap.String("event_id", eventID))
	s.dispatch(eventID)
	return rec, nil
}

// RecoverPending reschedules events left pending longer than the grace
// period, such as after a crash. It returns how many were scheduled.
func (s *WebhookService) RecoverPending(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.opts.PendingGrace)
	var ids []string
	err := s.DB.WithContext(ctx).Model(&models.WebhookEvent{}).
		Where("status = ? AND received_at < ?", models.WebhookPending, cutoff).
		Order("received_at").
		Pluck("event_id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("list pending webhook events: %w", err)
	}
	for _, id := range ids {
		s.dispatch(id)
	}
	if len(ids) > 0 {
		s.log.Info("recovering pending webhook events", zap.Int("count", len(ids)))
	}
	return len(ids), nil
}

// List returns recorded events, newest first. An empty status lists all.
func (s *WebhookService) List(ctx context.Context, status string, limit int) ([]models.WebhookEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := s.DB.WithContext(ctx).Order("received_at DESC, id DESC").Limit(limit)
	if status != "" {
		switch status {
		case models.WebhookPending, models.WebhookSucceeded, models.WebhookFailed:
		default:
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
		q = q.Where("status = ?", status)
	}
	var events []models.WebhookEvent
	if err := q.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list webhook events: %w", err)
	}
	return events, nil
}

// Wait blocks until every scheduled event has been processed.
func (s *WebhookService) Wait() {
	s.wg.Wait()
}

// Shutdown waits for in-flight processing or for ctx to end.
func (s *WebhookService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
