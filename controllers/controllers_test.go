package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"hotel-sync/channel"
	"hotel-sync/config"
	"hotel-sync/controllers"
	"hotel-sync/models"
	"hotel-sync/routes"
	"hotel-sync/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const secret = "controller-secret"

type stubClient struct{ err error }

func (s stubClient) UpsertBooking(context.Context, channel.OutboundBooking) (string, error) {
	return "CH-1", s.err
}

func (s stubClient) PushAvailability(context.Context, channel.OutboundAvailability) error {
	return s.err
}

type harness struct {
	db       *gorm.DB
	router   *gin.Engine
	webhooks *services.WebhookService
}

func newHarness(t *testing.T, client channel.Client) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")+"?_pragma=busy_timeout(5000)"),
		&gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db))

	reg := prometheus.NewRegistry()
	translator := channel.NewTranslator(channel.TranslatorConfig{})
	guests := services.NewGuestService(db, nil)
	rooms := services.NewRoomService(db)
	roomTypes := services.NewRoomTypeService(db)
	avail := services.NewAvailabilityService(db, 60)
	reservations := services.NewReservationService(db, nil, guests, rooms, translator)
	webhooks := services.NewWebhookService(db, nil, reservations, nil, nil, nil,
		services.WebhookOptions{Channel: "beds24", Secret: secret})
	syncSvc := services.NewChannelSyncService(db, nil, client, translator, avail, nil)

	router := routes.SetupRouter(routes.Controllers{
		Webhook:      controllers.NewWebhookController(webhooks, ""),
		Events:       controllers.NewWebhookEventController(webhooks),
		Availability: controllers.NewAvailabilityController(avail),
		ChannelSync:  controllers.NewChannelSyncController(syncSvc),
		Rooms:        controllers.NewRoomController(rooms, roomTypes),
	}, routes.Options{Gatherer: reg})

	return &harness{db: db, router: router, webhooks: webhooks}
}

func (h *harness) do(t *testing.T, method, path string, body []byte, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" && bytes.HasPrefix(bytes.TrimSpace(w.Body.Bytes()), []byte("{")) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (h *harness) webhook(t *testing.T, body string, signature string) (*httptest.ResponseRecorder, map[string]any) {
	return h.do(t, http.MethodPost, "/api/webhooks/channel", []byte(body), map[string]string{"X-Webhook-Signature": signature})
}

func seedRoom(t *testing.T, db *gorm.DB) models.Room {
	room := models.Room{RoomNumber: "7", ExternalRef: "R7", Status: models.RoomStatusAvailable}
	require.NoError(t, db.Create(&room).Error)
	return room
}

const created = `{"event":"booking.created","eventId":"evt-1","booking":{"id":501,"roomId":"R7","arrival":"2025-06-01","departure":"2025-06-04","guests":[{"firstName":"A","lastName":"B","email":"a@b.com"}]}}`

func TestWebhookEndpoint(t *testing.T) {
	h := newHarness(t, stubClient{})
	seedRoom(t, h.db)

	w, out := h.webhook(t, created, "sha256="+channel.Sign(secret, []byte(created)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, out["success"])
	assert.Contains(t, out["message"], "evt-1")
	assert.Equal(t, false, out["duplicate"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	h.webhooks.Wait()

	w, out = h.webhook(t, created, channel.Sign(secret, []byte(created)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, true, out["duplicate"])
	h.webhooks.Wait()

	var n int64
	require.NoError(t, h.db.Model(&models.Reservation{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestWebhookEndpoint_StatusCodes(t *testing.T) {
	h := newHarness(t, stubClient{})

	w, out := h.webhook(t, created, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, out["success"])

	w, _ = h.webhook(t, created, channel.Sign("wrong", []byte(created)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	bad := `{"event":"booking.paid","booking":{"id":1}}`
	w, out = h.webhook(t, bad, channel.Sign(secret, []byte(bad)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, out["success"])
	assert.NotEmpty(t, out["message"])

	noID := `{"event":"cancelled","eventId":"x1","booking":{"status":"cancelled"}}`
	w, out = h.webhook(t, noID, channel.Sign(secret, []byte(noID)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, out["message"], "external booking id")

	var n int64
	require.NoError(t, h.db.Model(&models.WebhookEvent{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
}

func TestWebhookEndpoint_HandlerFailureStill200(t *testing.T) {
	h := newHarness(t, stubClient{})
	body := `{"event":"cancelled","eventId":"c-1","booking":{"id":"missing"}}`
	w, out := h.webhook(t, body, channel.Sign(secret, []byte(body)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["success"])
	h.webhooks.Wait()

	w, out = h.do(t, http.MethodGet, "/api/webhook-events?status=failed", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := out["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "c-1", data[0].(map[string]any)["eventId"])

	w, _ = h.do(t, http.MethodGet, "/api/webhook-events/c-1", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = h.do(t, http.MethodPost, "/api/webhook-events/c-1/retry", nil, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	h.webhooks.Wait()

	w, _ = h.do(t, http.MethodPost, "/api/webhook-events/nope/retry", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, out = h.do(t, http.MethodPost, "/api/webhook-events/recover", nil, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 0.0, out["data"].(map[string]any)["scheduled"])

	w, _ = h.do(t, http.MethodGet, "/api/webhook-events?status=bogus", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityEndpoint(t *testing.T) {
	h := newHarness(t, stubClient{})
	room := seedRoom(t, h.db)
	require.NoError(t, h.db.Create(&models.Reservation{
		RoomID: &room.ID, GuestID: 1, Status: models.StatusConfirmed,
		CheckIn: mustDate("2025-06-02"), CheckOut: mustDate("2025-06-03"),
	}).Error)

	w, out := h.do(t, http.MethodGet, "/api/availability/1?from=2025-06-01&to=2025-06-03", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	days := out["data"].([]any)
	require.Len(t, days, 3)
	assert.Equal(t, map[string]any{"date": "2025-06-02", "remaining": 0.0}, days[1])
	assert.Equal(t, 1.0, days[2].(map[string]any)["remaining"])

	cases := map[string]int{
		"/api/availability/1?from=2025-06-05&to=2025-06-01":                 http.StatusBadRequest,
		"/api/availability/1?from=junk&to=2025-06-01":                       http.StatusBadRequest,
		"/api/availability/1?to=2025-06-01":                                 http.StatusBadRequest,
		"/api/availability/1?from=2025-01-01&to=2025-12-31":                 http.StatusBadRequest,
		"/api/availability/abc?from=2025-06-01&to=2025-06-02":               http.StatusBadRequest,
		"/api/availability/1?from=2025-06-01&to=2025-06-02&type=building":   http.StatusBadRequest,
		"/api/availability/99?from=2025-06-01&to=2025-06-02":                http.StatusNotFound,
		"/api/availability/99?from=2025-06-01&to=2025-06-02&type=room-type": http.StatusNotFound,
	}
	for path, code := range cases {
		w, _ := h.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, code, w.Code, path)
	}
}

func TestChannelPushEndpoints(t *testing.T) {
	h := newHarness(t, stubClient{})
	room := seedRoom(t, h.db)
	r := models.Reservation{RoomID: &room.ID, GuestID: 1, Status: models.StatusConfirmed,
		CheckIn: mustDate("2025-06-02"), CheckOut: mustDate("2025-06-03")}
	require.NoError(t, h.db.Create(&r).Error)

	w, out := h.do(t, http.MethodPost, "/api/channel/reservations/1/push", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "CH-1", out["data"].(map[string]any)["id"])

	w, _ = h.do(t, http.MethodPost, "/api/channel/reservations/2/push", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, out = h.do(t, http.MethodPost, "/api/channel/availability/1/push?from=2025-06-01&to=2025-06-02", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "R7", out["data"].(map[string]any)["roomId"])
}

func TestChannelPushEndpoints_UpstreamFailure(t *testing.T) {
	h := newHarness(t, stubClient{err: errors.New("503 from channel")})
	room := seedRoom(t, h.db)
	require.NoError(t, h.db.Create(&models.Reservation{RoomID: &room.ID, GuestID: 1, Status: models.StatusConfirmed,
		CheckIn: mustDate("2025-06-02"), CheckOut: mustDate("2025-06-03")}).Error)

	w, _ := h.do(t, http.MethodPost, "/api/channel/reservations/1/push", nil, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRoomEndpoints(t *testing.T) {
	h := newHarness(t, stubClient{})
	seedRoom(t, h.db)
	require.NoError(t, h.db.Create(&models.RoomType{TypeName: "Dorm", Quantity: 4, ExternalRef: "DORM"}).Error)

	w, out := h.do(t, http.MethodGet, "/api/rooms", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["data"], 1)

	w, _ = h.do(t, http.MethodGet, "/api/rooms/1", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = h.do(t, http.MethodGet, "/api/rooms/5", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, out = h.do(t, http.MethodGet, "/api/room-types", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["data"], 1)
	w, _ = h.do(t, http.MethodGet, "/api/room-types/1", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, stubClient{})
	w, out := h.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", out["status"])

	w, _ = h.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func mustDate(s string) time.Time {
	d, ok := channel.ParseDate(s)
	if !ok {
		panic(s)
	}
	return d
}
