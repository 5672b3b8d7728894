package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hotel-sync/channel"
	"hotel-sync/config"
	"hotel-sync/controllers"
	"hotel-sync/logger"
	"hotel-sync/metrics"
	"hotel-sync/routes"
	"hotel-sync/services"
)

func main() {
	cfg, err := config.Load()
	log, lerr := logger.New(cfg.LogLevel)
	if lerr != nil {
		panic(lerr)
	}
	defer func() { _ = log.Sync() }()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	db, err := config.ConnectDatabase(cfg, log)
	if err != nil {
		log.Fatal("database connect failed", zap.Error(err))
	}
	log.Info("database connection established", zap.Bool("auto_migrate", cfg.AutoMigrate))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var locker services.KeyLocker = services.NewMemoryLocker()
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		rdb := redis.NewClient(opt)
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatal("redis ping failed", zap.Error(err))
		}
		cancel()
		locker = services.NewRedisLocker(rdb, cfg.LockTTL, log)
		log.Info("using redis booking locks")
	}

	translator := channel.NewTranslator(channel.TranslatorConfig{
		SourceName:      cfg.Channel.SourceName,
		DefaultCurrency: cfg.Channel.DefaultCurrency,
		DefaultUnits:    cfg.Channel.DefaultUnits,
	})

	// Initialize services
	guestService := services.NewGuestService(db, log)
	roomService := services.NewRoomService(db)
	roomTypeService := services.NewRoomTypeService(db)
	availabilityService := services.NewAvailabilityService(db, cfg.Availability.MaxDays)
	reservationService := services.NewReservationService(db, log, guestService, roomService, translator)
	webhookService := services.NewWebhookService(db, log, reservationService, channel.NewNormalizer(), locker, m,
		services.WebhookOptions{
			Channel:      cfg.Channel.Name,
			Secret:       cfg.Webhook.Secret,
			PendingGrace: cfg.Webhook.PendingGrace,
		})

	var client channel.Client = unconfiguredClient{}
	if cfg.Channel.APIURL != "" {
		client = channel.NewHTTPClient(cfg.Channel.APIURL, cfg.Channel.APIKey, cfg.Channel.APITimeout, nil)
	} else {
		log.Warn("CHANNEL_API_URL not set; outbound pushes will fail")
	}
	syncService := services.NewChannelSyncService(db, log, client, translator, availabilityService, m)

	if cfg.Webhook.RecoverOnStart {
		n, err := webhookService.RecoverPending(context.Background())
		if err != nil {
			log.Error("pending event recovery failed", zap.Error(err))
		} else {
			log.Info("pending event recovery scheduled", zap.Int("count", n))
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := routes.SetupRouter(routes.Controllers{
		Webhook:      controllers.NewWebhookController(webhookService, cfg.Webhook.SignatureHeader),
		Events:       controllers.NewWebhookEventController(webhookService),
		Availability: controllers.NewAvailabilityController(availabilityService),
		ChannelSync:  controllers.NewChannelSyncController(syncService),
		Rooms:        controllers.NewRoomController(roomService, roomTypeService),
	}, routes.Options{CORSOrigins: cfg.CORSOrigins, Log: log, Gatherer: reg})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := webhookService.Shutdown(ctx); err != nil {
		log.Warn("webhook processing still running at shutdown; pending events will be recovered", zap.Error(err))
	}
	log.Info("server stopped")
}

// unconfiguredClient fails every push with ErrClientNotConfigured.
type unconfiguredClient struct{}

func (unconfiguredClient) UpsertBooking(context.Context, channel.OutboundBooking) (string, error) {
	return "", channel.ErrClientNotConfigured
}

func (unconfiguredClient) PushAvailability(context.Context, channel.OutboundAvailability) error {
	return channel.ErrClientNotConfigured
}
