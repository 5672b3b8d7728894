package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hotel-sync/controllers"
	"hotel-sync/middleware"
)

// Controllers groups every HTTP handler the router mounts.
type Controllers struct {
	Webhook      *controllers.WebhookController
	Events       *controllers.WebhookEventController
	Availability *controllers.AvailabilityController
	ChannelSync  *controllers.ChannelSyncController
	Rooms        *controllers.RoomController
}

type Options struct {
	CORSOrigins []string
	Log         *zap.Logger
	// Gatherer serves /metrics; nil leaves it unmounted.
	Gatherer prometheus.Gatherer
}

func SetupRouter(ctl Controllers, opts Options) *gin.Engine {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(log), middleware.Recovery(log))

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		if ctl.Webhook != nil {
			api.POST("/webhooks/channel", ctl.Webhook.Receive)
		}

		if ctl.Events != nil {
			events := api.Group("/webhook-events")
			{
				events.GET("", ctl.Events.List)
				// recover must be registered before /:eventId routes
				events.POST("/recover", ctl.Events.Recover)
				events.GET("/:eventId", ctl.Events.Get)
				events.POST("/:eventId/retry", ctl.Events.Retry)
			}
		}

		if ctl.Availability != nil {
			api.GET("/availability/:id", ctl.Availability.Get)
		}

		if ctl.ChannelSync != nil {
			ch := api.Group("/channel")
			{
				ch.POST("/reservations/:id/push", ctl.ChannelSync.PushReservation)
				ch.POST("/availability/:id/push", ctl.ChannelSync.PushAvailability)
			}
		}

		if ctl.Rooms != nil {
			api.GET("/rooms", ctl.Rooms.GetRooms)
			api.GET("/rooms/:id", ctl.Rooms.GetRoom)
			api.GET("/room-types", ctl.Rooms.GetRoomTypes)
			api.GET("/room-types/:id", ctl.Rooms.GetRoomType)
		}
	}

	return r
}
