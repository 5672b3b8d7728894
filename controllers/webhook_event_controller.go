package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"hotel-sync/services"
	"hotel-sync/utils"

	"github.com/gin-gonic/gin"
)

// WebhookEventController is the operator view of recorded webhook events.
type WebhookEventController struct {
	Svc *services.WebhookService
}

func NewWebhookEventController(svc *services.WebhookService) *WebhookEventController {
	return &WebhookEventController{Svc: svc}
}

// GET /api/webhook-events?status=&limit=
func (ec *WebhookEventController) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	events, err := ec.Svc.List(c.Request.Context(), strings.TrimSpace(c.Query("status")), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, events)
}

// GET /api/webhook-events/:eventId
func (ec *WebhookEventController) Get(c *gin.Context) {
	event, err := ec.Svc.Get(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, event)
}

// POST /api/webhook-events/:eventId/retry
func (ec *WebhookEventController) Retry(c *gin.Context) {
	event, err := ec.Svc.Retry(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusAccepted, event)
}

// POST /api/webhook-events/recover
func (ec *WebhookEventController) Recover(c *gin.Context) {
	n, err := ec.Svc.RecoverPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusAccepted, gin.H{"scheduled": n})
}
