package controllers

import (
	"fmt"
	"io"
	"net/http"

	"hotel-sync/services"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

type WebhookController struct {
	Svc             *services.WebhookService
	SignatureHeader string
}

func NewWebhookController(svc *services.WebhookService, signatureHeader string) *WebhookController {
	if signatureHeader == "" {
		signatureHeader = "X-Webhook-Signature"
	}
	return &WebhookController{Svc: svc, SignatureHeader: signatureHeader}
}

// Receive handles POST /api/webhooks/channel. The signature covers the raw
// body, so it is read before any decoding.
func (wc *WebhookController) Receive(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		respondWebhook(c, http.StatusBadRequest, false, "could not read request body")
		return
	}

	receipt, err := wc.Svc.Receive(c.Request.Context(), body, c.GetHeader(wc.SignatureHeader))
	if err != nil {
		code := statusFor(err)
		msg := err.Error()
		if code == http.StatusInternalServerError {
			_ = c.Error(err)
			msg = "internal server error"
		}
		respondWebhook(c, code, false, msg)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   fmt.Sprintf("%s: %s", receipt.Message, receipt.EventID),
		"eventId":   receipt.EventID,
		"duplicate": receipt.Duplicate,
	})
}

func respondWebhook(c *gin.Context, code int, ok bool, message string) {
	c.JSON(code, gin.H{"success": ok, "message": message})
}
