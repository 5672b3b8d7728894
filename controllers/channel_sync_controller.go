package controllers

import (
	"net/http"

	"hotel-sync/services"
	"hotel-sync/utils"

	"github.com/gin-gonic/gin"
)

type ChannelSyncController struct {
	Svc *services.ChannelSyncService
}

func NewChannelSyncController(svc *services.ChannelSyncService) *ChannelSyncController {
	return &ChannelSyncController{Svc: svc}
}

// POST /api/channel/reservations/:id/push
func (cc *ChannelSyncController) PushReservation(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := cc.Svc.PushReservation(c.Request.Context(), id)
	if err != nil {
		respondPushError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}

// POST /api/channel/availability/:id/push?from=&to=&type=
func (cc *ChannelSyncController) PushAvailability(c *gin.Context) {
	ref, err := inventoryRef(c)
	if err != nil {
		respondError(c, err)
		return
	}
	from, to, err := dateWindow(c)
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := cc.Svc.PushAvailability(c.Request.Context(), ref, from, to)
	if err != nil {
		respondPushError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}

// respondPushError reports channel API failures as 502.
func respondPushError(c *gin.Context, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		_ = c.Error(err)
		utils.JSONError(c, http.StatusBadGateway, err.Error())
		return
	}
	respondError(c, err)
}
