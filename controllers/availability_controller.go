package controllers

import (
	"net/http"

	"hotel-sync/services"
	"hotel-sync/utils"

	"github.com/gin-gonic/gin"
)

type AvailabilityController struct {
	Svc *services.AvailabilityService
}

func NewAvailabilityController(svc *services.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{Svc: svc}
}

// Get handles GET /api/availability/:id?from=&to=&type=
func (ac *AvailabilityController) Get(c *gin.Context) {
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

	days, err := ac.Svc.Availability(c.Request.Context(), ref, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, days)
}
