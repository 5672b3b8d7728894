package controllers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hotel-sync/channel"
	"hotel-sync/services"

	"github.com/gin-gonic/gin"
)

func uintParam(c *gin.Context, name string) (uint, error) {
	raw := strings.TrimSpace(c.Param(name))
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", services.ErrValidation, name, raw)
	}
	return uint(n), nil
}

// dateWindow reads the required from and to query dates.
func dateWindow(c *gin.Context) (time.Time, time.Time, error) {
	from, ok := channel.ParseDate(c.Query("from"))
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from must be a date (YYYY-MM-DD)", services.ErrValidation)
	}
	to, ok := channel.ParseDate(c.Query("to"))
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to must be a date (YYYY-MM-DD)", services.ErrValidation)
	}
	return from, to, nil
}

// inventoryRef reads :id and the optional type=room|room-type query.
func inventoryRef(c *gin.Context) (services.InventoryRef, error) {
	id, err := uintParam(c, "id")
	if err != nil {
		return services.InventoryRef{}, err
	}
	ref := services.InventoryRef{ID: id}
	switch strings.ToLower(strings.TrimSpace(c.Query("type"))) {
	case "", "room":
	case "room-type", "room_type", "roomtype":
		ref.PreferRoomType = true
	default:
		return ref, fmt.Errorf("%w: type must be room or room-type", services.ErrValidation)
	}
	return ref, nil
}
