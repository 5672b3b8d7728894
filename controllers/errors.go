package controllers

import (
	"errors"
	"net/http"

	"hotel-sync/services"
	"hotel-sync/utils"

	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrUnsupportedEvent):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal server error"
	}
	utils.JSONError(c, code, msg)
}
