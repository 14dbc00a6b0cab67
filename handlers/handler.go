package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"bulk-buddy-api/services"
	"bulk-buddy-api/statemachine"

	"github.com/gin-gonic/gin"
)

// Handler serves the HTTP API on top of the service layer
type Handler struct {
	Svc       *services.Service
	JWTSecret []byte
	TokenTTL  time.Duration
}

func New(svc *services.Service, jwtSecret []byte, tokenTTL time.Duration) *Handler {
	return &Handler{Svc: svc, JWTSecret: jwtSecret, TokenTTL: tokenTTL}
}

// respondError maps service errors onto HTTP statuses. Anything unexpected
// is logged through gin's error list and hidden from the client.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrOwnTrip):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrApplicationPending),
		errors.Is(err, services.ErrAlreadyDriver):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrItemNotOnTrip):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInsufficientQuantity),
		errors.Is(err, services.ErrTripNotOpen),
		errors.Is(err, statemachine.ErrInvalidTransition):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// paramID parses a positive numeric path parameter
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
