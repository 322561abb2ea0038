package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ltnetwork/ltnetwork-api/config"
	"github.com/ltnetwork/ltnetwork-api/middleware"
	"github.com/ltnetwork/ltnetwork-api/models"
	"github.com/ltnetwork/ltnetwork-api/services"
)

// respondError writes the standard error envelope
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// currentAccount loads the account for the authenticated subject. It
// writes the error response itself and returns false when the caller
// should stop.
func currentAccount(c *gin.Context) (*models.Account, bool) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}

	db := config.GetDB()
	var account models.Account
	if err := db.Where("auth0_id = ?", auth0ID).First(&account).Error; err != nil {
		respondError(c, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found. Please register first.")
		return nil, false
	}

	return &account, true
}

// requireAdmin loads the current account and rejects non-admins.
func requireAdmin(c *gin.Context) (*models.Account, bool) {
	account, ok := currentAccount(c)
	if !ok {
		return nil, false
	}
	if !account.IsAdmin() {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Admins only")
		return nil, false
	}
	return account, true
}

// respondLifecycleError maps lifecycle service errors onto the response
// taxonomy. Each error kind keeps its own code so clients can tell a
// permanent failure from a retryable one.
func respondLifecycleError(c *gin.Context, err error) {
	var invalid *services.InvalidTransitionError
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(c, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking or technician not found")
	case errors.As(err, &invalid):
		respondError(c, http.StatusUnprocessableEntity, "INVALID_TRANSITION", invalid.Error())
	case errors.Is(err, services.ErrPreconditionFailed):
		respondError(c, http.StatusConflict, "CONFLICT", "Booking status changed concurrently. Refresh and try again.")
	case errors.Is(err, services.ErrUnauthorized):
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You are not allowed to perform this action on this booking")
	case errors.Is(err, services.ErrUpstreamUnavailable):
		respondError(c, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Backend temporarily unavailable. Please try again.")
	default:
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update booking")
	}
}
