package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ltnetwork/ltnetwork-api/config"
	"github.com/ltnetwork/ltnetwork-api/models"
	"github.com/ltnetwork/ltnetwork-api/services"
)

// CreateBookingRequest represents the request body for creating a booking
type CreateBookingRequest struct {
	Service         string `json:"service" binding:"required"`
	Location        string `json:"location" binding:"required"`
	Phone           string `json:"phone" binding:"required"`
	Details         string `json:"details" binding:"omitempty"`
	TechnicianEmail string `json:"technician_email" binding:"omitempty,email"`
}

// CreateBooking handles POST /api/v1/bookings - creates a new service
// request. With a technician_email target the booking starts in
// "pending"; without one it starts in "pending-assignment" and waits for
// an admin to assign someone.
func CreateBooking(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	// Only service seekers create bookings
	if account.Role != models.RoleUser {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only users can create bookings")
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	booking, err := services.CreateBooking(config.GetDB(), account, services.CreateBookingInput{
		Service:         req.Service,
		Location:        req.Location,
		Details:         req.Details,
		Phone:           req.Phone,
		TechnicianEmail: req.TechnicianEmail,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			respondError(c, http.StatusNotFound, "TECHNICIAN_NOT_FOUND", "No technician with that email")
		case errors.Is(err, services.ErrUnauthorized):
			respondError(c, http.StatusUnprocessableEntity, "INVALID_TECHNICIAN", "Target account is not a technician")
		case errors.Is(err, services.ErrUpstreamUnavailable):
			respondError(c, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Backend temporarily unavailable. Please try again.")
		default:
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create booking")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    booking,
	})
}

// ListMyBookings handles GET /api/v1/bookings - the requester's bookings
func ListMyBookings(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var bookings []models.Booking
	err := db.Preload("Technician").
		Where("requester_id = ?", account.ID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Failed to load bookings. Please try again.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    bookings,
	})
}

// ListAssignedBookings handles GET /api/v1/bookings/assigned - the
// bookings assigned to the calling technician. Bookings created before
// the technician registered are matched by email.
func ListAssignedBookings(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	if !account.IsTechnician() {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only technicians have assigned bookings")
		return
	}

	db := config.GetDB()
	var bookings []models.Booking
	err := db.Preload("Requester").
		Where("technician_id = ? OR technician_email = ?", account.ID, account.Email).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Failed to load bookings. Please try again.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    bookings,
	})
}

// AcceptBooking handles POST /api/v1/bookings/:id/accept
func AcceptBooking(c *gin.Context) {
	transitionHandler(c, services.EventAccept)
}

// DeclineBooking handles POST /api/v1/bookings/:id/decline
func DeclineBooking(c *gin.Context) {
	transitionHandler(c, services.EventDecline)
}

// CompleteBooking handles POST /api/v1/bookings/:id/complete
func CompleteBooking(c *gin.Context) {
	transitionHandler(c, services.EventComplete)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func CancelBooking(c *gin.Context) {
	transitionHandler(c, services.EventCancel)
}

// transitionHandler drives one lifecycle event for the booking in the
// path. All status writes go through the lifecycle service; nothing in
// this layer touches the status column.
func transitionHandler(c *gin.Context, event services.BookingEvent) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}

	booking, err := services.TransitionBooking(config.GetDB(), bookingID, account, event)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    booking,
	})
}

func parseBookingID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
