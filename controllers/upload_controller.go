package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ltnetwork/ltnetwork-api/config"
	"github.com/ltnetwork/ltnetwork-api/models"
	"github.com/ltnetwork/ltnetwork-api/services"
	"github.com/ltnetwork/ltnetwork-api/utils"
)

// UploadBookingPhoto handles POST /api/v1/bookings/:id/photo - attaches a
// job photo to the booking. Only the requester may upload; a new upload
// replaces the previous photo.
func UploadBookingPhoto(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}

	db := config.GetDB()
	var booking models.Booking
	if err := db.First(&booking, bookingID).Error; err != nil {
		respondError(c, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
		return
	}

	if booking.RequesterID != account.ID {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only the requester can attach a photo")
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "A photo file is required")
		return
	}

	photoService := services.GetPhotoService()
	if photoService == nil {
		respondError(c, http.StatusInternalServerError, "UPLOAD_UNAVAILABLE", "Photo storage not configured")
		return
	}

	photoKey, err := photoService.UploadPhoto(fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
			return
		}
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to store photo")
		return
	}

	oldKey := booking.PhotoKey
	if err := db.Model(&booking).Update("photo_key", photoKey).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save photo reference")
		return
	}

	// Best effort cleanup of the replaced photo
	if oldKey != nil && *oldKey != photoKey {
		_ = photoService.DeletePhoto(*oldKey)
	}

	booking.PhotoKey = &photoKey
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    booking,
	})
}

// GetBookingPhotoURL handles GET /api/v1/bookings/:id/photo-url - returns
// a time-limited URL for the attached photo. Visible to the requester,
// the assigned technician and admins.
func GetBookingPhotoURL(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}

	db := config.GetDB()
	var booking models.Booking
	if err := db.First(&booking, bookingID).Error; err != nil {
		respondError(c, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
		return
	}

	isRequester := booking.RequesterID == account.ID
	isAssignedTechnician := booking.TechnicianID != nil && *booking.TechnicianID == account.ID
	if !isRequester && !isAssignedTechnician && !account.IsAdmin() {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You are not allowed to view this photo")
		return
	}

	if booking.PhotoKey == nil || *booking.PhotoKey == "" {
		respondError(c, http.StatusNotFound, "PHOTO_NOT_FOUND", "This booking has no photo")
		return
	}

	photoService := services.GetPhotoService()
	if photoService == nil {
		respondError(c, http.StatusInternalServerError, "UPLOAD_UNAVAILABLE", "Photo storage not configured")
		return
	}

	url, err := photoService.GetPhotoURL(*booking.PhotoKey)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to generate photo URL")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"photo_url": url,
		},
	})
}
