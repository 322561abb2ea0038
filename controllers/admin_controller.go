package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ltnetwork/ltnetwork-api/config"
	"github.com/ltnetwork/ltnetwork-api/models"
	"github.com/ltnetwork/ltnetwork-api/services"
)

// UpdateRoleRequest represents the request body for a role assignment
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// AssignTechnicianRequest represents the request body for assigning a
// technician to a pending-assignment booking
type AssignTechnicianRequest struct {
	TechnicianEmail string `json:"technician_email" binding:"required,email"`
}

// ListAccounts handles GET /api/v1/admin/accounts
func ListAccounts(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	db := config.GetDB()
	var accounts []models.Account
	if err := db.Order("created_at DESC").Find(&accounts).Error; err != nil {
		respondError(c, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Failed to load accounts. Please try again.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    accounts,
	})
}

// UpdateAccountRole handles PUT /api/v1/admin/accounts/:id/role - the
// explicit role-assignment operation. This is the only path that changes
// a role; profile updates never touch it.
func UpdateAccountRole(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	accountID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid account id")
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	switch req.Role {
	case models.RoleUser, models.RoleTechnician, models.RoleAdmin:
	default:
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Role must be user, technician or admin")
		return
	}

	db := config.GetDB()
	var account models.Account
	if err := db.First(&account, uint(accountID)).Error; err != nil {
		respondError(c, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found")
		return
	}

	if err := db.Model(&account).Update("role", req.Role).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update role")
		return
	}

	account.Role = req.Role
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    account,
	})
}

// DeleteAccount handles DELETE /api/v1/admin/accounts/:id - soft delete,
// so bookings keep their requester and technician references.
func DeleteAccount(c *gin.Context) {
	admin, ok := requireAdmin(c)
	if !ok {
		return
	}

	accountID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid account id")
		return
	}

	if uint(accountID) == admin.ID {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Admins cannot delete their own account")
		return
	}

	db := config.GetDB()
	var account models.Account
	if err := db.First(&account, uint(accountID)).Error; err != nil {
		respondError(c, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found")
		return
	}

	if err := db.Delete(&account).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete account")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Account deleted",
	})
}

// ListAllBookings handles GET /api/v1/admin/bookings with an optional
// ?status= filter
func ListAllBookings(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	db := config.GetDB()
	query := db.Preload("Requester").Preload("Technician").Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var bookings []models.Booking
	if err := query.Find(&bookings).Error; err != nil {
		respondError(c, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Failed to load bookings. Please try again.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    bookings,
	})
}

// AssignBookingTechnician handles PUT /api/v1/admin/bookings/:id/assign -
// moves a pending-assignment booking to pending with the technician set.
func AssignBookingTechnician(c *gin.Context) {
	admin, ok := requireAdmin(c)
	if !ok {
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}

	var req AssignTechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	booking, err := services.AssignTechnician(config.GetDB(), bookingID, admin, req.TechnicianEmail)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    booking,
	})
}

// DeleteBooking handles DELETE /api/v1/admin/bookings/:id
func DeleteBooking(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
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

	if err := db.Delete(&booking).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete booking")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Booking deleted",
	})
}

// GetDashboardStats handles GET /api/v1/admin/stats
func GetDashboardStats(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	statsService := services.GetStatsService()
	if statsService == nil {
		respondError(c, http.StatusInternalServerError, "STATS_UNAVAILABLE", "Stats service not initialized")
		return
	}

	stats, err := statsService.GetDashboardStats(c.Request.Context(), config.GetDB())
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Failed to compute stats. Please try again.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}
