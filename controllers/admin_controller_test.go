package controllers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ltnetwork/ltnetwork-api/config"
	"github.com/ltnetwork/ltnetwork-api/models"
	"github.com/ltnetwork/ltnetwork-api/services"
)

func adminRouter(account models.Account) *gin.Engine {
	router := setupTestRouter()
	auth := mockAuthMiddleware(account.Auth0ID, "", "token")
	admin := router.Group("/admin", auth)
	{
		admin.GET("/accounts", ListAccounts)
		admin.PUT("/accounts/:id/role", UpdateAccountRole)
		admin.DELETE("/accounts/:id", DeleteAccount)
		admin.GET("/bookings", ListAllBookings)
		admin.PUT("/bookings/:id/assign", AssignBookingTechnician)
		admin.DELETE("/bookings/:id", DeleteBooking)
		admin.GET("/stats", GetDashboardStats)
	}
	return router
}

func TestAdminEndpoints_RequireAdminRole(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	user := seedAccount(t, db, "plain", models.RoleUser)
	router := adminRouter(user)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/admin/accounts"},
		{http.MethodGet, "/admin/bookings"},
		{http.MethodGet, "/admin/stats"},
		{http.MethodDelete, "/admin/accounts/1"},
		{http.MethodDelete, "/admin/bookings/1"},
	}

	for _, p := range paths {
		w := performJSONRequest(router, p.method, p.path, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s must be admin only", p.method, p.path)
		assertErrorCode(t, w, "FORBIDDEN")
	}
}

func TestListAccounts(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	admin := seedAccount(t, db, "admin", models.RoleAdmin)
	seedAccount(t, db, "user", models.RoleUser)
	seedAccount(t, db, "tech", models.RoleTechnician)

	router := adminRouter(admin)
	w := performJSONRequest(router, http.MethodGet, "/admin/accounts", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	response := parseResponse(t, w)
	assert.Len(t, response["data"].([]interface{}), 3)
}

func TestUpdateAccountRole(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	admin := seedAccount(t, db, "admin", models.RoleAdmin)
	user := seedAccount(t, db, "promotee", models.RoleUser)

	router := adminRouter(admin)

	w := performJSONRequest(router, http.MethodPut,
		fmt.Sprintf("/admin/accounts/%d/role", user.ID),
		map[string]interface{}{"role": models.RoleTechnician})

	assert.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Account
	db.First(&reloaded, user.ID)
	assert.Equal(t, models.RoleTechnician, reloaded.Role)
}

func TestUpdateAccountRole_Validation(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	admin := seedAccount(t, db, "admin", models.RoleAdmin)
	user := seedAccount(t, db, "user", models.RoleUser)
	router := adminRouter(admin)

	w := performJSONRequest(router, http.MethodPut,
		fmt.Sprintf("/admin/accounts/%d/role", user.ID),
		map[string]interface{}{"role": "superuser"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assertErrorCode(t, w, "VALIDATION_ERROR")

	w = performJSONRequest(router, http.MethodPut, "/admin/accounts/9999/role",
		map[string]interface{}{"role": models.RoleAdmin})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assertErrorCode(t, w, "ACCOUNT_NOT_FOUND")
}

func TestDeleteAccount(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	admin := seedAccount(t, db, "admin", models.RoleAdmin)
	user := seedAccount(t, db, "doomed", models.RoleUser)
	router := adminRouter(admin)

	w := performJSONRequest(router, http.MethodDelete,
		fmt.Sprintf("/admin/accounts/%d", user.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Soft delete: gone from normal queries, still present unscoped
	var count int64
	db.Model(&models.Account{}).Where("id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Unscoped().Model(&models.Account{}).Where("id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeleteAccount_SelfDeleteRejected(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	admin := seedAccount(t, db, "admin", models.RoleAdmin)
	router := adminRouter(admin)

	w := performJSONRequest(router, http.MethodDelete,
		fmt.Sprintf("/admin/accounts/%d", admin.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assertErrorCode(t, w, "VALIDATION_ERROR")
}

func TestListAllBookings_StatusFilter(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	admin := seedAccount(t, db, "admin", models.RoleAdmin)
	requester := seedAccount(t, db, "requester", models.RoleUser)
	seedBooking(t, db, requester, nil, models.StatusPendingAssignment)
	seedBooking(t, db, requester, nil, models.StatusPendingAssignment)
	seedBooking(t, db, requester, nil, models.StatusCompleted)

	router := adminRouter(admin)

	w := performJSONRequest(router, http.MethodGet, "/admin/bookings", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, parseResponse(t, w)["data"].([]interface{}), 3)

	w = performJSONRequest(router, http.MethodGet, "/admin/bookings?status=pending-assignment", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, parseResponse(t, w)["data"].([]interface{}), 2)
}

func TestAssignBookingTechnician(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	admin := seedAccount(t, db, "admin", models.RoleAdmin)
	requester := seedAccount(t, db, "requester", models.RoleUser)
	technician := seedAccount(t, db, "tech", models.RoleTechnician)
	booking := seedBooking(t, db, requester, nil, models.StatusPendingAssignment)

	router := adminRouter(admin)
	w := performJSONRequest(router, http.MethodPut,
		fmt.Sprintf("/admin/bookings/%d/assign", booking.ID),
		map[string]interface{}{"technician_email": technician.Email})

	assert.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Booking
	db.First(&reloaded, booking.ID)
	assert.Equal(t, models.StatusPending, reloaded.Status)
	assert.NotNil(t, reloaded.TechnicianID)
	assert.Equal(t, technician.ID, *reloaded.TechnicianID)
}

func TestAssignBookingTechnician_Errors(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	admin := seedAccount(t, db, "admin", models.RoleAdmin)
	requester := seedAccount(t, db, "requester", models.RoleUser)
	technician := seedAccount(t, db, "tech", models.RoleTechnician)
	router := adminRouter(admin)

	// Unknown technician
	booking := seedBooking(t, db, requester, nil, models.StatusPendingAssignment)
	w := performJSONRequest(router, http.MethodPut,
		fmt.Sprintf("/admin/bookings/%d/assign", booking.ID),
		map[string]interface{}{"technician_email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Booking not awaiting assignment
	accepted := seedBooking(t, db, requester, &technician, models.StatusAccepted)
	w = performJSONRequest(router, http.MethodPut,
		fmt.Sprintf("/admin/bookings/%d/assign", accepted.ID),
		map[string]interface{}{"technician_email": technician.Email})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assertErrorCode(t, w, "INVALID_TRANSITION")
}

func TestDeleteBooking(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	admin := seedAccount(t, db, "admin", models.RoleAdmin)
	requester := seedAccount(t, db, "requester", models.RoleUser)
	booking := seedBooking(t, db, requester, nil, models.StatusPendingAssignment)

	router := adminRouter(admin)
	w := performJSONRequest(router, http.MethodDelete,
		fmt.Sprintf("/admin/bookings/%d", booking.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	db.Model(&models.Booking{}).Where("id = ?", booking.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestGetDashboardStats(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	mr := miniredis.RunT(t)
	services.InitStatsService(mr.Addr(), 30*time.Second)
	defer services.SetStatsService(nil)

	admin := seedAccount(t, db, "admin", models.RoleAdmin)
	requester := seedAccount(t, db, "requester", models.RoleUser)
	seedAccount(t, db, "tech", models.RoleTechnician)
	seedBooking(t, db, requester, nil, models.StatusPendingAssignment)
	seedBooking(t, db, requester, nil, models.StatusCompleted)

	router := adminRouter(admin)
	w := performJSONRequest(router, http.MethodGet, "/admin/stats", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	response := parseResponse(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total_users"])
	assert.Equal(t, float64(1), data["total_technicians"])
	assert.Equal(t, float64(2), data["total_bookings"])
	assert.Equal(t, float64(1), data["pending_bookings"])
}

func TestGetDashboardStats_NotInitialized(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	services.SetStatsService(nil)

	admin := seedAccount(t, db, "admin", models.RoleAdmin)
	router := adminRouter(admin)

	w := performJSONRequest(router, http.MethodGet, "/admin/stats", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assertErrorCode(t, w, "STATS_UNAVAILABLE")
}
