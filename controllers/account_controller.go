package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ltnetwork/ltnetwork-api/config"
	"github.com/ltnetwork/ltnetwork-api/middleware"
	"github.com/ltnetwork/ltnetwork-api/models"
	"github.com/ltnetwork/ltnetwork-api/services"
)

// EnsureAccountRequest carries the optional registration details sent on
// first login. Location always arrives as plain values; the server never
// geolocates.
type EnsureAccountRequest struct {
	Name       string   `json:"name" binding:"omitempty"`
	Technician bool     `json:"technician"`
	Profession string   `json:"profession" binding:"omitempty"`
	City       string   `json:"city" binding:"omitempty"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
}

// UpdateAccountRequest represents the request body for updating a profile
type UpdateAccountRequest struct {
	Name       string   `json:"name" binding:"omitempty"`
	Email      string   `json:"email" binding:"omitempty,email"`
	Profession string   `json:"profession" binding:"omitempty"`
	City       string   `json:"city" binding:"omitempty"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
}

// EnsureAccount handles POST /api/v1/accounts - idempotent find-or-create
// for the authenticated identity. Safe to call on every login: an existing
// account is returned as-is, never duplicated. Profile data for new
// accounts comes from Auth0's /userinfo endpoint plus the request body.
func EnsureAccount(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	db := config.GetDB()

	// Lookup before insert: the common case is an account that already
	// exists for this subject.
	var existing models.Account
	if err := db.Where("auth0_id = ?", auth0ID).First(&existing).Error; err == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    existing,
		})
		return
	}

	var req EnsureAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	cfg := config.GetConfig()
	auth0Service := services.NewAuth0Service(cfg)
	userInfo, err := auth0Service.GetUserInfo(accessToken)
	if err != nil {
		if errors.Is(err, services.ErrUpstreamUnavailable) {
			respondError(c, http.StatusServiceUnavailable, "AUTH0_ERROR", "Identity provider unreachable")
			return
		}
		respondError(c, http.StatusInternalServerError, "AUTH0_ERROR", "Failed to fetch user information from Auth0")
		return
	}

	if userInfo.Email == "" {
		respondError(c, http.StatusBadRequest, "MISSING_EMAIL", "Email not provided by Auth0")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = userInfo.Name
	}
	if name == "" {
		// Original fallback: derive a display name from the email
		name = strings.SplitN(userInfo.Email, "@", 2)[0]
	}

	role := models.RoleUser
	if req.Technician {
		role = models.RoleTechnician
	}
	// A role claim on the token wins over the self-declared flag
	if claims, err := middleware.GetClaims(c); err == nil {
		if customClaims, ok := claims.CustomClaims.(*middleware.CustomClaims); ok && customClaims.Role != "" {
			role = customClaims.Role
		}
	}

	account := models.Account{
		Auth0ID:    auth0ID,
		Name:       name,
		Email:      userInfo.Email,
		Role:       role,
		Profession: strings.TrimSpace(req.Profession),
		City:       strings.TrimSpace(req.City),
		Lat:        req.Lat,
		Lng:        req.Lng,
	}

	if err := db.Create(&account).Error; err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") ||
			strings.Contains(errMsg, "unique constraint") ||
			strings.Contains(errMsg, "unique") {
			// Lost the creation race or the email belongs to another
			// subject. Re-check by subject so a concurrent ensure call
			// still gets its account back.
			var raced models.Account
			if err := db.Where("auth0_id = ?", auth0ID).First(&raced).Error; err == nil {
				c.JSON(http.StatusOK, gin.H{
					"success": true,
					"data":    raced,
				})
				return
			}
			respondError(c, http.StatusConflict, "ACCOUNT_EXISTS", "An account with this email already exists")
			return
		}

		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    account,
	})
}

// GetMyAccount handles GET /api/v1/accounts/me
func GetMyAccount(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    account,
	})
}

// UpdateMyAccount handles PUT /api/v1/accounts/me - updates profile
// fields. The role is never touched here; role changes are an admin
// operation.
func UpdateMyAccount(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Profession != "" {
		updates["profession"] = req.Profession
	}
	if req.City != "" {
		updates["city"] = req.City
	}
	if req.Lat != nil {
		updates["lat"] = req.Lat
	}
	if req.Lng != nil {
		updates["lng"] = req.Lng
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    account,
		})
		return
	}

	db := config.GetDB()
	if err := db.Model(account).Updates(updates).Error; err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") ||
			strings.Contains(errMsg, "unique constraint") ||
			strings.Contains(errMsg, "unique") {
			respondError(c, http.StatusConflict, "EMAIL_EXISTS", "An account with this email already exists")
			return
		}

		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update profile")
		return
	}

	var updated models.Account
	if err := db.First(&updated, account.ID).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch updated profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updated,
	})
}
