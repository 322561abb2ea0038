package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ltnetwork/ltnetwork-api/config"
	"github.com/ltnetwork/ltnetwork-api/services"
)

// SearchTechnicians handles GET /api/v1/technicians - filters the
// technician directory by profession and city and optionally ranks by
// distance from the caller's coordinates.
//
// Query parameters: profession, city (substring filters, empty matches
// all), lat, lng (requester coordinates), sort=nearest.
func SearchTechnicians(c *gin.Context) {
	query := services.SearchQuery{
		Profession:  c.Query("profession"),
		City:        c.Query("city"),
		SortNearest: c.Query("sort") == "nearest",
	}

	latParam := c.Query("lat")
	lngParam := c.Query("lng")
	if (latParam == "") != (lngParam == "") {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "lat and lng must be provided together")
		return
	}
	if latParam != "" {
		lat, latErr := strconv.ParseFloat(latParam, 64)
		lng, lngErr := strconv.ParseFloat(lngParam, 64)
		if latErr != nil || lngErr != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "lat and lng must be valid numbers")
			return
		}
		query.Lat = &lat
		query.Lng = &lng
	}

	matches, err := services.SearchTechnicians(config.GetDB(), query)
	if err != nil {
		// A store failure is never reported as "no matches"
		respondError(c, http.StatusServiceUnavailable, "MATCHING_UNAVAILABLE", "Technician search is temporarily unavailable. Please try again.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    matches,
	})
}
