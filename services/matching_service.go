package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/ltnetwork/ltnetwork-api/models"
)

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// SearchQuery describes a technician search. Empty filter strings match
// everything, which supports the "browse all" flow. Coordinates come in
// as plain values from the client; the server never geolocates.
type SearchQuery struct {
	Profession  string
	City        string
	Lat         *float64
	Lng         *float64
	SortNearest bool
}

// TechnicianMatch is one search result. DistanceKm is nil when either
// the requester or the technician has no coordinates.
type TechnicianMatch struct {
	AccountID  uint     `json:"account_id"`
	Name       string   `json:"name"`
	Profession string   `json:"profession"`
	City       string   `json:"city"`
	Email      string   `json:"email"`
	DistanceKm *float64 `json:"distance_km"`
}

// Haversine computes the great-circle distance in kilometers between two
// coordinate pairs.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// SearchTechnicians filters the technician directory by profession and
// city substring and optionally ranks by distance from the requester.
//
// A store failure is reported as ErrUpstreamUnavailable, never as an
// empty result; an empty slice means the search genuinely matched
// nothing.
func SearchTechnicians(db *gorm.DB, query SearchQuery) ([]TechnicianMatch, error) {
	var technicians []models.Account
	// Technicians without a profession have an incomplete profile and are
	// not searchable.
	err := db.Where("role = ? AND profession <> ''", models.RoleTechnician).
		Find(&technicians).Error
	if err != nil {
		return nil, fmt.Errorf("%w: loading technicians: %v", ErrUpstreamUnavailable, err)
	}

	professionFilter := strings.ToLower(strings.TrimSpace(query.Profession))
	cityFilter := strings.ToLower(strings.TrimSpace(query.City))

	matches := make([]TechnicianMatch, 0, len(technicians))
	for _, tech := range technicians {
		if professionFilter != "" &&
			!strings.Contains(strings.ToLower(tech.Profession), professionFilter) {
			continue
		}
		if cityFilter != "" &&
			!strings.Contains(strings.ToLower(tech.City), cityFilter) {
			continue
		}

		match := TechnicianMatch{
			AccountID:  tech.ID,
			Name:       tech.Name,
			Profession: tech.Profession,
			City:       tech.City,
			Email:      tech.Email,
		}
		if query.Lat != nil && query.Lng != nil && tech.HasCoordinates() {
			distance := Haversine(*query.Lat, *query.Lng, *tech.Lat, *tech.Lng)
			match.DistanceKm = &distance
		}
		matches = append(matches, match)
	}

	if query.SortNearest {
		// Stable: candidates without a distance keep their store order and
		// always sort after every candidate with one.
		sort.SliceStable(matches, func(i, j int) bool {
			di, dj := matches[i].DistanceKm, matches[j].DistanceKm
			if di == nil {
				return false
			}
			if dj == nil {
				return true
			}
			return *di < *dj
		})
	}

	return matches, nil
}
