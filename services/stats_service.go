package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ltnetwork/ltnetwork-api/models"
)

const statsCacheKey = "ltnetwork:dashboard-stats"

// DashboardStats holds the admin overview counters. They are always
// recomputed from current booking and account states; the cache only
// bounds how often that recomputation happens.
type DashboardStats struct {
	TotalUsers       int64 `json:"total_users"`
	TotalTechnicians int64 `json:"total_technicians"`
	TotalBookings    int64 `json:"total_bookings"`
	PendingBookings  int64 `json:"pending_bookings"`
}

// StatsService computes dashboard counters with an optional Redis cache.
// With no Redis client every call recomputes directly.
type StatsService struct {
	redis *redis.Client
	ttl   time.Duration
}

var statsServiceInstance *StatsService

// InitStatsService wires the stats service. redisAddr may be empty to
// disable caching; ttl bounds counter staleness when caching is on.
func InitStatsService(redisAddr string, ttl time.Duration) *StatsService {
	var client *redis.Client
	if redisAddr != "" {
		client = redis.NewClient(&redis.Options{Addr: redisAddr})
	}
	statsServiceInstance = &StatsService{redis: client, ttl: ttl}
	return statsServiceInstance
}

// GetStatsService returns the initialized stats service instance
func GetStatsService() *StatsService {
	return statsServiceInstance
}

// SetStatsService sets the stats service instance (primarily for testing)
func SetStatsService(s *StatsService) {
	statsServiceInstance = s
}

// GetDashboardStats returns the current counters, served from cache when
// a fresh enough copy exists. A cache outage degrades to recomputation,
// it never fails the request; a store outage is a real error.
func (s *StatsService) GetDashboardStats(ctx context.Context, db *gorm.DB) (*DashboardStats, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, statsCacheKey).Result()
		if err == nil {
			var stats DashboardStats
			if jsonErr := json.Unmarshal([]byte(cached), &stats); jsonErr == nil {
				return &stats, nil
			}
		} else if err != redis.Nil {
			log.Printf("Stats cache read failed, recomputing: %v", err)
		}
	}

	stats, err := computeDashboardStats(db)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		payload, jsonErr := json.Marshal(stats)
		if jsonErr == nil {
			if err := s.redis.Set(ctx, statsCacheKey, payload, s.ttl).Err(); err != nil {
				log.Printf("Stats cache write failed: %v", err)
			}
		}
	}

	return stats, nil
}

// InvalidateCache drops the cached counters so the next read recomputes.
func (s *StatsService) InvalidateCache(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, statsCacheKey).Err(); err != nil && err != redis.Nil {
		log.Printf("Stats cache invalidation failed: %v", err)
	}
}

func computeDashboardStats(db *gorm.DB) (*DashboardStats, error) {
	var stats DashboardStats

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalUsers, db.Model(&models.Account{}).Where("role = ?", models.RoleUser)},
		{&stats.TotalTechnicians, db.Model(&models.Account{}).Where("role = ?", models.RoleTechnician)},
		{&stats.TotalBookings, db.Model(&models.Booking{})},
		{&stats.PendingBookings, db.Model(&models.Booking{}).
			Where("status IN ?", []models.BookingStatus{models.StatusPending, models.StatusPendingAssignment})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("%w: counting records: %v", ErrUpstreamUnavailable, err)
		}
	}

	return &stats, nil
}
