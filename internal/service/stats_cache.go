package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telemed-appointments/internal/domain/entity"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// Redis key prefix for per-party appointment status counts
	statsKeyPrefix = "appointments:stats:"

	// Counts are cheap to recompute; keep the cache short-lived
	statsTTL = 5 * time.Minute
)

// StatsCache caches per-party appointment status counts in Redis.
// The cache is a read accelerator only: a miss or a Redis failure always
// falls through to the database.
type StatsCache struct {
	redisClient *redis.Client
	log         *logrus.Logger
}

func NewStatsCache(redisClient *redis.Client, log *logrus.Logger) *StatsCache {
	return &StatsCache{
		redisClient: redisClient,
		log:         log,
	}
}

func statsKey(role string, partyID string) string {
	return fmt.Sprintf("%s%s:%s", statsKeyPrefix, role, partyID)
}

// Get returns the cached counts for one party, or false on miss/error
func (c *StatsCache) Get(ctx context.Context, role string, partyID string) (*entity.StatusCounts, bool) {
	raw, err := c.redisClient.Get(ctx, statsKey(role, partyID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warnf("Failed to read stats cache for %s %s (non-fatal): %+v", role, partyID, err)
		}
		return nil, false
	}

	var counts entity.StatusCounts
	if err := json.Unmarshal(raw, &counts); err != nil {
		c.log.Warnf("Corrupt stats cache entry for %s %s, dropping: %+v", role, partyID, err)
		c.redisClient.Del(ctx, statsKey(role, partyID))
		return nil, false
	}
	return &counts, true
}

// Set stores the counts for one party with a short TTL
func (c *StatsCache) Set(ctx context.Context, role string, partyID string, counts *entity.StatusCounts) {
	raw, err := json.Marshal(counts)
	if err != nil {
		c.log.Warnf("Failed to marshal stats for %s %s: %+v", role, partyID, err)
		return
	}
	if err := c.redisClient.Set(ctx, statsKey(role, partyID), raw, statsTTL).Err(); err != nil {
		c.log.Warnf("Failed to write stats cache for %s %s (non-fatal): %+v", role, partyID, err)
	}
}

// Invalidate drops the cached counts for both parties of an appointment.
// Called after every successful lifecycle write so dashboards never read
// counts older than the TTL window.
func (c *StatsCache) Invalidate(ctx context.Context, patientID string, providerID string) {
	keys := []string{
		statsKey(entity.RolePatient, patientID),
		statsKey(entity.RoleProvider, providerID),
	}
	if err := c.redisClient.Del(ctx, keys...).Err(); err != nil {
		c.log.Warnf("Failed to invalidate stats cache (non-fatal): %+v", err)
	}
}
