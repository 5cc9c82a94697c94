package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amanihq/wellbeing-backend/internal/cache"
	"github.com/amanihq/wellbeing-backend/internal/metrics"
	"github.com/amanihq/wellbeing-backend/pkg/logger"
)

// CachedChecker wraps a Checker with a Redis cache so repeated booking
// attempts within the TTL do not hammer the free-busy provider.
type CachedChecker struct {
	inner Checker
	cache cache.Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedChecker creates a caching wrapper around a Checker.
func NewCachedChecker(inner Checker, c cache.Cache, ttl time.Duration, log *logger.Logger) *CachedChecker {
	return &CachedChecker{inner: inner, cache: c, ttl: ttl, log: log}
}

func cacheKey(email string, start, end time.Time) string {
	return fmt.Sprintf("freebusy:%s:%d:%d", email, start.Unix(), end.Unix())
}

// CheckAvailability serves cached verdicts where present and queries the
// provider only for the remaining identities. Cache failures degrade to a
// direct provider call.
func (c *CachedChecker) CheckAvailability(ctx context.Context, emails []string, start, end time.Time) ([]AvailabilityResult, error) {
	results := make(map[string]AvailabilityResult, len(emails))
	var misses []string

	for _, email := range emails {
		raw, err := c.cache.Get(ctx, cacheKey(email, start, end))
		if err != nil || raw == "" {
			misses = append(misses, email)
			continue
		}
		var res AvailabilityResult
		if err := json.Unmarshal([]byte(raw), &res); err != nil {
			misses = append(misses, email)
			continue
		}
		metrics.AvailabilityLookupsTotal.WithLabelValues("cache_hit").Inc()
		results[email] = res
	}

	if len(misses) > 0 {
		fresh, err := c.inner.CheckAvailability(ctx, misses, start, end)
		if err != nil {
			return nil, err
		}
		for _, res := range fresh {
			results[res.Email] = res
			raw, err := json.Marshal(res)
			if err != nil {
				continue
			}
			if err := c.cache.Set(ctx, cacheKey(res.Email, start, end), string(raw), c.ttl); err != nil {
				c.log.Warn().Err(err).Str("email", res.Email).Msg("Failed to cache availability result")
			}
		}
	}

	// Preserve input order.
	out := make([]AvailabilityResult, 0, len(emails))
	for _, email := range emails {
		if res, ok := results[email]; ok {
			out = append(out, res)
		}
	}
	return out, nil
}
