package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fixitnow/fixitnow-api/config"
)

const (
	issueLimitPrefix = "fixitnow:issue-limit"
	issueLimitWindow = 24 * time.Hour
)

// NewRedisClient connects to the Redis instance named in the config. It
// returns nil when no address is configured.
func NewRedisClient(conf *config.Config) *redis.Client {
	if conf.RedisAddress == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddress,
		Password: conf.RedisPassword,
		DB:       0,
	})
}

// IssueRateLimiter caps how many issues a single reporter may file per day
type IssueRateLimiter struct {
	client  redis.Cmdable
	limit   int
	metrics *Metrics
}

// NewIssueRateLimiter returns a limiter allowing limit creations per
// reporter in a rolling 24 hour window that starts at the first one.
func NewIssueRateLimiter(client redis.Cmdable, limit int, m *Metrics) *IssueRateLimiter {
	return &IssueRateLimiter{client: client, limit: limit, metrics: m}
}

// Middleware enforces the limit. It must run after Authenticator.Middleware.
// Redis failures are logged and the request is let through.
func (l *IssueRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			config.ErrorStatus("not authorized, no token", http.StatusUnauthorized, w, nil)
			return
		}
		if l == nil || l.client == nil || l.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := fmt.Sprintf("%s:%s", issueLimitPrefix, p.ID.Hex())

		count, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			zap.S().Warnw("issue rate limiter unavailable", "key", key, "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			if err := l.client.Expire(ctx, key, issueLimitWindow).Err(); err != nil {
				zap.S().Warnw("failed to set issue limit ttl", "key", key, "error", err)
			}
		}

		if count > int64(l.limit) {
			if ttl, err := l.client.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			}
			if l.metrics != nil {
				l.metrics.ObserveRateLimited()
			}
			config.ErrorStatus("daily issue limit reached, try again later", http.StatusTooManyRequests, w, nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
