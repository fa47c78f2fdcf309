package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter counts requests per client in a shared Redis key, so the
// limit holds across every booking-api instance behind the load balancer.
type RedisRateLimiter struct {
	rdb     redis.Cmdable
	limit   int64
	window  time.Duration
	prefix  string
	clients ClientIP
}

func NewRedisRateLimiter(rdb redis.Cmdable, limit int, window time.Duration, prefix string, clients ClientIP) *RedisRateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisRateLimiter{rdb: rdb, limit: int64(limit), window: window, prefix: prefix, clients: clients}
}

// Middleware rejects clients over the limit with 429 and a Retry-After hint.
// When Redis is unreachable it either lets the request through (failOpen) or
// answers 503.
func (rl *RedisRateLimiter) Middleware(logger *slog.Logger, failOpen bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			count, ttl, err := rl.hit(r.Context(), rl.prefix+":"+rl.clients.Of(r))
			if err != nil {
				if logger != nil {
					logger.Warn("rate limiter backend error", "err", err, "request_id", RequestIDFromContext(r.Context()))
				}
				if failOpen {
					next.ServeHTTP(w, r)
					return
				}
				WriteMessage(w, http.StatusServiceUnavailable, "rate limiter unavailable")
				return
			}
			if count > rl.limit {
				secs := int64(ttl.Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
				WriteMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// hit increments the client's counter and starts its window on first use.
func (rl *RedisRateLimiter) hit(ctx context.Context, key string) (int64, time.Duration, error) {
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := rl.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		ttl = p.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	remaining := ttl.Val()
	if remaining < 0 {
		if err := rl.rdb.PExpire(ctx, key, rl.window).Err(); err != nil {
			return 0, 0, err
		}
		remaining = rl.window
	}
	return incr.Val(), remaining, nil
}
