package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter counts requests per client in fixed windows stored in
// Redis, so every replica of the service shares one budget.
type RedisRateLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisRateLimiter(rdb *redis.Client, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window < time.Second {
		window = time.Minute
	}
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisRateLimiter{rdb: rdb, limit: int64(limit), window: window, prefix: prefix, now: time.Now}
}

// Middleware rejects clients over budget with 429. When Redis is unreachable
// failOpen lets traffic through; otherwise the request gets a 503.
func (rl *RedisRateLimiter) Middleware(logger *slog.Logger, failOpen bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			count, retryAfter, err := rl.hit(r.Context(), ClientKey(r))
			switch {
			case err != nil && failOpen:
				logger.Warn("rate limiter unavailable, allowing request", "err", err, "request_id", RequestIDFromContext(r.Context()))
			case err != nil:
				logger.Error("rate limiter unavailable", "err", err, "request_id", RequestIDFromContext(r.Context()))
				WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "servicio no disponible")
				return
			case count > rl.limit:
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
				WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "demasiadas solicitudes, intentá más tarde")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// hit bumps the counter of the window containing now. Keys embed the window
// start, so an expired window simply stops being read.
func (rl *RedisRateLimiter) hit(ctx context.Context, client string) (int64, time.Duration, error) {
	now := rl.now()
	start := now.Truncate(rl.window)
	key := rl.prefix + ":" + client + ":" + strconv.FormatInt(start.Unix(), 10)

	var incr *redis.IntCmd
	_, err := rl.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.Expire(ctx, key, rl.window+time.Second)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return incr.Val(), start.Add(rl.window).Sub(now), nil
}

func RedisReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if rdb == nil {
			return errors.New("redis not configured")
		}
		return rdb.Ping(ctx).Err()
	}
}
