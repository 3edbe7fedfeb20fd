package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/abcode/codelens/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// DefaultRateLimitRPM is the per-client request budget per minute
const DefaultRateLimitRPM = 60

// RedisRateLimiter wraps the Redis client backing the rate limiter
type RedisRateLimiter struct {
	client *redis.Client
}

// NewRedisRateLimiter creates a new Redis-backed rate limiter
func NewRedisRateLimiter(redisURL string) (*RedisRateLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRateLimiter{client: client}, nil
}

// Close closes the Redis connection
func (r *RedisRateLimiter) Close() error {
	return r.client.Close()
}

// Ping checks if Redis is reachable
func (r *RedisRateLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// RateLimit returns middleware enforcing a per-minute request budget per
// client IP, counted in Redis via ulule/limiter.
func RateLimit(redisLimiter *RedisRateLimiter, requestsPerMinute int) (func(http.Handler) http.Handler, error) {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRateLimitRPM
	}

	rate, err := limiter.NewRateFromFormatted(fmt.Sprintf("%d-M", requestsPerMinute))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate limit: %w", err)
	}

	store, err := redisstore.NewStore(redisLimiter.client)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis limiter store: %w", err)
	}

	instance := limiter.New(store, rate)
	keyGetter := func(r *http.Request) string {
		return request.ClientIP(r)
	}
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(keyGetter))
	return mw.Handler, nil
}
