package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimitRepository is a sliding-window limiter keyed by an arbitrary
// subject (an owner key for discount attempts).
type RateLimitRepository interface {
	// Allow returns isAllowed, attempts left and seconds to wait.
	Allow(ctx context.Context, action, subject string) (bool, int, int, error)
}

type redisRateLimiter struct {
	client *redis.Client
	cfg    config.RateConfig
	now    func() time.Time
	newID  func() string
}

func NewRedisClient(cfg *config.RedisConnect) (*redis.Client, error) {

	slog.Info("Connecting to Redis", slog.String("url", fmt.Sprintf("redis://%s:<password>@%s:%s", cfg.Username, cfg.Host, cfg.Port)))

	opt, err := redis.ParseURL(cfg.GetDSN())
	if err != nil {
		slog.Error("Failed to parse Redis URL", slog.Any("error", err))
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.DB = cfg.DB

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Failed to connect to Redis", slog.Any("error", err))
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("✅ Successfully connected to Redis")
	return client, nil

}

func NewRateLimitRepo(client *redis.Client, cfg config.RateConfig) RateLimitRepository {
	return NewRateLimitRepoWithClock(client, cfg, time.Now, uuid.NewString)
}

// NewRateLimitRepoWithClock pins the clock and member ids, for tests.
func NewRateLimitRepoWithClock(client *redis.Client, cfg config.RateConfig, now func() time.Time, newID func() string) RateLimitRepository {
	return &redisRateLimiter{client: client, cfg: cfg, now: now, newID: newID}
}

func (r *redisRateLimiter) Allow(ctx context.Context, action, subject string) (bool, int, int, error) {

	logger := middleware.LoggerFromContext(ctx)

	key := fmt.Sprintf("rate:%s:%s", action, subject)

	now := r.now()
	nowMicro := now.UnixMicro()
	windowStart := now.Add(-r.cfg.WindowSize).UnixMicro()

	// members must be unique even for attempts in the same microsecond
	member := strconv.FormatInt(nowMicro, 10) + "-" + r.newID()

	pipe := r.client.Pipeline()

	// drop attempts that left the window
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))

	pipe.ZAdd(ctx, key, redis.Z{Score: float64(nowMicro), Member: member})

	count := pipe.ZCard(ctx, key)

	pipe.Expire(ctx, key, r.cfg.WindowSize)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Redis pipeline execution failed for rate limit", slog.String("key", key), slog.Any("error", err))
		return false, 0, 0, fmt.Errorf("redis pipeline error for rate limit check: %w", err)
	}

	attempts := count.Val()
	remaining := r.cfg.MaxAttempts - attempts

	if attempts > r.cfg.MaxAttempts {

		scores, err := r.client.ZRangeArgsWithScores(ctx, redis.ZRangeArgs{Key: key, Start: 0, Stop: 0}).Result()
		if err != nil || len(scores) == 0 {
			logger.Error("Failed to get oldest attempt time for rate limit", slog.String("key", key), slog.Any("error", err))
			return false, 0, int(r.cfg.WindowSize.Seconds()), fmt.Errorf("failed to get oldest attempt time: %w", err)
		}

		oldest := time.UnixMicro(int64(scores[0].Score))
		retryAfter := max(int(oldest.Add(r.cfg.WindowSize).Sub(now).Seconds()+0.999), 1)

		logger.Warn("Rate limit exceeded", slog.String("action", action), slog.String("subject", subject), slog.Int64("attempts", attempts))
		return false, 0, retryAfter, nil
	}

	logger.Debug("Rate limit check passed", slog.String("action", action), slog.Int64("attempts", attempts), slog.Int64("remaining", remaining))
	return true, int(remaining), 0, nil
}

type allowAll struct{}

// NewAllowAllLimiter is used when Redis is not configured.
func NewAllowAllLimiter() RateLimitRepository {
	return allowAll{}
}

func (allowAll) Allow(context.Context, string, string) (bool, int, int, error) {
	return true, 0, 0, nil
}
