package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/arnavshah/allocation-api-go/pkg/database"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Limiter enforces a per-key daily request quota
type Limiter interface {
	// Allow counts one request for keyID and reports whether it fits in limit.
	// Every call counts, including ones that end up refused. A limit <= 0 is unlimited.
	Allow(ctx context.Context, keyID uint, limit int) (bool, error)
}

// RedisLimiter keeps daily counters in redis with an expiry at the end of the day.
// When history is set each request is also added to api_usage for reporting.
type RedisLimiter struct {
	rdb     *goredis.Client
	history *gorm.DB
	prefix  string
	now     func() time.Time
}

// NewRedisLimiter connects to addr and pings it before returning
func NewRedisLimiter(ctx context.Context, addr string, history *gorm.DB) (*RedisLimiter, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisLimiter{rdb: rdb, history: history, prefix: "quota", now: time.Now}, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, keyID uint, limit int) (bool, error) {
	if l.history != nil {
		if _, err := database.CountRequest(ctx, l.history, keyID); err != nil {
			return false, err
		}
	}
	if limit <= 0 {
		return true, nil
	}
	now := l.now().UTC()
	key := fmt.Sprintf("%s:%d:%s", l.prefix, keyID, now.Format("2006-01-02"))

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireAt(ctx, key, now.Truncate(24*time.Hour).Add(24*time.Hour))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis quota: %w", err)
	}
	return incr.Val() <= int64(limit), nil
}

func (l *RedisLimiter) Close() error {
	return l.rdb.Close()
}

// DBLimiter counts requests in api_usage and enforces the quota from that counter
type DBLimiter struct {
	DB *gorm.DB
}

func (l *DBLimiter) Allow(ctx context.Context, keyID uint, limit int) (bool, error) {
	n, err := database.CountRequest(ctx, l.DB, keyID)
	if err != nil {
		return false, err
	}
	return limit <= 0 || n <= limit, nil
}
