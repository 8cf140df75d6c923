// Package redis implements Redis-backed caching for hot read paths.
// The leaderboard cache keeps ranked period aggregates so repeated reads
// skip the SQL aggregation; a miss always falls back to the ledger.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/speakably/speakably-backend/internal/domain/leaderboard"
	"github.com/speakably/speakably-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// Host is the Redis server hostname.
	Host string

	// Port is the Redis server port.
	Port int

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number (0-15).
	DB int

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewClient creates a Redis client and verifies the connection.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: failed to ping: %w", err)
	}

	return client, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// Per-range TTLs. The day ranking changes constantly, so it expires fast;
// longer periods tolerate staleness better.
const (
	ttlDay   = 2 * time.Minute
	ttlWeek  = 5 * time.Minute
	ttlMonth = 15 * time.Minute
)

// LeaderboardCache implements leaderboard.Cache on Redis.
type LeaderboardCache struct {
	client *redis.Client
	prefix string
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(client *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		prefix: "leaderboard:",
	}
}

func (c *LeaderboardCache) key(rng leaderboard.Range, periodStart time.Time) string {
	return c.prefix + string(rng) + ":" + timeutil.FormatDay(periodStart)
}

func ttlFor(rng leaderboard.Range) time.Duration {
	switch rng {
	case leaderboard.RangeWeek:
		return ttlWeek
	case leaderboard.RangeMonth:
		return ttlMonth
	default:
		return ttlDay
	}
}

// Get returns the cached ranking for a period, ok=false on a miss.
func (c *LeaderboardCache) Get(ctx context.Context, rng leaderboard.Range, periodStart time.Time) ([]leaderboard.Entry, bool, error) {
	raw, err := c.client.Get(ctx, c.key(rng, periodStart)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("leaderboard cache: get failed: %w", err)
	}

	var entries []leaderboard.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		// A corrupt entry behaves like a miss; the caller rebuilds it.
		return nil, false, nil
	}

	return entries, true, nil
}

// Set stores a ranked period with the range-specific TTL.
func (c *LeaderboardCache) Set(ctx context.Context, rng leaderboard.Range, periodStart time.Time, entries []leaderboard.Entry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("leaderboard cache: marshal failed: %w", err)
	}

	if err := c.client.Set(ctx, c.key(rng, periodStart), raw, ttlFor(rng)).Err(); err != nil {
		return fmt.Errorf("leaderboard cache: set failed: %w", err)
	}

	return nil
}

// Invalidate drops the cached rankings of every period containing the
// moment at. A new credit at that moment changes all three rankings.
func (c *LeaderboardCache) Invalidate(ctx context.Context, at time.Time) error {
	keys := []string{
		c.key(leaderboard.RangeDay, leaderboard.RangeDay.PeriodStart(at)),
		c.key(leaderboard.RangeWeek, leaderboard.RangeWeek.PeriodStart(at)),
		c.key(leaderboard.RangeMonth, leaderboard.RangeMonth.PeriodStart(at)),
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("leaderboard cache: invalidate failed: %w", err)
	}

	return nil
}
