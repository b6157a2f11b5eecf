package scores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/typerace/internal/race"
)

const (
	generationKey   = "typerace:leaderboard:gen"
	DefaultCacheTTL = 30 * time.Second
)

// CachedStore serves leaderboards from Redis and writes through to the
// wrapped store. Cache keys embed a generation counter that every Save
// bumps, so a new score invalidates all cached pages at once. Redis
// failures are logged and the wrapped store answers instead.
type CachedStore struct {
	next   Store
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedStore(next Store, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStore{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *CachedStore) Save(ctx context.Context, s race.Score) (race.Score, error) {
	saved, err := c.next.Save(ctx, s)
	if err != nil {
		return saved, err
	}
	if err := c.rdb.Incr(ctx, generationKey).Err(); err != nil {
		c.logger.Warn("invalidating leaderboard cache", "error", err)
	}
	return saved, nil
}

func (c *CachedStore) Leaderboard(ctx context.Context, q Query) ([]race.Score, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	key, err := c.key(ctx, q)
	if err != nil {
		c.logger.Warn("reading leaderboard generation", "error", err)
		return c.next.Leaderboard(ctx, q)
	}

	cached, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out []race.Score
		if err := json.Unmarshal(cached, &out); err == nil {
			return out, nil
		}
		c.logger.Warn("discarding corrupt leaderboard cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("reading leaderboard cache", "key", key, "error", err)
		return c.next.Leaderboard(ctx, q)
	}

	out, err := c.next.Leaderboard(ctx, q)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return out, nil
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("writing leaderboard cache", "key", key, "error", err)
	}
	return out, nil
}

func (c *CachedStore) key(ctx context.Context, q Query) (string, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	mode := string(q.Mode)
	if mode == "" {
		mode = "all"
	}
	return fmt.Sprintf("typerace:leaderboard:%d:%s:%s:%d", gen, mode, q.SortBy, q.Limit), nil
}

// RedisChecker reports whether the cache answers a ping. It satisfies the
// health handler's Checker interface.
type RedisChecker struct{ Client *redis.Client }

func (r RedisChecker) Check(ctx context.Context) error { return r.Client.Ping(ctx).Err() }
