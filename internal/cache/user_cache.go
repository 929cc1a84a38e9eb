package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	dom "Gatekeeper/internal/domain"
	"Gatekeeper/internal/repo"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyUserByID = "user:id:"

// kvGetSetter is the slice of the Redis client the cache needs. Tests stand
// in for it; *redis.Client satisfies it as-is.
type kvGetSetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// UserCache is a read-through Redis cache of user records keyed by id.
// Identity resolution runs on every request, so cache hits keep Postgres out
// of the hot path. User records are never updated or deleted by this service,
// so the only invalidation is the TTL. Concurrent misses for the same id are
// collapsed into one repo lookup via singleflight.
type UserCache struct {
	rdb  kvGetSetter
	repo repo.UserRepo
	ttl  time.Duration
	sf   singleflight.Group
}

// NewUserCache returns a UserCache. If rdb is nil, every lookup goes straight
// to the repo (caching disabled).
func NewUserCache(rdb *redis.Client, r repo.UserRepo, ttl time.Duration) *UserCache {
	c := &UserCache{repo: r, ttl: ttl}
	if rdb != nil {
		c.rdb = rdb
	}
	return c
}

// GetByID returns the user by id, from cache when possible.
// Absence (repo.ErrUserNotFound) is passed through uncached.
func (c *UserCache) GetByID(ctx context.Context, id int64) (dom.User, error) {
	if c.rdb == nil {
		return c.repo.GetByID(ctx, id)
	}

	key := keyUserByID + strconv.FormatInt(id, 10)
	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if u, ok := c.get(ctx, key); ok {
			return u, nil
		}
		u, err := c.repo.GetByID(ctx, id)
		if err != nil {
			return dom.User{}, err
		}
		c.set(ctx, key, u)
		return u, nil
	})
	if err != nil {
		return dom.User{}, err
	}
	return v.(dom.User), nil
}

func (c *UserCache) get(ctx context.Context, key string) (dom.User, bool) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil and transport errors are both a miss; the repo is authoritative.
		return dom.User{}, false
	}
	var u dom.User
	if err := json.Unmarshal(b, &u); err != nil {
		return dom.User{}, false
	}
	return u, true
}

func (c *UserCache) set(ctx context.Context, key string, u dom.User) {
	b, err := json.Marshal(u)
	if err != nil {
		return
	}
	// Best effort: a failed write just means the next request misses again.
	_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
}
