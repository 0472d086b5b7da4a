package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/oggyb/spark/internal/config"
)

// CountTTL is how long cached counters live without being touched.
const CountTTL = time.Hour

// ErrLockTimeout is returned when a pair lock could not be taken before the context expired.
var ErrLockTimeout = errors.New("timed out waiting for lock")

const lockRetryInterval = 10 * time.Millisecond

// releaseScript deletes the lock only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForUnreadNotifications generates Redis key for a user's unread notification count
func (c *RedisCache) KeyForUnreadNotifications(userID string) string {
	return fmt.Sprintf("notifications:unread:%s", userID)
}

// KeyForPairLock generates the lock key for an unordered user pair.
func (c *RedisCache) KeyForPairLock(pairKey string) string {
	return "lock:pair:" + pairKey
}

// GetCount reads a cached counter. ok is false on a cache miss or a corrupt value.
// A hit refreshes the TTL.
func (c *RedisCache) GetCount(ctx context.Context, key string) (n int64, ok bool, err error) {
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, perr := strconv.ParseInt(val, 10, 64)
	if perr != nil {
		return 0, false, nil
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, CountTTL).Err()
	return n, true, nil
}

// SetCount stores a counter with CountTTL.
func (c *RedisCache) SetCount(ctx context.Context, key string, n int64) error {
	return c.Client.Set(ctx, key, n, CountTTL).Err()
}

// CountVersion returns the generation of a cached counter. Read it before
// loading the value that will be cached, then pass it to SetCountIfVersion.
func (c *RedisCache) CountVersion(ctx context.Context, key string) (int64, error) {
	v, err := c.Client.Get(ctx, versionKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// InvalidateCount drops a cached counter and bumps its generation so that
// in-flight fills started before the invalidation are discarded.
func (c *RedisCache) InvalidateCount(ctx context.Context, key string) error {
	_, err := c.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, versionKey(key))
		p.Del(ctx, key)
		return nil
	})
	return err
}

// SetCountIfVersion stores n with CountTTL only while the counter is still at
// version. It reports whether the value was written.
func (c *RedisCache) SetCountIfVersion(ctx context.Context, key string, version, n int64) (bool, error) {
	vkey := versionKey(key)
	stale := false

	err := c.Client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			stale = true
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, n, CountTTL)
			return nil
		})
		return err
	}, vkey)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !stale, nil
}

func versionKey(key string) string { return key + ":v" }

// Lock takes an exclusive lock on key, retrying until ctx is done.
// The lock expires after ttl even if unlock is never called.
func (c *RedisCache) Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error) {
	token := uuid.NewString()

	for {
		ok, err := c.Client.SetNX(ctx, key, token, ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrLockTimeout, key, ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}

	return func() {
		// release with a fresh context so a cancelled request still frees the lock
		rctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, c.Client, []string{key}, token).Err()
	}, nil
}
