package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/dskm-project/dskm/config"
	"github.com/dskm-project/dskm/log"
)

// releaseScript deletes the key only if it still holds the token of this run
//
//nolint:gochecknoglobals
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is a key with expiry, shared by all hosts running against the same zones
type RedisLock struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	token  string
}

// NewRedisLock connects to redis, directly or through the sentinels
func NewRedisLock(cfg *config.Redis, key string, ttl time.Duration) (*RedisLock, error) {
	if !cfg.IsEnabled() {
		return nil, errors.New("no redis address configured")
	}

	var rdb redis.UniversalClient

	if len(cfg.SentinelAddresses) > 0 {
		rdb = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       cfg.Address,
			SentinelPassword: cfg.SentinelPassword,
			SentinelAddrs:    cfg.SentinelAddresses,
			Username:         cfg.Username,
			Password:         cfg.Password,
			DB:               cfg.Database,
			MaxRetries:       cfg.ConnectionAttempts,
			MaxRetryBackoff:  cfg.ConnectionCooldown.ToDuration(),
		})
	} else {
		rdb = redis.NewClient(&redis.Options{
			Addr:            cfg.Address,
			Username:        cfg.Username,
			Password:        cfg.Password,
			DB:              cfg.Database,
			MaxRetries:      cfg.ConnectionAttempts,
			MaxRetryBackoff: cfg.ConnectionCooldown.ToDuration(),
		})
	}

	ctx := context.Background()

	var err error

	for attempt := 1; attempt <= cfg.ConnectionAttempts; attempt++ {
		err = rdb.Ping(ctx).Err()
		if err == nil {
			return &RedisLock{client: rdb, key: key, ttl: ttl}, nil
		}

		time.Sleep(cfg.ConnectionCooldown.ToDuration())
	}

	_ = rdb.Close()

	return nil, fmt.Errorf("can't connect to redis: %w", err)
}

// Acquire implements `Locker`.
func (l *RedisLock) Acquire(ctx context.Context) error {
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("can't acquire lock %s: %w", l.key, err)
	}

	if !ok {
		return fmt.Errorf("%w (%s)", ErrLocked, l.key)
	}

	l.token = token

	log.FromCtx(ctx).WithField("prefix", "lock").Debugf("acquired %s", l.key)

	return nil
}

// Release implements `Locker`.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}

	token := l.token
	l.token = ""

	if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
		return fmt.Errorf("can't release lock %s: %w", l.key, err)
	}

	return nil
}

// Close closes the connection to redis
func (l *RedisLock) Close() error {
	return l.client.Close()
}
