// Package lock makes sure only one run processes the zones at a time.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/dskm-project/dskm/config"
)

// ErrLocked is returned if another run holds the lock
var ErrLocked = errors.New("another run holds the lock")

// Locker guards a run
type Locker interface {
	// Acquire takes the lock or returns ErrLocked
	Acquire(ctx context.Context) error
	// Release gives the lock back, releasing a lock which isn't held is a no-op
	Release(ctx context.Context) error
}

// New returns the redis lock if redis is configured, the file lock otherwise
func New(cfg *config.Config) (Locker, error) {
	if cfg.Lock.Redis.IsEnabled() {
		return NewRedisLock(&cfg.Lock.Redis, cfg.Lock.Key, cfg.Lock.TTL.ToDuration())
	}

	return NewFileLock(cfg.LockFile(), cfg.Lock.TTL.ToDuration()), nil
}

func isStale(created time.Time, ttl time.Duration) bool {
	return ttl > 0 && time.Since(created) > ttl
}
