package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dskm-project/dskm/log"
)

const lockFileMode = 0o600

// FileLock is an exclusively created file. A lock file older than the ttl is left by a crashed
// run and gets replaced.
type FileLock struct {
	path string
	ttl  time.Duration
	held bool
}

// NewFileLock creates the lock of the file
func NewFileLock(path string, ttl time.Duration) *FileLock {
	return &FileLock{path: path, ttl: ttl}
}

// Acquire implements `Locker`.
func (l *FileLock) Acquire(ctx context.Context) error {
	err := l.create()
	if !errors.Is(err, os.ErrExist) {
		return err
	}

	st, statErr := os.Stat(l.path)
	if statErr != nil || !isStale(st.ModTime(), l.ttl) {
		return fmt.Errorf("%w (%s)", ErrLocked, l.path)
	}

	log.FromCtx(ctx).WithField("prefix", "lock").Warnf("removing stale lock file %s of %s",
		l.path, st.ModTime().Format(time.RFC3339))

	if err := os.Remove(l.path); err != nil {
		return fmt.Errorf("can't remove stale lock file: %w", err)
	}

	if err := l.create(); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w (%s)", ErrLocked, l.path)
		}

		return err
	}

	return nil
}

func (l *FileLock) create() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, lockFileMode)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(f, "%d\n", os.Getpid())

	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return fmt.Errorf("can't write lock file: %w", err)
	}

	l.held = true

	return nil
}

// Release implements `Locker`.
func (l *FileLock) Release(context.Context) error {
	if !l.held {
		return nil
	}

	l.held = false

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("can't remove lock file: %w", err)
	}

	return nil
}
