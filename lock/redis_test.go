package lock_test

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/creasty/defaults"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dskm-project/dskm/config"
	. "github.com/dskm-project/dskm/lock"
)

var _ = Describe("RedisLock", func() {
	var (
		redisServer *miniredis.Miniredis
		redisConfig config.Redis
		ctx         context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error

		redisServer, err = miniredis.Run()
		Expect(err).Should(Succeed())
		DeferCleanup(redisServer.Close)

		redisConfig = config.Redis{}
		Expect(defaults.Set(&redisConfig)).Should(Succeed())
		redisConfig.Address = redisServer.Addr()
		redisConfig.ConnectionCooldown = config.Duration(time.Millisecond)
	})

	newLock := func() *RedisLock {
		l, err := NewRedisLock(&redisConfig, "dskm:run", time.Hour)
		Expect(err).Should(Succeed())
		DeferCleanup(l.Close)

		return l
	}

	It("should be exclusive until released", func() {
		first := newLock()
		second := newLock()

		Expect(first.Acquire(ctx)).Should(Succeed())
		Expect(redisServer.Exists("dskm:run")).Should(BeTrue())
		Expect(redisServer.TTL("dskm:run")).Should(Equal(time.Hour))

		Expect(second.Acquire(ctx)).Should(MatchError(ErrLocked))

		Expect(first.Release(ctx)).Should(Succeed())
		Expect(redisServer.Exists("dskm:run")).Should(BeFalse())

		Expect(second.Acquire(ctx)).Should(Succeed())
	})

	It("should not release a lock taken over by another run", func() {
		first := newLock()
		Expect(first.Acquire(ctx)).Should(Succeed())

		redisServer.FastForward(2 * time.Hour)

		second := newLock()
		Expect(second.Acquire(ctx)).Should(Succeed())

		Expect(first.Release(ctx)).Should(Succeed())
		Expect(redisServer.Exists("dskm:run")).Should(BeTrue())
	})

	It("should fail for unreachable servers", func() {
		redisConfig.Address = "127.0.0.1:1"
		redisConfig.ConnectionAttempts = 1

		_, err := NewRedisLock(&redisConfig, "dskm:run", time.Hour)
		Expect(err).Should(HaveOccurred())
	})

	It("should fail with wrong password", func() {
		redisServer.RequireAuth("secret")
		redisConfig.Password = "wrong"

		_, err := NewRedisLock(&redisConfig, "dskm:run", time.Hour)
		Expect(err).Should(HaveOccurred())
	})
})

var _ = Describe("New", func() {
	It("should use the file lock without redis", func() {
		cfg, err := config.DefaultConfig()
		Expect(err).Should(Succeed())

		l, err := New(cfg)
		Expect(err).Should(Succeed())
		Expect(l).Should(BeAssignableToTypeOf(&FileLock{}))
	})
})
