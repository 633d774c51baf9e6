package lock_test

import (
	"context"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/dskm-project/dskm/helpertest"
	. "github.com/dskm-project/dskm/lock"
)

var _ = Describe("FileLock", func() {
	var (
		tmpDir *TmpFolder
		path   string
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()

		tmpDir = NewTmpFolder("lock")
		Expect(tmpDir.Error).Should(Succeed())
		DeferCleanup(tmpDir.Clean)

		path = tmpDir.JoinPath(".dskm.lock")
	})

	It("should be exclusive until released", func() {
		first := NewFileLock(path, time.Hour)
		second := NewFileLock(path, time.Hour)

		Expect(first.Acquire(ctx)).Should(Succeed())
		Expect(tmpDir.Exists(".dskm.lock")).Should(BeTrue())

		Expect(second.Acquire(ctx)).Should(MatchError(ErrLocked))
		Expect(second.Release(ctx)).Should(Succeed())
		Expect(tmpDir.Exists(".dskm.lock")).Should(BeTrue())

		Expect(first.Release(ctx)).Should(Succeed())
		Expect(tmpDir.Exists(".dskm.lock")).Should(BeFalse())

		Expect(second.Acquire(ctx)).Should(Succeed())
		Expect(second.Release(ctx)).Should(Succeed())
	})

	It("should replace stale lock files", func() {
		Expect(os.WriteFile(path, []byte("1\n"), 0o600)).Should(Succeed())

		old := time.Now().Add(-2 * time.Hour)
		Expect(os.Chtimes(path, old, old)).Should(Succeed())

		sut := NewFileLock(path, time.Hour)

		Expect(sut.Acquire(ctx)).Should(Succeed())
		Expect(tmpDir.ReadFile(".dskm.lock")).ShouldNot(Equal("1\n"))
	})

	It("should fail if the directory is missing", func() {
		sut := NewFileLock(tmpDir.JoinPath("missing/.dskm.lock"), time.Hour)

		err := sut.Acquire(ctx)
		Expect(err).Should(HaveOccurred())
		Expect(err).ShouldNot(MatchError(ErrLocked))
	})
})
