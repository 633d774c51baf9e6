package util

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dskm-project/dskm/helpertest"
)

var _ = Describe("WriteFileAtomic", func() {
	var tmpDir *helpertest.TmpFolder

	BeforeEach(func() {
		tmpDir = helpertest.NewTmpFolder("util")
		Expect(tmpDir.Error).Should(Succeed())
		DeferCleanup(tmpDir.Clean)
	})

	It("should replace the content without leaving temporary files", func() {
		f := tmpDir.CreateStringFile("doc", "old")
		Expect(f.Error).Should(Succeed())

		Expect(WriteFileAtomic(f.Path, []byte("new"), 0o640)).Should(Succeed())

		Expect(tmpDir.ReadFile("doc")).Should(Equal("new"))
		Expect(tmpDir.CountFiles()).Should(Equal(1))

		st, err := os.Stat(f.Path)
		Expect(err).Should(Succeed())
		Expect(st.Mode().Perm()).Should(Equal(os.FileMode(0o640)))
	})

	It("should fail if the directory doesn't exist", func() {
		err := WriteFileAtomic(filepath.Join(tmpDir.Path, "missing", "doc"), []byte("x"), 0o600)

		Expect(err).Should(HaveOccurred())
	})
})
