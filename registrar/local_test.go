package registrar_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/dskm-project/dskm/helpertest"
	"github.com/dskm-project/dskm/model"
	. "github.com/dskm-project/dskm/registrar"
)

var _ = Describe("Local", func() {
	var (
		tmpDir *TmpFolder
		sut    *Local
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()

		tmpDir = NewTmpFolder("local")
		Expect(tmpDir.Error).Should(Succeed())
		DeferCleanup(tmpDir.Clean)

		sut = NewLocal(tmpDir.Path)
	})

	It("should be named Local", func() {
		Expect(sut.Name()).Should(Equal("Local"))
	})

	When("the parent is managed here", func() {
		var parentDir *TmpFolder

		BeforeEach(func() {
			parentDir = tmpDir.CreateSubFolder("com")
			Expect(parentDir.Error).Should(Succeed())
		})

		It("should write the DS records into the parent directory", func() {
			res, err := sut.SubmitDS(ctx, "example.com", dsArgs())
			Expect(err).Should(Succeed())
			Expect(res.Success).Should(BeTrue())
			Expect(sut.File("example.com")).Should(Equal(parentDir.JoinPath("example.com.ds")))

			content := parentDir.ReadFile("example.com.ds")
			Expect(content).Should(ContainSubstring("example.com.\t3600\tIN\tDS\t12345 13 2 3490A6806D47F17A"))
			Expect(content).Should(ContainSubstring("example.com.\t3600\tIN\tDS\t12345 13 4 72D7B629"))
		})

		It("should empty the DS file on removal", func() {
			_, err := sut.SubmitDS(ctx, "example.com", dsArgs())
			Expect(err).Should(Succeed())

			res, err := sut.RemoveAllDS(ctx, "example.com")
			Expect(err).Should(Succeed())
			Expect(res.Success).Should(BeTrue())

			Expect(parentDir.ReadFile("example.com.ds")).Should(BeEmpty())
		})
	})

	It("should do nothing without local parent", func() {
		res, err := sut.SubmitDS(ctx, "example.org", dsArgs())
		Expect(err).Should(Succeed())
		Expect(res.Success).Should(BeTrue())

		Expect(sut.File("example.org")).Should(BeEmpty())
		Expect(tmpDir.CountFiles()).Should(Equal(0))
	})

	It("should refuse malformed arguments", func() {
		args := dsArgs()
		args[1].Digest = " "

		_, err := sut.SubmitDS(ctx, "example.com", args)
		Expect(err).Should(MatchError(model.ErrMalformedDSArg))
	})

	It("should not support job introspection", func() {
		_, err := sut.ListPending(ctx, "")
		Expect(err).Should(MatchError(ErrNotSupported))
		Expect(sut.DeleteResult(ctx, "")).Should(MatchError(ErrNotSupported))
	})
})
