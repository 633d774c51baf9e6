package rollover_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dskm-project/dskm/model"
	. "github.com/dskm-project/dskm/rollover"
)

var _ = Describe("Table", func() {
	It("should contain the KSK rollover and the roll back to unsigned", func() {
		table := Table(model.KeyTypeKSK)

		Expect(table).Should(HaveLen(11))
		Expect(table[KSKStateMax].Label).Should(Equal("KSK1 inactive"))
		Expect(table[KSKStateMax].NextState(KSKStateMax)).Should(Equal(3))
		Expect(table[len(table)-1].NextState(len(table) - 1)).Should(Equal(StateIdle))
	})

	It("should loop the ZSK rollover back to the active state", func() {
		table := Table(model.KeyTypeZSK)

		Expect(table).Should(HaveLen(ZSKStateMax + 1))
		Expect(table[ZSKStateMax].NextState(ZSKStateMax)).Should(Equal(1))
		Expect(table[0].NextState(0)).Should(Equal(1))
	})

	It("should name every state and check argument", func() {
		for _, kt := range []model.KeyType{model.KeyTypeKSK, model.KeyTypeZSK} {
			for _, row := range Table(kt) {
				Expect(row.Label).ShouldNot(BeEmpty())
				Expect(row.CheckArg).ShouldNot(BeEmpty())
			}
		}
	})

	DescribeTable("StateLabel",
		func(kt model.KeyType, state int, expected string) {
			Expect(StateLabel(kt, state)).Should(Equal(expected))
		},
		Entry("idle", model.KeyTypeKSK, -1, "idle"),
		Entry("ksk", model.KeyTypeKSK, 2, "DS1 submitted"),
		Entry("zsk", model.KeyTypeZSK, 4, "ZSK1 inactive"),
		Entry("invalid", model.KeyTypeZSK, 5, "invalid state 5"),
	)
})
