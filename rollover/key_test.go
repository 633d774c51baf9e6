package rollover_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"

	"github.com/dskm-project/dskm/evt"
	"github.com/dskm-project/dskm/log"
	"github.com/dskm-project/dskm/model"
	. "github.com/dskm-project/dskm/rollover"
)

var _ = Describe("SigningKey", func() {
	const day = model.SecondsPerDay

	var (
		ctx  context.Context
		hook *log.MockLoggerHook
		host *hostMock
		now  int64

		primary   *SigningKey
		secondary *SigningKey
	)

	BeforeEach(func() {
		entry, h := log.NewMockEntry()
		hook = h
		ctx, _ = log.NewCtx(context.Background(), entry)

		now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).Unix()
		host = newHostMock(now)

		primary = &SigningKey{
			Zone: "example.com", Type: model.KeyTypeKSK, Tag: 1111, Algorithm: 8, Flags: 257,
			Timing: model.Timing{Publish: now - 10*day, Active: now - 10*day, Inactive: now + 350*day, Delete: now + 385*day},
		}
		secondary = &SigningKey{
			Zone: "example.com", Type: model.KeyTypeKSK, Tag: 2222, Algorithm: 8, Flags: 257,
			Timing: model.Timing{Publish: now, Active: now + 350*day, Inactive: now + 710*day, Delete: now + 745*day},
		}
	})

	track := func(kt model.KeyType) *model.TrackStatus {
		return host.tracks[kt]
	}

	Describe("Transition", func() {
		It("should start an idle track unconditionally", func() {
			advanced, err := primary.Transition(ctx, host, false)

			Expect(err).Should(Succeed())
			Expect(advanced).Should(BeTrue())
			Expect(track(model.KeyTypeKSK).State).Should(Equal(0))
			Expect(host.events).Should(ConsistOf(event{
				topic: evt.KeyStateChanged,
				args:  []interface{}{"example.com", model.KeyTypeKSK, uint16(1111), -1, 0},
			}))
		})

		When("the key signs the zone", func() {
			BeforeEach(func() {
				track(model.KeyTypeKSK).State = 0
				track(model.KeyTypeKSK).Retries = 3
				host.On("SignedBy", model.KeyTypeKSK, uint16(1111)).Return(true, nil)
			})

			It("should advance and reset the retries", func() {
				advanced, err := primary.Transition(ctx, host, false)

				Expect(err).Should(Succeed())
				Expect(advanced).Should(BeTrue())
				Expect(*track(model.KeyTypeKSK)).Should(Equal(model.TrackStatus{State: 1}))
				Expect(hook.Messages).Should(ContainElement(
					"State transition of example.com/KSK/1111 from 0 to 1 (KSK1 active) after 3 retries"))
			})

			It("should not be evaluated by the successor", func() {
				advanced, err := secondary.Transition(ctx, host, true)

				Expect(err).Should(Succeed())
				Expect(advanced).Should(BeFalse())
				Expect(*track(model.KeyTypeKSK)).Should(Equal(model.TrackStatus{State: 0, Retries: 3}))
				host.AssertNotCalled(GinkgoT(), "SignedBy", mock.Anything, mock.Anything)
			})
		})

		When("the check fails", func() {
			BeforeEach(func() {
				track(model.KeyTypeZSK).State = 0
				primary.Type = model.KeyTypeZSK
				secondary.Type = model.KeyTypeZSK
				host.On("SignedBy", model.KeyTypeZSK, mock.Anything).Return(false, nil)
			})

			It("should count the retries of the primary only", func() {
				advanced, err := primary.Transition(ctx, host, false)
				Expect(err).Should(Succeed())
				Expect(advanced).Should(BeFalse())
				Expect(track(model.KeyTypeZSK).Retries).Should(Equal(1))

				_, err = secondary.Transition(ctx, host, true)
				Expect(err).Should(Succeed())
				Expect(track(model.KeyTypeZSK).Retries).Should(Equal(1))
				Expect(host.events).Should(BeEmpty())
			})

			It("should warn after the short timeout", func() {
				track(model.KeyTypeZSK).Retries = 5

				_, err := primary.Transition(ctx, host, false)
				Expect(err).Should(Succeed())

				Expect(hook.Messages).Should(ContainElement(
					"Timeout [short] of state transition for example.com/ZSK/1111 at state 0 (ZSK1 created) after 6 retries"))
				Expect(host.topics()).Should(ConsistOf(evt.KeyStateTimeout))
				Expect(track(model.KeyTypeZSK).State).Should(Equal(0))
			})

			It("should not warn before the short timeout", func() {
				track(model.KeyTypeZSK).Retries = 4

				_, err := primary.Transition(ctx, host, false)
				Expect(err).Should(Succeed())

				Expect(host.events).Should(BeEmpty())
			})
		})

		When("the successor must be included", func() {
			BeforeEach(func() {
				primary.Type = model.KeyTypeZSK
				secondary.Type = model.KeyTypeZSK
				track(model.KeyTypeZSK).State = 2
				host.On("SignedBy", model.KeyTypeZSK, uint16(2222)).Return(false, nil)
			})

			It("should count retries of the primary without evaluating the timeout", func() {
				track(model.KeyTypeZSK).Retries = 1000

				advanced, err := primary.Transition(ctx, host, false)
				Expect(err).Should(Succeed())
				Expect(advanced).Should(BeFalse())
				Expect(track(model.KeyTypeZSK).Retries).Should(Equal(1001))
				Expect(host.events).Should(BeEmpty())
				host.AssertNotCalled(GinkgoT(), "SignedBy", mock.Anything, mock.Anything)
			})

			It("should warn the successor after the long timeout", func() {
				// 10 + 35 * 24
				track(model.KeyTypeZSK).Retries = 851

				_, err := secondary.Transition(ctx, host, true)
				Expect(err).Should(Succeed())
				Expect(host.topics()).Should(ConsistOf(evt.KeyStateTimeout))
			})

			It("should not warn the successor within the long timeout", func() {
				track(model.KeyTypeZSK).Retries = 850

				_, err := secondary.Transition(ctx, host, true)
				Expect(err).Should(Succeed())
				Expect(host.events).Should(BeEmpty())
			})
		})

		When("the DS of the first KSK is due", func() {
			BeforeEach(func() {
				track(model.KeyTypeKSK).State = 1
			})

			It("should wait until the prepublish interval passed", func() {
				primary.Timing.Active = now - 6*day

				advanced, err := primary.Transition(ctx, host, false)

				Expect(err).Should(Succeed())
				Expect(advanced).Should(BeFalse())
				Expect(*track(model.KeyTypeKSK)).Should(Equal(model.TrackStatus{State: 1, Retries: 1}))
				host.AssertNotCalled(GinkgoT(), "UpdateRemoteDS", mock.Anything, mock.Anything)
			})

			It("should submit the DS once the prepublish interval passed", func() {
				primary.Timing.Active = now - 7*day
				host.On("UpdateRemoteDS", model.ActivityPublish1, uint16(1111)).Return()

				advanced, err := primary.Transition(ctx, host, false)

				Expect(err).Should(Succeed())
				Expect(advanced).Should(BeTrue())
				Expect(*track(model.KeyTypeKSK)).Should(Equal(model.TrackStatus{State: 2}))
				host.AssertExpectations(GinkgoT())
			})
		})

		It("should create the successor at the followup time", func() {
			track(model.KeyTypeKSK).State = 3
			primary.Timing.Inactive = now + 14*day
			host.On("CreateSuccessor", primary).Return(nil)

			advanced, err := primary.Transition(ctx, host, false)

			Expect(err).Should(Succeed())
			Expect(advanced).Should(BeTrue())
			Expect(track(model.KeyTypeKSK).State).Should(Equal(4))
			host.AssertExpectations(GinkgoT())
		})

		It("should abort if the successor can't be created", func() {
			track(model.KeyTypeKSK).State = 3
			primary.Timing.Inactive = now
			host.On("CreateSuccessor", primary).Return(errors.New("no entropy"))

			advanced, err := primary.Transition(ctx, host, false)

			Expect(err).Should(MatchError("no entropy"))
			Expect(advanced).Should(BeFalse())
			Expect(*track(model.KeyTypeKSK)).Should(Equal(model.TrackStatus{State: 3}))
		})

		It("should publish the DS of the successor once it is included", func() {
			track(model.KeyTypeKSK).State = 4
			host.On("SignedBy", model.KeyTypeKSK, uint16(2222)).Return(true, nil)
			host.On("UpdateRemoteDS", model.ActivityPublish2, uint16(2222)).Return()

			advanced, err := secondary.Transition(ctx, host, true)

			Expect(err).Should(Succeed())
			Expect(advanced).Should(BeTrue())
			Expect(track(model.KeyTypeKSK).State).Should(Equal(5))
			host.AssertExpectations(GinkgoT())
		})

		It("should retire the first DS once the second DS is published", func() {
			track(model.KeyTypeKSK).State = 5
			host.On("ParentDS", uint16(2222)).Return(ParentDSPresent, nil)
			host.On("UpdateRemoteDS", model.ActivityRetire, uint16(2222)).Return()

			advanced, err := secondary.Transition(ctx, host, true)

			Expect(err).Should(Succeed())
			Expect(advanced).Should(BeTrue())
			Expect(track(model.KeyTypeKSK).State).Should(Equal(6))
		})

		DescribeTable("should observe the first DS",
			func(ds ParentDS, advance bool) {
				track(model.KeyTypeKSK).State = 6
				host.On("ParentDS", uint16(1111)).Return(ds, nil)

				advanced, err := primary.Transition(ctx, host, false)

				Expect(err).Should(Succeed())
				Expect(advanced).Should(Equal(advance))
			},
			Entry("still published", ParentDSPresent, false),
			Entry("retracted", ParentDSAbsent, true),
			Entry("without parent", ParentDSNoParent, true),
		)

		It("should warn once the inactive time passed", func() {
			track(model.KeyTypeKSK).State = 7
			primary.Timing.Inactive = now - 5*3600
			host.On("SignedBy", model.KeyTypeKSK, uint16(1111)).Return(true, nil)

			_, err := primary.Transition(ctx, host, false)

			Expect(err).Should(Succeed())
			Expect(host.topics()).Should(ConsistOf(evt.KeyStateTimeout))
		})

		It("should delete the old KSK and start over with the successor", func() {
			track(model.KeyTypeKSK).State = 8
			host.On("MasterHasKey", uint16(1111)).Return(false, nil)
			host.On("MarkForDeletion", uint16(1111)).Return()

			advanced, err := primary.Transition(ctx, host, false)

			Expect(err).Should(Succeed())
			Expect(advanced).Should(BeTrue())
			Expect(track(model.KeyTypeKSK).State).Should(Equal(3))
			host.AssertExpectations(GinkgoT())
		})

		It("should wait while the master serves the old key", func() {
			track(model.KeyTypeKSK).State = 8
			host.On("MasterHasKey", uint16(1111)).Return(true, nil)

			advanced, err := primary.Transition(ctx, host, false)

			Expect(err).Should(Succeed())
			Expect(advanced).Should(BeFalse())
			host.AssertNotCalled(GinkgoT(), "MarkForDeletion", mock.Anything)
		})

		It("should not delete the old key if the master can't be asked", func() {
			track(model.KeyTypeKSK).State = 8
			host.On("MasterHasKey", uint16(1111)).Return(false, errors.New("SERVFAIL"))

			advanced, err := primary.Transition(ctx, host, false)

			Expect(err).Should(MatchError("SERVFAIL"))
			Expect(advanced).Should(BeFalse())
			Expect(track(model.KeyTypeKSK).State).Should(Equal(8))
			host.AssertNotCalled(GinkgoT(), "MarkForDeletion", mock.Anything)
		})

		It("should not delete any key if a key with tag 0 is done", func() {
			zero := &SigningKey{Zone: "example.com", Type: model.KeyTypeKSK, Tag: 0}
			track(model.KeyTypeKSK).State = 8
			host.On("MasterHasKey", uint16(0)).Return(false, nil)
			host.On("MarkForDeletion", uint16(0)).Return()

			advanced, err := zero.Transition(ctx, host, false)

			Expect(err).Should(Succeed())
			Expect(advanced).Should(BeTrue())
			host.AssertNotCalled(GinkgoT(), "MarkAllForDeletion")
		})

		It("should set the delete time after the DS were retracted", func() {
			track(model.KeyTypeKSK).State = 9
			host.On("ParentDS", uint16(1111)).Return(ParentDSAbsent, nil)
			host.On("SaveTiming", primary).Return(nil)

			advanced, err := primary.Transition(ctx, host, false)

			Expect(err).Should(Succeed())
			Expect(advanced).Should(BeTrue())
			Expect(track(model.KeyTypeKSK).State).Should(Equal(10))
			Expect(primary.Timing.Delete).Should(Equal(now + 35*day))
		})

		It("should wipe the zone once the delete time passed", func() {
			track(model.KeyTypeKSK).State = 10
			primary.Timing.Delete = now - 7*day
			host.On("MarkAllForDeletion").Return()

			advanced, err := primary.Transition(ctx, host, false)

			Expect(err).Should(Succeed())
			Expect(advanced).Should(BeTrue())
			Expect(track(model.KeyTypeKSK).State).Should(Equal(StateIdle))
			host.AssertExpectations(GinkgoT())
		})

		It("should propagate lookup errors without counting a retry", func() {
			track(model.KeyTypeKSK).State = 2
			host.On("ParentDS", uint16(1111)).Return(ParentDSAbsent, errors.New("NXDOMAIN"))

			advanced, err := primary.Transition(ctx, host, false)

			Expect(err).Should(MatchError("NXDOMAIN"))
			Expect(advanced).Should(BeFalse())
			Expect(*track(model.KeyTypeKSK)).Should(Equal(model.TrackStatus{State: 2}))
		})

		It("should refuse unknown states", func() {
			track(model.KeyTypeKSK).State = 11

			_, err := primary.Transition(ctx, host, false)

			Expect(err).Should(MatchError(ErrInvalidState))
		})
	})

	Describe("Milestone", func() {
		DescribeTable("should compute the milestones",
			func(kt model.KeyType, name string, expected func(k *SigningKey) int64) {
				primary.Type = kt

				ts, err := primary.Milestone(host, name)

				Expect(err).Should(Succeed())
				Expect(ts).Should(Equal(expected(primary)))
			},
			Entry("zsk followup", model.KeyTypeZSK, "zsk1_followup",
				func(k *SigningKey) int64 { return k.Timing.Inactive - 5*day }),
			Entry("ksk followup", model.KeyTypeKSK, "ksk1_followup",
				func(k *SigningKey) int64 { return k.Timing.Inactive - 14*day }),
			Entry("inactive", model.KeyTypeKSK, "ksk1_inactive",
				func(k *SigningKey) int64 { return k.Timing.Inactive }),
			Entry("delete", model.KeyTypeZSK, "zsk1_delete",
				func(k *SigningKey) int64 { return k.Timing.Delete + 5*3600 }),
			Entry("ds submit", model.KeyTypeKSK, "ds2_submit",
				func(k *SigningKey) int64 { return k.Timing.Active + 7*day }),
			Entry("ksk delete", model.KeyTypeKSK, "ksk_delete",
				func(k *SigningKey) int64 { return k.Timing.Delete + 7*day }),
		)

		It("should refuse unknown milestones", func() {
			_, err := primary.Milestone(host, "never")

			Expect(err).Should(MatchError(ContainSubstring("unknown milestone")))
		})
	})
})
