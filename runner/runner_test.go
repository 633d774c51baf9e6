package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/miekg/dns"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"

	"github.com/dskm-project/dskm/config"
	"github.com/dskm-project/dskm/evt"
	. "github.com/dskm-project/dskm/helpertest"
	"github.com/dskm-project/dskm/lock"
	"github.com/dskm-project/dskm/model"
	"github.com/dskm-project/dskm/registrar"
	. "github.com/dskm-project/dskm/runner"
	"github.com/dskm-project/dskm/zone"
)

var _ = Describe("Runner", func() {
	var (
		ctx        context.Context
		tmpDir     *TmpFolder
		cfg        *config.Config
		locker     *fakeLocker
		sender     *recordingSender
		local      *mockRegistrar
		joker      *mockRegistrar
		registrars *fakeRegistrars
		sut        *Runner
	)

	BeforeEach(func() {
		ctx = context.Background()

		tmpDir = NewTmpFolder("runner")
		Expect(tmpDir.Error).Should(Succeed())
		DeferCleanup(tmpDir.Clean)

		var err error
		cfg, err = config.DefaultConfig()
		Expect(err).Should(Succeed())

		cfg.Root = tmpDir.Path
		cfg.Keys.AlgorithmNSEC = config.Algorithm(dns.ECDSAP256SHA256)
		cfg.Keys.AlgorithmNSEC3 = config.Algorithm(dns.ECDSAP256SHA256)
		cfg.Mail = config.Mail{Host: "smtp.example.net", Port: 25, Recipients: []string{"hostmaster@example.net"}}
		cfg.Metrics.Textfile = tmpDir.JoinPath("dskm.prom")

		locker = &fakeLocker{}
		sender = &recordingSender{}
		local = &mockRegistrar{name: config.RegistrarLocal}
		joker = &mockRegistrar{name: "joker"}
		registrars = newFakeRegistrars(local, joker)
	})

	JustBeforeEach(func() {
		var err error
		sut, err = New(cfg,
			WithResolvers(silentResolvers{}),
			WithRegistrars(registrars),
			WithSender(sender),
			WithLocker(locker),
			WithClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }),
		)
		Expect(err).Should(Succeed())
	})

	createZone := func(name, conf string) *TmpFolder {
		dir := tmpDir.CreateSubFolder(name)
		Expect(dir.Error).Should(Succeed())

		if conf != "" {
			Expect(os.WriteFile(dir.JoinPath("dnssec-conf-"+name), []byte(conf), 0o644)).Should(Succeed())
		}

		return dir
	}

	readStatus := func(dir *TmpFolder, name string) zone.Status {
		var st zone.Status
		Expect(json.Unmarshal([]byte(dir.ReadFile("dnssec-stat-"+name)), &st)).Should(Succeed())

		return st
	}

	Describe("ZoneNames", func() {
		It("should list zone directories, longest name first", func() {
			createZone("example.com", "")
			createZone("sub.example.com", "")
			createZone("a.org", "")
			createZone("b.org", "")
			tmpDir.CreateSubFolder(".hidden")
			tmpDir.CreateStringFile("some.file", "content")

			Expect(sut.ZoneNames(ctx)).Should(Equal([]string{"sub.example.com", "example.com", "a.org", "b.org"}))
		})

		When("the root doesn't exist", func() {
			BeforeEach(func() {
				cfg.Root = tmpDir.JoinPath("missing")
			})

			It("should create it", func() {
				Expect(sut.ZoneNames(ctx)).Should(BeEmpty())

				st, err := os.Stat(cfg.Root)
				Expect(err).Should(Succeed())
				Expect(st.IsDir()).Should(BeTrue())
			})
		})
	})

	Describe("Run", func() {
		var (
			signed   *TmpFolder
			unsigned *TmpFolder
			finished []int
		)

		BeforeEach(func() {
			signed = createZone("example.com", `{"method": "NSEC3", "registrar": "Local"}`)
			unsigned = createZone("sub.example.com", "")
			createZone("broken.org", `{"method": "NSEC3", "registrar": "nowhere"}`)
		})

		JustBeforeEach(func() {
			finished = nil

			Expect(sut.Bus().Subscribe(evt.RunFinished, func(zones, aborted int) {
				finished = []int{zones, aborted}
			})).Should(Succeed())
		})

		It("should process all zones and report the aborted ones", func() {
			err := sut.Run(ctx, false)

			Expect(err).Should(HaveOccurred())
			Expect(err.Error()).Should(ContainSubstring("broken.org"))
			Expect(err.Error()).ShouldNot(ContainSubstring("example.com"))

			var abortErr *zone.AbortError
			Expect(errors.As(err, &abortErr)).Should(BeTrue())
			Expect(abortErr.Zone).Should(Equal("broken.org"))

			Expect(readStatus(signed, "example.com").KSK.State).Should(Equal(0))
			Expect(signed.Glob("K*.key")).Should(HaveLen(2))
			Expect(unsigned.ReadFile("dnssec-conf-sub.example.com")).Should(ContainSubstring(`"unsigned"`))

			Expect(finished).Should(Equal([]int{3, 1}))
			Expect(locker.acquired).Should(Equal(1))
			Expect(locker.released).Should(Equal(1))
		})

		It("should write the metrics textfile", func() {
			_ = sut.Run(ctx, false)

			Expect(tmpDir.ReadFile("dskm.prom")).Should(SatisfyAll(
				ContainSubstring("dskm_zones 3"),
				ContainSubstring("dskm_zones_aborted 1"),
				ContainSubstring(`dskm_keys_created_total{type="KSK"} 1`),
			))
		})

		It("should not mail outside of cron mode", func() {
			_ = sut.Run(ctx, false)

			Expect(sender.mails).Should(BeEmpty())
		})

		It("should mail the summary in cron mode", func() {
			_ = sut.Run(ctx, true)

			Expect(sender.mails).Should(HaveLen(1))
			Expect(sender.mails[0].to).Should(Equal(cfg.Mail.Recipients))
			Expect(sender.mails[0].subject).Should(HavePrefix("[dskm"))
			Expect(sender.mails[0].subject).Should(ContainSubstring("broken.org"))
			Expect(sender.mails[0].body).Should(ContainSubstring("Skipping zone broken.org"))
		})

		When("mail is not configured", func() {
			BeforeEach(func() {
				cfg.Mail = config.Mail{}
			})

			It("should not mail in cron mode", func() {
				_ = sut.Run(ctx, true)

				Expect(sender.mails).Should(BeEmpty())
			})
		})

		When("another run holds the lock", func() {
			BeforeEach(func() {
				locker.acquireErr = lock.ErrLocked
			})

			It("should not touch any zone", func() {
				err := sut.Run(ctx, false)

				Expect(err).Should(MatchError(lock.ErrLocked))
				Expect(signed.Exists("dnssec-stat-example.com")).Should(BeFalse())
				Expect(locker.released).Should(Equal(0))
			})
		})
	})

	Describe("StopSigning", func() {
		var (
			dir *TmpFolder
			out *bytes.Buffer
		)

		BeforeEach(func() {
			out = new(bytes.Buffer)
			dir = createZone("example.com", `{"method": "NSEC3", "registrar": "Local"}`)
		})

		JustBeforeEach(func() {
			Expect(sut.Run(ctx, false)).Should(Succeed())
		})

		It("should refuse zones which aren't managed", func() {
			code, err := sut.StopSigning(ctx, "example.org", false, out)

			Expect(err).Should(MatchError(ErrNotManaged))
			Expect(code).Should(Equal(1))
		})

		It("should refuse to stop before the DS was submitted", func() {
			code, err := sut.StopSigning(ctx, "example.com", false, out)

			Expect(err).Should(MatchError(zone.ErrStopTooEarly))
			Expect(code).Should(Equal(1))
		})

		It("should remove all keys with force", func() {
			local.On("RemoveAllDS", "example.com").Return(&registrar.Result{TrackingID: "local", Success: true}, nil)

			code, err := sut.StopSigning(ctx, "example.com", true, out)

			Expect(err).Should(Succeed())
			Expect(code).Should(Equal(0))
			Expect(dir.Glob("K*")).Should(BeEmpty())
			Expect(readStatus(dir, "example.com").SubmittedToParent).Should(BeEmpty())
			Expect(out.String()).Should(ContainSubstring("dnssec-secure-to-insecure"))
			local.AssertExpectations(GinkgoT())
		})

		It("should accept unsigned zones", func() {
			createZone("unsigned.example.com", "")

			code, err := sut.StopSigning(ctx, "unsigned.example.com", false, out)

			Expect(err).Should(Succeed())
			Expect(code).Should(Equal(0))
		})
	})

	When("signing of a zone hasn't started yet", func() {
		var (
			dir *TmpFolder
			out *bytes.Buffer
		)

		BeforeEach(func() {
			out = new(bytes.Buffer)
			dir = createZone("example.com", `{"method": "NSEC3", "registrar": "Local"}`)
		})

		It("should refuse to stop signing without creating keys", func() {
			code, err := sut.StopSigning(ctx, "example.com", false, out)

			Expect(err).Should(MatchError(zone.ErrStopTooEarly))
			Expect(code).Should(Equal(1))
			Expect(dir.Glob("K*")).Should(BeEmpty())
		})

		It("should test the DS submission without creating keys", func() {
			Expect(sut.TestDSSubmission(ctx, true)).Should(Succeed())
			Expect(dir.Glob("K*")).Should(BeEmpty())
		})
	})

	Describe("registrar administration", func() {
		var out *bytes.Buffer

		BeforeEach(func() {
			out = new(bytes.Buffer)
		})

		It("should print the job list of the registrars", func() {
			joker.On("ListPending", "").Return(&registrar.Result{
				Success: true,
				Lines:   []string{"20240101 abc-123 42 domain-modify example.com ack"},
			}, nil)

			Expect(sut.RegistrarStatus(ctx, out)).Should(Succeed())
			Expect(out.String()).Should(ContainSubstring("[joker]"))
			Expect(out.String()).Should(ContainSubstring("abc-123"))
		})

		It("should print the fields of a job sorted by name", func() {
			joker.On("ListPending", "abc-123").Return(&registrar.Result{
				Success: true,
				Fields:  map[string]string{"Completion-Status": "ack", "Proc-Id": "42"},
			}, nil)

			Expect(sut.QueryStatus(ctx, "abc-123", out)).Should(Succeed())
			Expect(out.String()).Should(Equal("[joker]\nCompletion-Status:\tack\nProc-Id:\t42\n"))
		})

		It("should purge the completion info", func() {
			joker.On("DeleteResult", "").Return(nil)

			Expect(sut.Purge(ctx)).Should(Succeed())
			joker.AssertExpectations(GinkgoT())
		})

		It("should skip registrars without job introspection", func() {
			joker.On("DeleteResult", "").Return(registrar.ErrNotSupported)

			Expect(sut.Purge(ctx)).Should(Succeed())
		})

		It("should report failing registrars", func() {
			joker.On("ListPending", "").Return(nil, registrar.ErrRequestFailed)

			Expect(sut.RegistrarStatus(ctx, out)).Should(MatchError(registrar.ErrRequestFailed))
		})
	})

	Describe("TestDSSubmission", func() {
		BeforeEach(func() {
			dir := createZone("example.com", `{"method": "NSEC3", "registrar": "joker"}`)
			cfg.Registrars = map[string]config.Registrar{"joker": {Type: config.RegistrarTypeDmapi}}

			st := zone.DefaultStatus()
			st.KSK = model.TrackStatus{State: 5}
			st.OldMethod = model.MethodNSEC3
			st.OldRegistrar = "joker"
			raw, err := json.Marshal(st)
			Expect(err).Should(Succeed())
			Expect(os.WriteFile(dir.JoinPath("dnssec-stat-example.com"), raw, 0o644)).Should(Succeed())
		})

		It("should not submit anything without submitted keys", func() {
			Expect(sut.TestDSSubmission(ctx, false)).Should(Succeed())
			joker.AssertNotCalled(GinkgoT(), "SubmitDS", mock.Anything, mock.Anything)
		})
	})
})
