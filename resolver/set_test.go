package resolver

import (
	"context"

	"github.com/miekg/dns"

	"github.com/dskm-project/dskm/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Set", func() {
	var (
		ctx    context.Context
		master *MockDNSServer
		cfg    config.Servers
		sut    *Set
	)

	BeforeEach(func() {
		ctx = context.Background()

		master = NewMockDNSServer()
		DeferCleanup(master.Close)

		c, err := config.DefaultConfig()
		Expect(err).Should(Succeed())

		cfg = c.Servers
		cfg.Timeout = config.Duration(1e9)
	})

	JustBeforeEach(func() {
		cfg.Master = []config.NameServer{master.Start()}

		var err error
		sut, err = NewSet(&cfg)
		Expect(err).Should(Succeed())
	})

	Describe("CheckServer", func() {
		BeforeEach(func() {
			cfg.PublicSecondary = config.NameServer{Host: "192.0.2.53", Port: 53}
		})

		It("should use the master for local zones", func() {
			Expect(sut.CheckServer(true)).Should(BeIdenticalTo(sut.Master()))
		})

		It("should use the public secondary otherwise", func() {
			Expect(sut.CheckServer(false).String()).Should(Equal("resolver '192.0.2.53:53'"))
		})
	})

	Describe("MasterDNSKEYs", func() {
		When("the master publishes keys", func() {
			BeforeEach(func() {
				master.WithAnswerRR(
					"example.com. 300 IN DNSKEY 257 3 8 AwEAAcMnWBKLuvG/LwnPVykcmpvnntwxfshHlHRhlY0F3oz8AMcuF8gw9McCw+BoC2YxWaiTpNPuxjSNhUlBtcNAZhSIEgVwG/8E5zFqn3kmbnWpzXb8Iidg8VOOSuyp21qS4ObWnodyGyl95YvdxcMkmNxpj8hQSTgP/xh2Nd4MCd5B",
					"example.com. 300 IN DNSKEY 256 3 8 AwEAAb6ZeFTzA9UFPoQSVUuzmJFLs3MqUW3fefr4nAs06KlKoTdsljt6yvGIawvSs7yV7uXjr0pnvW3htx/xdJQ0GlE=",
				)
			})

			It("should return the tags and cache them", func() {
				tags, err := sut.MasterDNSKEYs(ctx, "example.com")
				Expect(err).Should(Succeed())
				Expect(tags).Should(HaveLen(2))

				Expect(sut.MasterDNSKEYs(ctx, "example.com.")).Should(Equal(tags))
				Expect(master.GetCallCount()).Should(Equal(1))
			})
		})

		When("the master publishes no keys", func() {
			BeforeEach(func() {
				master.WithAnswerRR("example.com. 300 IN SOA ns.example.com. hostmaster.example.com. 1 3600 900 604800 300")
			})

			It("should return an empty set", func() {
				tags, err := sut.MasterDNSKEYs(ctx, "example.com")
				Expect(err).Should(Succeed())
				Expect(tags).Should(BeEmpty())
			})
		})

		When("the master fails", func() {
			BeforeEach(func() {
				master.WithAnswerError(dns.RcodeServerFailure)
			})

			It("should return the failure and ask again", func() {
				_, err := sut.MasterDNSKEYs(ctx, "example.com")
				Expect(err).Should(MatchError(ContainSubstring("SERVFAIL")))

				_, err = sut.MasterDNSKEYs(ctx, "example.com")
				Expect(err).Should(HaveOccurred())
				Expect(master.GetCallCount()).Should(Equal(2))
			})
		})

		When("the zone doesn't exist at the master", func() {
			BeforeEach(func() {
				master.WithAnswerError(dns.RcodeNameError)
			})

			It("should return the failure", func() {
				_, err := sut.MasterDNSKEYs(ctx, "example.com")
				Expect(err).Should(MatchError(ErrNXDomain))
			})
		})
	})

	Describe("ParentAuth", func() {
		BeforeEach(func() {
			master.WithAnswerFn(func(req *dns.Msg) *dns.Msg {
				q := req.Question[0]
				msg := new(dns.Msg)

				switch {
				case q.Qtype == dns.TypeNS && q.Name == "com.":
					msg.Answer = append(msg.Answer,
						mustRR("com. 3600 IN NS a.gtld-servers.net."),
						mustRR("com. 3600 IN NS b.gtld-servers.net."))
				case q.Qtype == dns.TypeA && q.Name == "a.gtld-servers.net.":
					msg.Answer = append(msg.Answer, mustRR("a.gtld-servers.net. 3600 IN A 192.0.2.1"))
				case q.Qtype == dns.TypeAAAA && q.Name == "a.gtld-servers.net.":
					msg.Answer = append(msg.Answer, mustRR("a.gtld-servers.net. 3600 IN AAAA 2001:db8::1"))
				case q.Name == "b.gtld-servers.net.":
					msg.Rcode = dns.RcodeNameError
				case q.Name == "org.":
					msg.Rcode = dns.RcodeNameError
				}

				return msg
			})
		})

		It("should resolve the addresses of the name servers once", func() {
			r, err := sut.ParentAuth(ctx, "com")
			Expect(err).Should(Succeed())
			Expect(r.String()).Should(Equal("resolver '192.0.2.1:53, [2001:db8::1]:53'"))

			calls := master.GetCallCount()

			again, err := sut.ParentAuth(ctx, "com.")
			Expect(err).Should(Succeed())
			Expect(again).Should(BeIdenticalTo(r))
			Expect(master.GetCallCount()).Should(Equal(calls))
		})

		It("should fail if the parent does not exist", func() {
			_, err := sut.ParentAuth(ctx, "org")
			Expect(err).Should(MatchError(ErrNXDomain))
		})
	})
})

func mustRR(s string) dns.RR {
	rr, err := dns.NewRR(s)
	Expect(err).Should(Succeed())

	return rr
}
