package resolver

import (
	"context"
	"time"

	"github.com/miekg/dns"

	"github.com/dskm-project/dskm/config"
	. "github.com/dskm-project/dskm/helpertest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Client", func() {
	var (
		ctx      context.Context
		server   *MockDNSServer
		others   []*MockDNSServer
		timeout  time.Duration
		attempts uint
		sut      *Client
	)

	BeforeEach(func() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(cancel)

		server = NewMockDNSServer()
		DeferCleanup(server.Close)

		others = nil
		timeout = time.Second
		attempts = 1
	})

	JustBeforeEach(func() {
		servers := []config.NameServer{server.Start()}
		for _, o := range others {
			servers = append(servers, o.Start())
		}

		sut = NewClient(servers, timeout, attempts)
	})

	When("the server answers", func() {
		BeforeEach(func() {
			server.WithAnswerRR("example.com. 300 IN NS ns1.example.com.")
		})

		It("should return the answer", func() {
			resp, err := sut.Query(ctx, "example.com", dns.TypeNS)
			Expect(err).Should(Succeed())
			Expect(resp).Should(HaveReturnCode(dns.RcodeSuccess))
			Expect(resp.Answer).Should(HaveLen(1))
			Expect(resp.Answer[0]).Should(BeDNSRecord("example.com.", NS, "ns1.example.com."))
			Expect(server.GetCallCount()).Should(Equal(1))
			Expect(server.GetTCPCallCount()).Should(BeZero())
		})
	})

	When("DNSSEC records are requested", func() {
		var request *dns.Msg

		BeforeEach(func() {
			server.WithAnswerFn(func(req *dns.Msg) *dns.Msg {
				request = req

				msg := new(dns.Msg)
				msg.Answer = append(msg.Answer, MustRR("example.com. 300 IN SOA ns1.example.com. hostmaster.example.com. 1 3600 600 86400 300"))

				return msg
			})
		})

		It("should set the DO bit", func() {
			_, err := sut.Query(ctx, "example.com", dns.TypeSOA, WithDNSSEC())
			Expect(err).Should(Succeed())
			Expect(request).Should(HaveDOFlag())
		})

		It("should use TCP if requested", func() {
			_, err := sut.Query(ctx, "example.com", dns.TypeSOA, WithTCP())
			Expect(err).Should(Succeed())
			Expect(server.GetTCPCallCount()).Should(Equal(1))
			Expect(request).ShouldNot(HaveDOFlag())
		})
	})

	When("the UDP answer is truncated", func() {
		BeforeEach(func() {
			server.WithTruncatedUDP().WithAnswerRR("example.com. 300 IN NS ns1.example.com.")
		})

		It("should retry over TCP", func() {
			resp, err := sut.Query(ctx, "example.com", dns.TypeNS)
			Expect(err).Should(Succeed())
			Expect(resp.Answer).Should(HaveLen(1))
			Expect(server.GetCallCount()).Should(Equal(2))
			Expect(server.GetTCPCallCount()).Should(Equal(1))
		})
	})

	When("the name exists without records of the type", func() {
		BeforeEach(func() {
			server.WithAnswerRR("example.com. 300 IN NS ns1.example.com.")
		})

		It("should return ErrNoAnswer with the response", func() {
			resp, err := sut.Query(ctx, "example.com", dns.TypeDS)
			Expect(err).Should(MatchError(ErrNoAnswer))
			Expect(resp).ShouldNot(BeNil())
		})
	})

	When("the name does not exist", func() {
		BeforeEach(func() {
			server.WithAnswerError(dns.RcodeNameError)
		})

		It("should return ErrNXDomain", func() {
			_, err := sut.Query(ctx, "missing.example.com", dns.TypeDS)
			Expect(err).Should(MatchError(ErrNXDomain))
		})
	})

	When("the server does not answer", func() {
		BeforeEach(func() {
			server.WithAnswerFn(func(*dns.Msg) *dns.Msg { return nil })

			timeout = 100 * time.Millisecond
			attempts = 2
		})

		It("should retry and return ErrTimeout", func() {
			_, err := sut.Query(ctx, "example.com", dns.TypeSOA)
			Expect(err).Should(MatchError(ErrTimeout))
			Expect(server.GetCallCount()).Should(Equal(2))
		})
	})

	When("the first server fails", func() {
		var second *MockDNSServer

		BeforeEach(func() {
			server.WithAnswerError(dns.RcodeServerFailure)

			second = NewMockDNSServer().WithAnswerRR("example.com. 300 IN NS ns1.example.com.")
			DeferCleanup(second.Close)

			others = append(others, second)
		})

		It("should ask the next server", func() {
			resp, err := sut.Query(ctx, "example.com", dns.TypeNS)
			Expect(err).Should(Succeed())
			Expect(resp.Answer).Should(HaveLen(1))
			Expect(server.GetCallCount()).Should(Equal(1))
			Expect(second.GetCallCount()).Should(Equal(1))
		})
	})

	Describe("String", func() {
		It("should contain the servers", func() {
			Expect(sut.String()).Should(HavePrefix("resolver '127.0.0.1:"))
		})
	})
})

var _ = Describe("Record helpers", func() {
	key := &dns.DNSKEY{
		Hdr:       dns.RR_Header{Name: "example.com.", Rrtype: dns.TypeDNSKEY, Class: dns.ClassINET, Ttl: 300},
		Flags:     257,
		Protocol:  3,
		Algorithm: dns.RSASHA256,
		PublicKey: "AwEAAcMnWBKLuvG/LwnPVykcmpvnntwxfshHlHRhlY0F3oz8AMcuF8gw9McCw+BoC2YxWaiTpNPuxjSNhUlBtcNAZhSIEgVwG/8E5zFqn3kmbnWpzXb8Iidg8VOOSuyp21qS4ObWnodyGyl95YvdxcMkmNxpj8hQSTgP/xh2Nd4MCd5B",
	}

	rrs := []dns.RR{
		key,
		&dns.RRSIG{Hdr: dns.RR_Header{Rrtype: dns.TypeRRSIG}, TypeCovered: dns.TypeDNSKEY, KeyTag: key.KeyTag()},
		&dns.DS{Hdr: dns.RR_Header{Rrtype: dns.TypeDS}, KeyTag: 4711},
	}

	It("should extract the key tags", func() {
		Expect(KeyTags(rrs)).Should(ConsistOf(key.KeyTag()))
	})

	It("should find signatures by type and key", func() {
		Expect(HasSignature(rrs, dns.TypeDNSKEY, key.KeyTag())).Should(BeTrue())
		Expect(HasSignature(rrs, dns.TypeSOA, key.KeyTag())).Should(BeFalse())
		Expect(HasSignature(rrs, dns.TypeDNSKEY, key.KeyTag()+1)).Should(BeFalse())
	})

	It("should find DS by key tag", func() {
		Expect(HasDS(rrs, 4711)).Should(BeTrue())
		Expect(HasDS(rrs, 4712)).Should(BeFalse())
	})
})
