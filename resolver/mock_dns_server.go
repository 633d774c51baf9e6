package resolver

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/miekg/dns"

	"github.com/dskm-project/dskm/config"
	"github.com/dskm-project/dskm/util"
)

const bindAttempts = 10

// MockDNSServer answers queries over UDP and TCP on the same local port
type MockDNSServer struct {
	callCount    int32
	tcpCallCount int32

	mu          sync.RWMutex
	answerFn    func(request *dns.Msg) (response *dns.Msg)
	truncateUDP bool

	tcp, udp *dns.Server
}

func NewMockDNSServer() *MockDNSServer {
	return &MockDNSServer{}
}

func (t *MockDNSServer) WithAnswerRR(answers ...string) *MockDNSServer {
	return t.WithAnswerFn(func(request *dns.Msg) (response *dns.Msg) {
		msg := new(dns.Msg)

		for _, a := range answers {
			rr, err := dns.NewRR(a)
			util.FatalOnError("can't create RR", err)

			msg.Answer = append(msg.Answer, rr)
		}

		return msg
	})
}

func (t *MockDNSServer) WithAnswerMsg(answer *dns.Msg) *MockDNSServer {
	return t.WithAnswerFn(func(request *dns.Msg) (response *dns.Msg) {
		return answer.Copy()
	})
}

func (t *MockDNSServer) WithAnswerError(errorCode int) *MockDNSServer {
	return t.WithAnswerFn(func(request *dns.Msg) (response *dns.Msg) {
		msg := new(dns.Msg)
		msg.Rcode = errorCode

		return msg
	})
}

// WithAnswerFn sets the function creating the answer, returning nil leaves the query unanswered
func (t *MockDNSServer) WithAnswerFn(fn func(request *dns.Msg) (response *dns.Msg)) *MockDNSServer {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.answerFn = fn

	return t
}

// WithTruncatedUDP answers all UDP queries with an empty truncated response
func (t *MockDNSServer) WithTruncatedUDP() *MockDNSServer {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.truncateUDP = true

	return t
}

func (t *MockDNSServer) GetCallCount() int {
	return int(atomic.LoadInt32(&t.callCount))
}

func (t *MockDNSServer) GetTCPCallCount() int {
	return int(atomic.LoadInt32(&t.tcpCallCount))
}

func (t *MockDNSServer) Close() {
	if t.tcp != nil {
		_ = t.tcp.Shutdown()
	}

	if t.udp != nil {
		_ = t.udp.Shutdown()
	}
}

// Start listens on a random local port and returns the address of the server
func (t *MockDNSServer) Start() config.NameServer {
	var (
		ln  net.Listener
		pc  net.PacketConn
		err error
	)

	for i := 0; i < bindAttempts; i++ {
		ln, err = net.Listen("tcp4", "127.0.0.1:0")
		util.FatalOnError("can't create tcp listener: ", err)

		// the UDP socket must use the port of the TCP listener
		pc, err = net.ListenPacket("udp4", ln.Addr().String())
		if err == nil {
			break
		}

		_ = ln.Close()
	}

	util.FatalOnError("can't create udp connection: ", err)

	handler := dns.HandlerFunc(t.serve)

	t.tcp = &dns.Server{Listener: ln, Handler: handler}
	t.udp = &dns.Server{PacketConn: pc, Handler: handler}

	go func() { _ = t.tcp.ActivateAndServe() }()
	go func() { _ = t.udp.ActivateAndServe() }()

	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		util.FatalOnError("unexpected listener address: ", net.UnknownNetworkError(ln.Addr().Network()))
	}

	return config.NameServer{Host: addr.IP.String(), Port: uint16(addr.Port)}
}

func (t *MockDNSServer) serve(w dns.ResponseWriter, request *dns.Msg) {
	atomic.AddInt32(&t.callCount, 1)

	isTCP := w.LocalAddr().Network() == "tcp"
	if isTCP {
		atomic.AddInt32(&t.tcpCallCount, 1)
	}

	t.mu.RLock()
	fn, truncate := t.answerFn, t.truncateUDP
	t.mu.RUnlock()

	if truncate && !isTCP {
		msg := new(dns.Msg)
		msg.SetReply(request)
		msg.Truncated = true

		_ = w.WriteMsg(msg)

		return
	}

	if fn == nil {
		return
	}

	response := fn(request)
	// nil should indicate an error
	if response == nil {
		return
	}

	rCode := response.Rcode
	response.SetReply(request)

	if rCode != 0 {
		response.Rcode = rCode
	}

	_ = w.WriteMsg(response)
}
