package util

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/dskm-project/dskm/log"
)

// AnswerToString returns a compact representation of the records, used in debug logs
func AnswerToString(answer []dns.RR) string {
	answers := make([]string, len(answer))

	for i, record := range answer {
		switch v := record.(type) {
		case *dns.A:
			answers[i] = fmt.Sprintf("A (%s)", v.A)
		case *dns.AAAA:
			answers[i] = fmt.Sprintf("AAAA (%s)", v.AAAA)
		case *dns.NS:
			answers[i] = fmt.Sprintf("NS (%s)", v.Ns)
		case *dns.SOA:
			answers[i] = fmt.Sprintf("SOA (%s %d)", v.Ns, v.Serial)
		case *dns.DS:
			answers[i] = fmt.Sprintf("DS (%d/%d)", v.KeyTag, v.DigestType)
		case *dns.DNSKEY:
			answers[i] = fmt.Sprintf("DNSKEY (%d/%d)", v.KeyTag(), v.Flags)
		case *dns.RRSIG:
			answers[i] = fmt.Sprintf("RRSIG (%s/%d)", dns.TypeToString[v.TypeCovered], v.KeyTag)
		default:
			answers[i] = fmt.Sprint(record)
		}
	}

	return strings.Join(answers, ", ")
}

// NewMsgWithQuestion creates a query for the name and type, the name is made fully qualified
func NewMsgWithQuestion(question string, mType uint16) *dns.Msg {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(question), mType)

	return msg
}

// ParentName strips the leftmost label of the zone name, the parent of a TLD is the root ""
func ParentName(zone string) string {
	_, parent, _ := strings.Cut(strings.TrimSuffix(zone, "."), ".")

	return parent
}

// IsArpa returns true for zones of the reverse mapping tree
func IsArpa(zone string) bool {
	return dns.IsSubDomain("arpa.", dns.Fqdn(strings.ToLower(zone)))
}

// LogOnErrorWithEntry logs the message only if error is not nil
func LogOnErrorWithEntry(logEntry *logrus.Entry, message string, err error) {
	if err != nil {
		logEntry.Error(message, err)
	}
}

// FatalOnError logs the message only if error is not nil and exits the program execution
func FatalOnError(message string, err error) {
	if err != nil {
		log.Log().Fatal(message, err)
	}
}
