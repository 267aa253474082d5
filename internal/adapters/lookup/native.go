package lookup

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/poyrazK/zonectl/internal/core/domain"
)

// Native implements ports.Lookup with an in-process DNS client. It asks for
// the SOA and NS sets of the zone and renders both answers in dig's text format.
type Native struct {
	addr   string
	client *dns.Client
}

// NewNative creates a lookup against server:port over UDP.
func NewNative(server string, port int, timeout time.Duration) *Native {
	if port == 0 {
		port = 53
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Native{
		addr:   net.JoinHostPort(server, strconv.Itoa(port)),
		client: &dns.Client{Net: "udp", Timeout: timeout},
	}
}

func (n *Native) Query(ctx context.Context, zone string) (string, error) {
	var out strings.Builder
	for _, qtype := range []uint16{dns.TypeSOA, dns.TypeNS} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(zone), qtype)
		msg.RecursionDesired = false

		resp, _, err := n.client.ExchangeContext(ctx, msg, n.addr)
		if err != nil {
			return "", &domain.LookupError{Domain: zone, Details: err.Error()}
		}
		if resp.Rcode != dns.RcodeSuccess {
			return "", &domain.LookupError{Domain: zone, Details: resp.String()}
		}
		out.WriteString(resp.String())
		out.WriteString("\n")
	}
	return out.String(), nil
}
