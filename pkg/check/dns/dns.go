// Package dns implements a check that resolves the target host's A and AAAA
// records against a specific server. It tells an unresolvable deployment
// apart from an unreachable one before any HTTP probe runs.
package dns

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/kylerisse/smokecheck/pkg/check"
	"github.com/miekg/dns"
)

const (
	// Name is the check name used in reports.
	Name = "Target DNS Resolution"

	// DefaultTimeout is the default DNS query timeout.
	DefaultTimeout = 3 * time.Second
)

// Resolution classes reported in the check details.
const (
	ClassResolves  = "RESOLVES"
	ClassNXDomain  = "NXDOMAIN"
	ClassNoRecords = "NO_A_RECORD"
	ClassFailure   = "SERVFAIL_or_TIMEOUT"
	ClassLiteral   = "LITERAL"
)

// resolvConf is where the system resolver is read from when no server is set.
var resolvConf = "/etc/resolv.conf"

// Check implements check.Check with A and AAAA queries for one host.
type Check struct {
	host     string
	server   string // host:port, empty means resolvConf
	category string
	timeout  time.Duration
	client   *dns.Client
}

// Option is a functional option for configuring a DNS Check.
type Option func(*Check) error

// WithTimeout sets the DNS query timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Check) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", d)
		}
		c.timeout = d
		return nil
	}
}

// WithServer queries the given server instead of the system resolver.
// A missing port defaults to 53.
func WithServer(server string) Option {
	return func(c *Check) error {
		if server == "" {
			return nil
		}
		if _, _, err := net.SplitHostPort(server); err != nil {
			server = net.JoinHostPort(server, "53")
		}
		c.server = server
		return nil
	}
}

// WithCategory sets the report category.
func WithCategory(category string) Option {
	return func(c *Check) error {
		c.category = category
		return nil
	}
}

// New creates a DNS Check for host.
func New(host string, opts ...Option) (*Check, error) {
	host = strings.TrimSuffix(strings.TrimSpace(host), ".")
	if host == "" {
		return nil, fmt.Errorf("dns: host must not be empty")
	}
	if strings.Contains(host, "://") {
		return nil, fmt.Errorf("dns: %q is a URL, not a host name", host)
	}

	c := &Check{
		host:    host,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("dns: %w", err)
		}
	}

	c.client = &dns.Client{
		Timeout: c.timeout,
	}

	return c, nil
}

// Name returns the check name.
func (c *Check) Name() string {
	return Name
}

// Category returns the report category.
func (c *Check) Category() string {
	return c.category
}

// Run queries A and AAAA records for the host. IP literals and localhost
// pass without a query. The check succeeds when at least one address is
// returned.
func (c *Check) Run(ctx context.Context) (check.Outcome, error) {
	if IsLiteral(c.host) {
		return check.Passf("%s: %s is a literal address, resolution skipped", ClassLiteral, c.host), nil
	}

	server, err := c.resolver()
	if err != nil {
		return check.Failf("%s: %v", ClassFailure, err), nil
	}

	var (
		addrs    []string
		lastErr  error
		nxdomain bool
		slowest  time.Duration
	)
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(c.host), qtype)
		msg.RecursionDesired = true

		resp, rtt, err := c.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = fmt.Errorf("dns %s %s: %w", qtypeName(qtype), c.host, err)
			continue
		}
		if rtt > slowest {
			slowest = rtt
		}

		switch resp.Rcode {
		case dns.RcodeSuccess:
			addrs = append(addrs, addresses(resp.Answer)...)
		case dns.RcodeNameError:
			nxdomain = true
		default:
			lastErr = fmt.Errorf("dns %s %s: rcode %s", qtypeName(qtype), c.host, dns.RcodeToString[resp.Rcode])
		}
	}

	switch {
	case len(addrs) > 0:
		return check.Passf("%s: %s -> %s (rtt %v)", ClassResolves, c.host, strings.Join(addrs, ", "), slowest.Round(time.Millisecond)), nil
	case nxdomain:
		return check.Failf("%s: %s does not exist", ClassNXDomain, c.host), nil
	case lastErr != nil:
		return check.Failf("%s: %v", ClassFailure, lastErr), nil
	default:
		return check.Failf("%s: %s has no A or AAAA records", ClassNoRecords, c.host), nil
	}
}

// resolver returns the server to query.
func (c *Check) resolver() (string, error) {
	if c.server != "" {
		return c.server, nil
	}
	cfg, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil {
		return "", fmt.Errorf("no resolver configured: %w", err)
	}
	if len(cfg.Servers) == 0 {
		return "", fmt.Errorf("no nameservers in %s", resolvConf)
	}
	return net.JoinHostPort(cfg.Servers[0], cfg.Port), nil
}

// addresses extracts A and AAAA values from an answer section. CNAME
// records are followed implicitly by the recursive server.
func addresses(rrs []dns.RR) []string {
	var out []string
	for _, rr := range rrs {
		switch v := rr.(type) {
		case *dns.A:
			out = append(out, v.A.String())
		case *dns.AAAA:
			out = append(out, v.AAAA.String())
		}
	}
	return out
}

// IsLiteral reports whether host needs no resolution: an IP address,
// bracketed or not, or localhost.
func IsLiteral(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	return net.ParseIP(strings.Trim(host, "[]")) != nil
}

// qtypeName returns a human-readable record type name for error messages.
func qtypeName(qtype uint16) string {
	switch qtype {
	case dns.TypeA:
		return "A"
	case dns.TypeAAAA:
		return "AAAA"
	default:
		return fmt.Sprintf("TYPE%d", qtype)
	}
}
