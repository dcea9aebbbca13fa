package probe

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/anstrom/netsweep/internal/errors"
)

const (
	defaultResolveTimeout = 2 * time.Second
	resolvConfPath        = "/etc/resolv.conf"
)

// Resolver performs the name lookups sweeps need: reverse lookups for
// host enrichment (best effort) and forward resolution of port sweep
// targets (a failure there is a configuration error for the caller).
type Resolver interface {
	ReverseLookup(ctx context.Context, addr string) (string, error)
	ResolveHost(ctx context.Context, host string) (net.IP, error)
}

// DNSResolver queries the system-configured nameservers directly and
// falls back to the OS resolver when none answer.
type DNSResolver struct {
	timeout  time.Duration
	servers  []string
	fallback *net.Resolver
}

var _ Resolver = (*DNSResolver)(nil)

// NewDNSResolver builds a resolver from /etc/resolv.conf. Hosts without
// a readable resolv.conf still work through the OS fallback path.
func NewDNSResolver(timeout time.Duration) *DNSResolver {
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}
	resolver := &DNSResolver{
		timeout:  timeout,
		fallback: net.DefaultResolver,
	}
	if conf, err := dns.ClientConfigFromFile(resolvConfPath); err == nil {
		for _, server := range conf.Servers {
			resolver.servers = append(resolver.servers, net.JoinHostPort(server, conf.Port))
		}
	}
	return resolver
}

// ReverseLookup returns the PTR name for an address without the
// trailing dot. All failure modes surface as RESOLVE_FAILED; callers
// treat reverse lookup as best effort.
func (r *DNSResolver) ReverseLookup(ctx context.Context, addr string) (string, error) {
	arpa, err := dns.ReverseAddr(addr)
	if err != nil {
		return "", errors.WrapProbeError(errors.CodeResolveFailed,
			"building reverse name", err).WithAddress(addr)
	}

	if name, err := r.queryPTR(ctx, arpa); err == nil {
		return name, nil
	}

	names, err := r.fallback.LookupAddr(ctx, addr)
	if err != nil || len(names) == 0 {
		return "", errors.NewProbeError(errors.CodeResolveFailed,
			"no PTR record").WithAddress(addr)
	}
	return strings.TrimSuffix(names[0], "."), nil
}

func (r *DNSResolver) queryPTR(ctx context.Context, arpa string) (string, error) {
	if len(r.servers) == 0 {
		return "", errors.NewProbeError(errors.CodeResolveFailed, "no nameservers configured")
	}

	client := &dns.Client{Timeout: r.timeout}
	msg := new(dns.Msg)
	msg.SetQuestion(arpa, dns.TypePTR)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		resp, _, err := client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			lastErr = errors.NewProbeError(errors.CodeResolveFailed,
				"PTR query returned "+dns.RcodeToString[resp.Rcode])
			continue
		}
		for _, answer := range resp.Answer {
			if ptr, ok := answer.(*dns.PTR); ok {
				return strings.TrimSuffix(ptr.Ptr, "."), nil
			}
		}
		lastErr = errors.NewProbeError(errors.CodeResolveFailed, "no PTR record in answer")
	}
	return "", lastErr
}

// ResolveHost resolves a hostname or IP literal to its first IPv4
// address. IPv6-only targets are rejected.
func (r *DNSResolver) ResolveHost(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
		return nil, errors.NewProbeError(errors.CodeTargetInvalid,
			"IPv6 targets are not supported").WithAddress(host)
	}

	addrs, err := r.fallback.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, errors.WrapProbeError(errors.CodeResolveFailed,
			"resolving host", err).WithAddress(host)
	}
	for _, addr := range addrs {
		if v4 := addr.IP.To4(); v4 != nil {
			return v4, nil
		}
	}
	return nil, errors.NewProbeError(errors.CodeResolveFailed,
		"no IPv4 address for host").WithAddress(host)
}
