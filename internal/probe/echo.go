// Package probe implements the single-target reachability checks that
// sweeps fan out over worker pools: ICMP echo for hosts, TCP connect
// for ports, plus the DNS and ARP enrichment around them. The network
// mechanisms are injected as interfaces so sweeps can be tested with
// scripted fakes.
package probe

import (
	"context"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/anstrom/netsweep/internal/errors"
)

const (
	defaultEchoTimeout = 1 * time.Second
	defaultPacketSize  = 24
)

// EchoReply carries the measurable facts of a successful ICMP echo.
type EchoReply struct {
	ResponseTime time.Duration
	BufferSize   int
	TTL          int
}

// Echoer sends one ICMP echo request and reports the reply. A timeout
// is reported as an error with code TIMEOUT; transport faults carry
// PROBE_FAILED and abort the caller's retry loop.
type Echoer interface {
	Echo(ctx context.Context, addr string) (EchoReply, error)
}

// EchoConfig controls how echo requests are sent.
type EchoConfig struct {
	// Timeout bounds one echo round trip.
	Timeout time.Duration
	// PacketSize is the ICMP payload size in bytes.
	PacketSize int
	// Privileged selects raw ICMP sockets instead of unprivileged
	// UDP datagrams. Raw sockets need CAP_NET_RAW or root.
	Privileged bool
}

// PingEchoer is the production Echoer backed by pro-bing.
type PingEchoer struct {
	config EchoConfig
}

var _ Echoer = (*PingEchoer)(nil)

// NewPingEchoer creates an Echoer with defaults applied to zero fields.
func NewPingEchoer(config EchoConfig) *PingEchoer {
	if config.Timeout <= 0 {
		config.Timeout = defaultEchoTimeout
	}
	if config.PacketSize <= 0 {
		config.PacketSize = defaultPacketSize
	}
	return &PingEchoer{config: config}
}

// Echo sends a single echo request and waits for the reply or timeout.
func (p *PingEchoer) Echo(ctx context.Context, addr string) (EchoReply, error) {
	if err := ctx.Err(); err != nil {
		return EchoReply{}, errors.WrapProbeError(errors.CodeCanceled,
			"echo canceled", err).WithAddress(addr)
	}

	pinger, err := probing.NewPinger(addr)
	if err != nil {
		return EchoReply{}, errors.WrapProbeError(errors.CodeResolveFailed,
			"resolving echo target", err).WithAddress(addr)
	}

	pinger.Count = 1
	pinger.Timeout = p.config.Timeout
	pinger.Size = p.config.PacketSize
	pinger.SetPrivileged(p.config.Privileged)

	var reply EchoReply
	pinger.OnRecv = func(pkt *probing.Packet) {
		reply = EchoReply{
			ResponseTime: pkt.Rtt,
			BufferSize:   pkt.Nbytes,
			TTL:          pkt.TTL,
		}
	}

	if err := pinger.RunWithContext(ctx); err != nil {
		if ctx.Err() != nil {
			return EchoReply{}, errors.WrapProbeError(errors.CodeCanceled,
				"echo canceled", ctx.Err()).WithAddress(addr)
		}
		return EchoReply{}, errors.WrapProbeError(errors.CodeProbeFailed,
			"echo failed", err).WithAddress(addr)
	}

	if pinger.Statistics().PacketsRecv == 0 {
		return EchoReply{}, errors.NewProbeError(errors.CodeTimeout,
			"echo timeout").WithAddress(addr)
	}
	return reply, nil
}
