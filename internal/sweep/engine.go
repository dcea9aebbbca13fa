package sweep

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anstrom/netsweep/internal/arp"
	"github.com/anstrom/netsweep/internal/errors"
	"github.com/anstrom/netsweep/internal/logging"
	"github.com/anstrom/netsweep/internal/metrics"
	"github.com/anstrom/netsweep/internal/probe"
	"github.com/anstrom/netsweep/internal/services"
	"github.com/anstrom/netsweep/internal/workers"
)

const (
	// DefaultHostThreads is the host sweep pool size.
	DefaultHostThreads = 256
	// DefaultPortThreads is the port sweep pool size.
	DefaultPortThreads = 500
	// DefaultAttempts is the echo attempt count per host.
	DefaultAttempts = 2
	// DefaultMaxTargets caps a host range at a /16 span.
	DefaultMaxTargets = 1 << 16

	maxThreads  = 4096
	maxAttempts = 10

	sweepTypeHost = "host"
	sweepTypePort = "port"

	jobTypeHostProbe = "host_probe"
	jobTypePortProbe = "port_probe"

	protocolTCP = "tcp"

	poolShutdownTimeout = 30 * time.Second
)

// Engine runs host and port sweeps. The probe collaborators are
// interfaces so tests can script reachability; production engines
// built with NewEngine probe the real network.
type Engine struct {
	echoer   probe.Echoer
	dialer   probe.Dialer
	resolver probe.Resolver
	snapshot func(ctx context.Context) (arp.Table, error)
	registry *services.Registry
	active   int32
}

// NewEngine creates a sweep engine with production collaborators. A
// nil registry falls back to the built-in service table.
func NewEngine(registry *services.Registry) *Engine {
	if registry == nil {
		registry = services.NewRegistry()
	}
	return &Engine{
		resolver: probe.NewDNSResolver(0),
		snapshot: arp.Snapshot,
		registry: registry,
	}
}

// Registry returns the service registry the engine enriches port
// results from.
func (e *Engine) Registry() *services.Registry {
	return e.registry
}

// ActiveSweeps returns the number of sweeps currently running.
func (e *Engine) ActiveSweeps() int {
	return int(atomic.LoadInt32(&e.active))
}

// HostSweepConfig holds the knobs for one host sweep. Exactly one
// target form must be given: Start+End, CIDR, or Address+Mask. The
// config is read-only once the sweep starts.
type HostSweepConfig struct {
	Start             string        `json:"start,omitempty" yaml:"start,omitempty"`
	End               string        `json:"end,omitempty" yaml:"end,omitempty"`
	CIDR              string        `json:"cidr,omitempty" yaml:"cidr,omitempty"`
	Address           string        `json:"address,omitempty" yaml:"address,omitempty"`
	Mask              string        `json:"mask,omitempty" yaml:"mask,omitempty"`
	ExcludeLastOctets []uint8       `json:"exclude_last_octets,omitempty" yaml:"exclude_last_octets,omitempty"`
	Threads           int           `json:"threads,omitempty" yaml:"threads,omitempty"`
	Attempts          int           `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Timeout           time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	DisableDNS        bool          `json:"disable_dns,omitempty" yaml:"disable_dns,omitempty"`
	DisableMAC        bool          `json:"disable_mac,omitempty" yaml:"disable_mac,omitempty"`
	Extended          bool          `json:"extended,omitempty" yaml:"extended,omitempty"`
	IncludeInactive   bool          `json:"include_inactive,omitempty" yaml:"include_inactive,omitempty"`
	Privileged        bool          `json:"privileged,omitempty" yaml:"privileged,omitempty"`
	MaxTargets        int           `json:"-" yaml:"max_targets,omitempty"`

	// OnProgress, when set, receives a snapshot after every completed
	// probe. Callbacks run on the collector goroutine and should not
	// block.
	OnProgress func(Progress) `json:"-" yaml:"-"`
}

func (c *HostSweepConfig) applyDefaults() {
	if c.Threads <= 0 {
		c.Threads = DefaultHostThreads
	}
	if c.Attempts <= 0 {
		c.Attempts = DefaultAttempts
	}
	if c.MaxTargets <= 0 {
		c.MaxTargets = DefaultMaxTargets
	}
}

// validate checks the configuration and builds the target range.
func (c *HostSweepConfig) validate() (*HostRange, error) {
	if err := validateThreads(c.Threads); err != nil {
		return nil, err
	}
	if c.Attempts > maxAttempts {
		return nil, errors.NewConfigFieldError(errors.CodeValidation,
			fmt.Sprintf("attempts must be at most %d", maxAttempts), "attempts", c.Attempts)
	}

	if (c.Start == "") != (c.End == "") {
		return nil, errors.NewConfigError(errors.CodeValidation,
			"start and end addresses must be given together")
	}
	if (c.Address == "") != (c.Mask == "") {
		return nil, errors.NewConfigError(errors.CodeValidation,
			"address and mask must be given together")
	}

	forms := 0
	if c.Start != "" {
		forms++
	}
	if c.CIDR != "" {
		forms++
	}
	if c.Address != "" {
		forms++
	}
	if forms == 0 {
		return nil, errors.NewConfigError(errors.CodeValidation,
			"no target range: give start/end addresses, a CIDR network, or an address with a mask")
	}
	if forms > 1 {
		return nil, errors.NewConfigError(errors.CodeValidation,
			"conflicting target forms: give exactly one of start/end, CIDR, or address/mask")
	}

	var r *HostRange
	var err error
	switch {
	case c.Start != "":
		r, err = NewHostRange(c.Start, c.End)
	case c.CIDR != "":
		r, err = HostRangeFromCIDR(c.CIDR)
	default:
		r, err = HostRangeFromMask(c.Address, c.Mask)
	}
	if err != nil {
		return nil, err
	}
	r.Exclude(c.ExcludeLastOctets...)

	if size := r.Size(); size > c.MaxTargets {
		return nil, errors.NewConfigFieldError(errors.CodeRangeInvalid,
			fmt.Sprintf("range spans %d targets, more than the %d allowed", size, c.MaxTargets),
			"max_targets", size)
	}
	return r, nil
}

// targetLabel returns the range in the form the caller specified, for
// logging and metrics.
func (c *HostSweepConfig) targetLabel() string {
	switch {
	case c.CIDR != "":
		return c.CIDR
	case c.Address != "":
		return fmt.Sprintf("%s/%s", c.Address, c.Mask)
	default:
		return fmt.Sprintf("%s-%s", c.Start, c.End)
	}
}

// PortSweepConfig holds the knobs for one port sweep of a single host.
type PortSweepConfig struct {
	Host             string        `json:"host" yaml:"host"`
	StartPort        uint16        `json:"start_port,omitempty" yaml:"start_port,omitempty"`
	EndPort          uint16        `json:"end_port,omitempty" yaml:"end_port,omitempty"`
	Threads          int           `json:"threads,omitempty" yaml:"threads,omitempty"`
	Timeout          time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	WithServiceNames bool          `json:"with_service_names,omitempty" yaml:"with_service_names,omitempty"`

	// OnProgress, when set, receives a snapshot after every completed
	// probe. Callbacks run on the collector goroutine and should not
	// block.
	OnProgress func(Progress) `json:"-" yaml:"-"`
}

func (c *PortSweepConfig) applyDefaults() {
	if c.StartPort == 0 {
		c.StartPort = 1
	}
	if c.EndPort == 0 {
		c.EndPort = 65535
	}
	if c.Threads <= 0 {
		c.Threads = DefaultPortThreads
	}
}

func (c *PortSweepConfig) validate() (*PortRange, error) {
	if c.Host == "" {
		return nil, errors.NewConfigError(errors.CodeValidation, "no target host")
	}
	if err := validateThreads(c.Threads); err != nil {
		return nil, err
	}
	return NewPortRange(c.StartPort, c.EndPort)
}

func validateThreads(threads int) error {
	if threads > maxThreads {
		return errors.NewConfigFieldError(errors.CodeCapacity,
			fmt.Sprintf("threads must be at most %d", maxThreads), "threads", threads)
	}
	return nil
}

type hostOutcome struct {
	result   HostResult
	canceled bool
}

type portOutcome struct {
	port     uint16
	open     bool
	canceled bool
}

// SweepHosts probes every address in the configured range and streams
// reachability records in completion order. The returned channel is
// closed when all targets have been probed or, after cancellation,
// once in-flight probes drain; the caller must read the stream or
// cancel ctx. Configuration problems are reported up front and no
// probing happens.
func (e *Engine) SweepHosts(ctx context.Context, cfg HostSweepConfig) (<-chan HostResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	r, err := cfg.validate()
	if err != nil {
		metrics.IncrementSweepErrors(sweepTypeHost, cfg.targetLabel(), string(errors.GetCode(err)))
		return nil, err
	}

	targets := r.Enumerate()
	total := len(targets)
	label := r.String()
	out := make(chan HostResult, cfg.Threads)

	if total == 0 {
		// Exclusions can empty a range; that is a complete sweep.
		if cfg.OnProgress != nil {
			cfg.OnProgress(newProgress(0, 0))
		}
		close(out)
		return out, nil
	}

	var table arp.Table
	if !cfg.DisableMAC {
		if snap, snapErr := e.snapshot(ctx); snapErr == nil {
			table = snap
		}
		// ARP lookups are best-effort; an unreadable cache just
		// leaves MAC fields empty.
	}

	echoer := e.hostEchoer(cfg)
	pool := workers.New(workers.Config{
		Size:            cfg.Threads,
		QueueSize:       cfg.Threads,
		ShutdownTimeout: poolShutdownTimeout,
	})
	pool.Start()

	logging.InfoSweep("Starting host sweep", label,
		"targets", total,
		"threads", cfg.Threads,
		"attempts", cfg.Attempts)
	started := time.Now()
	atomic.AddInt32(&e.active, 1)
	metrics.GetGlobalMetrics().SetActiveSweeps(e.ActiveSweeps())
	if cfg.OnProgress != nil {
		cfg.OnProgress(newProgress(total, 0))
	}

	outcomes := make(chan hostOutcome, cfg.Threads)
	var wg sync.WaitGroup

	go func() {
		for seq, addr := range targets {
			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			job := workers.NewFuncJob(fmt.Sprintf("host-%d", seq), jobTypeHostProbe,
				func(context.Context) error {
					defer wg.Done()
					outcomes <- e.probeHost(ctx, echoer, addr, &cfg, table)
					return nil
				})
			if submitErr := pool.SubmitWait(ctx, job); submitErr != nil {
				wg.Done()
				if ctx.Err() == nil {
					logging.ErrorSweep("Host sweep submission failed", label, submitErr)
					metrics.IncrementSweepErrors(sweepTypeHost, label, "submit")
				}
				break
			}
		}
		wg.Wait()
		close(outcomes)
	}()

	go func() {
		completed := 0
		upCount := 0
		for oc := range outcomes {
			completed++
			if !oc.canceled && (oc.result.Status == StatusUp || cfg.IncludeInactive) {
				select {
				case out <- oc.result:
					if oc.result.Status == StatusUp {
						upCount++
						metrics.IncrementHostsUp(label)
						metrics.IncrementHostsUpPrometheus(label, 1)
					}
				case <-ctx.Done():
				}
			}
			if cfg.OnProgress != nil {
				cfg.OnProgress(newProgress(total, completed))
			}
		}

		duration := time.Since(started)
		status := "completed"
		if ctx.Err() != nil {
			status = "cancelled"
		}
		metrics.RecordSweepDuration(sweepTypeHost, label, duration)
		metrics.RecordSweepDurationPrometheus(sweepTypeHost, duration)
		metrics.IncrementSweepTotal(sweepTypeHost, status)
		metrics.IncrementSweepTotalPrometheus(sweepTypeHost, status)
		metrics.IncrementTargetsSwept(sweepTypeHost, completed)
		logging.InfoSweep("Host sweep finished", label,
			"status", status,
			"targets", total,
			"completed", completed,
			"up", upCount,
			"duration", duration)

		close(out)
		_ = pool.Shutdown()
		atomic.AddInt32(&e.active, -1)
		metrics.GetGlobalMetrics().SetActiveSweeps(e.ActiveSweeps())
	}()

	return out, nil
}

// probeHost runs the echo attempt loop for one address and fills in
// the gated side lookups. Unanswered echoes use up attempts; a hard
// transport fault makes the remaining attempts pointless and ends the
// loop early. Every failure is downgraded to a Down status.
func (e *Engine) probeHost(
	ctx context.Context,
	echoer probe.Echoer,
	addr string,
	cfg *HostSweepConfig,
	table arp.Table,
) hostOutcome {
	var reply probe.EchoReply
	status := StatusDown
	canceled := false
	start := time.Now()

	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		r, err := echoer.Echo(ctx, addr)
		if err == nil {
			reply = r
			status = StatusUp
			metrics.GetGlobalMetrics().IncrementEchoAttempts("success")
			break
		}
		if errors.IsCode(err, errors.CodeCanceled) {
			canceled = true
			metrics.GetGlobalMetrics().IncrementEchoAttempts("cancelled")
			break
		}
		if errors.IsCode(err, errors.CodeTimeout) {
			metrics.GetGlobalMetrics().IncrementEchoAttempts("timeout")
			continue
		}
		metrics.GetGlobalMetrics().IncrementEchoAttempts("error")
		logging.DebugProbe("Echo aborted by transport fault", addr, "error", err)
		break
	}

	duration := time.Since(start)
	metrics.RecordProbeDuration(sweepTypeHost, string(status), duration)
	metrics.RecordProbeDurationPrometheus(sweepTypeHost, duration)

	result := HostResult{Address: addr, Status: status}
	if !canceled && (status == StatusUp || cfg.IncludeInactive) {
		if !cfg.DisableDNS {
			if name, err := e.resolver.ReverseLookup(ctx, addr); err == nil {
				result.Hostname = name
			}
		}
		if !cfg.DisableMAC {
			if mac, ok := table.Lookup(addr); ok {
				result.MAC = mac
			}
		}
	}
	if status == StatusUp && cfg.Extended {
		result.Extended = true
		result.BufferSize = reply.BufferSize
		result.ResponseTimeMS = reply.ResponseTime.Milliseconds()
		result.TTL = reply.TTL
	}
	return hostOutcome{result: result, canceled: canceled}
}

// SweepPorts probes every TCP port in the configured range on one
// host and streams a record per open port in completion order. Closed
// ports are never emitted. The host name is resolved up front;
// resolution failure is a configuration error and no probing happens.
func (e *Engine) SweepPorts(ctx context.Context, cfg PortSweepConfig) (<-chan PortResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	r, err := cfg.validate()
	if err != nil {
		metrics.IncrementSweepErrors(sweepTypePort, cfg.Host, string(errors.GetCode(err)))
		return nil, err
	}

	ip, err := e.resolver.ResolveHost(ctx, cfg.Host)
	if err != nil {
		metrics.IncrementSweepErrors(sweepTypePort, cfg.Host, string(errors.GetCode(err)))
		return nil, err
	}
	host := ip.String()

	ports := r.Enumerate()
	total := len(ports)
	label := fmt.Sprintf("%s:%s", cfg.Host, r)
	out := make(chan PortResult, cfg.Threads)

	dialer := e.portDialer(cfg)
	pool := workers.New(workers.Config{
		Size:            cfg.Threads,
		QueueSize:       cfg.Threads,
		ShutdownTimeout: poolShutdownTimeout,
	})
	pool.Start()

	logging.InfoSweep("Starting port sweep", label,
		"host", host,
		"ports", total,
		"threads", cfg.Threads)
	started := time.Now()
	atomic.AddInt32(&e.active, 1)
	metrics.GetGlobalMetrics().SetActiveSweeps(e.ActiveSweeps())
	if cfg.OnProgress != nil {
		cfg.OnProgress(newProgress(total, 0))
	}

	outcomes := make(chan portOutcome, cfg.Threads)
	var wg sync.WaitGroup

	go func() {
		for seq, port := range ports {
			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			job := workers.NewFuncJob(fmt.Sprintf("port-%d", seq), jobTypePortProbe,
				func(context.Context) error {
					defer wg.Done()
					outcomes <- e.probePort(ctx, dialer, host, port)
					return nil
				})
			if submitErr := pool.SubmitWait(ctx, job); submitErr != nil {
				wg.Done()
				if ctx.Err() == nil {
					logging.ErrorSweep("Port sweep submission failed", label, submitErr)
					metrics.IncrementSweepErrors(sweepTypePort, label, "submit")
				}
				break
			}
		}
		wg.Wait()
		close(outcomes)
	}()

	go func() {
		completed := 0
		openCount := 0
		for oc := range outcomes {
			completed++
			if oc.open && !oc.canceled {
				result := PortResult{Port: oc.port, Protocol: protocolTCP, Status: StatusOpen}
				if cfg.WithServiceNames {
					if svc, ok := e.registry.ResolveService(oc.port, protocolTCP); ok {
						result.ServiceName = svc.Name
						result.ServiceDescription = svc.Description
					}
				}
				select {
				case out <- result:
					openCount++
					metrics.IncrementPortsOpen(host, protocolTCP)
					metrics.IncrementPortsOpenPrometheus(protocolTCP, 1)
				case <-ctx.Done():
				}
			}
			if cfg.OnProgress != nil {
				cfg.OnProgress(newProgress(total, completed))
			}
		}

		duration := time.Since(started)
		status := "completed"
		if ctx.Err() != nil {
			status = "cancelled"
		}
		metrics.RecordSweepDuration(sweepTypePort, label, duration)
		metrics.RecordSweepDurationPrometheus(sweepTypePort, duration)
		metrics.IncrementSweepTotal(sweepTypePort, status)
		metrics.IncrementSweepTotalPrometheus(sweepTypePort, status)
		metrics.IncrementTargetsSwept(sweepTypePort, completed)
		logging.InfoSweep("Port sweep finished", label,
			"status", status,
			"ports", total,
			"completed", completed,
			"open", openCount,
			"duration", duration)

		close(out)
		_ = pool.Shutdown()
		atomic.AddInt32(&e.active, -1)
		metrics.GetGlobalMetrics().SetActiveSweeps(e.ActiveSweeps())
	}()

	return out, nil
}

// probePort checks one port with a TCP connect. Any dial failure
// means closed; the distinction between refused, unreachable, and
// timed out does not survive past the probe.
func (e *Engine) probePort(ctx context.Context, dialer probe.Dialer, host string, port uint16) portOutcome {
	start := time.Now()
	err := dialer.Dial(ctx, host, port)
	duration := time.Since(start)

	oc := portOutcome{port: port}
	switch {
	case err == nil:
		oc.open = true
		metrics.RecordProbeDuration(sweepTypePort, string(StatusOpen), duration)
	case ctx.Err() != nil:
		oc.canceled = true
	default:
		metrics.RecordProbeDuration(sweepTypePort, string(StatusClosed), duration)
	}
	metrics.RecordProbeDurationPrometheus(sweepTypePort, duration)
	return oc
}

func (e *Engine) hostEchoer(cfg HostSweepConfig) probe.Echoer {
	if e.echoer != nil {
		return e.echoer
	}
	return probe.NewPingEchoer(probe.EchoConfig{
		Timeout:    cfg.Timeout,
		Privileged: cfg.Privileged,
	})
}

func (e *Engine) portDialer(cfg PortSweepConfig) probe.Dialer {
	if e.dialer != nil {
		return e.dialer
	}
	return probe.NewTCPDialer(cfg.Timeout)
}
