// Package sweep implements the host and port sweep engines for
// netsweep. A sweep enumerates its targets up front, fans probes out
// over a bounded worker pool, and streams results back in completion
// order while reporting monotonic progress. Transient probe failures
// are downgraded to status values; only configuration problems abort
// a sweep before it starts.
package sweep

import "time"

// Status describes the outcome of a single probe.
type Status string

const (
	// StatusUp marks a host that answered an echo probe.
	StatusUp Status = "up"
	// StatusDown marks a host that never answered.
	StatusDown Status = "down"
	// StatusOpen marks a port that accepted a TCP connection.
	StatusOpen Status = "open"
	// StatusClosed marks a port that refused or timed out.
	StatusClosed Status = "closed"
)

// HostResult is one record of a host sweep. Hostname and MAC are
// populated only when the corresponding lookup is enabled and
// succeeded; the extended echo metrics are populated only when
// requested and the host answered.
type HostResult struct {
	Address        string `json:"address" yaml:"address"`
	Status         Status `json:"status" yaml:"status"`
	Hostname       string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	MAC            string `json:"mac,omitempty" yaml:"mac,omitempty"`
	Extended       bool   `json:"extended,omitempty" yaml:"extended,omitempty"`
	BufferSize     int    `json:"buffer_size,omitempty" yaml:"buffer_size,omitempty"`
	ResponseTimeMS int64  `json:"response_time_ms,omitempty" yaml:"response_time_ms,omitempty"`
	TTL            int    `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// PortResult is one record of a port sweep. Only open ports are ever
// emitted; the service fields are filled from the registry when
// enrichment is requested and the port is known.
type PortResult struct {
	Port               uint16 `json:"port" yaml:"port"`
	Protocol           string `json:"protocol" yaml:"protocol"`
	Status             Status `json:"status" yaml:"status"`
	ServiceName        string `json:"service_name,omitempty" yaml:"service_name,omitempty"`
	ServiceDescription string `json:"service_description,omitempty" yaml:"service_description,omitempty"`
}

// Progress is a point-in-time completion snapshot for one sweep.
// Percent is non-decreasing over the sweep's life and reaches exactly
// 100 when every target has been probed; an empty target set is 100
// from the start.
type Progress struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Percent   float64 `json:"percent"`
}

func newProgress(total, completed int) Progress {
	p := Progress{Total: total, Completed: completed}
	if total <= 0 {
		p.Percent = 100
		return p
	}
	p.Percent = float64(completed) * 100 / float64(total)
	return p
}

// Elapsed reports how long a sweep has been running, capped at the
// completion time once finished.
func Elapsed(started time.Time, completed *time.Time) time.Duration {
	if completed != nil {
		return completed.Sub(started)
	}
	return time.Since(started)
}
