package probe

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"syscall"
	"time"
)

const defaultDialTimeout = 2 * time.Second

// Dialer attempts a TCP connection to decide whether a port accepts
// connections. A nil return means the port is open; the connection is
// never held beyond the check.
type Dialer interface {
	Dial(ctx context.Context, host string, port uint16) error
}

// TCPDialer is the production Dialer using the OS connect path.
type TCPDialer struct {
	timeout time.Duration
}

var _ Dialer = (*TCPDialer)(nil)

// NewTCPDialer creates a Dialer with the given connect timeout.
func NewTCPDialer(timeout time.Duration) *TCPDialer {
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	return &TCPDialer{timeout: timeout}
}

// Dial connects to host:port and closes the connection immediately on
// success.
func (d *TCPDialer) Dial(ctx context.Context, host string, port uint16) error {
	dialer := &net.Dialer{Timeout: d.timeout}
	address := net.JoinHostPort(host, strconv.Itoa(int(port)))

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return err
	}
	_ = conn.Close()
	return nil
}

// ClassifyDialError buckets a connect failure for metrics labels.
// Callers only distinguish open from closed; the finer classification
// is observability-only.
func ClassifyDialError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "refused"
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		return "unreachable"
	case os.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "timeout"
		}
		return "error"
	}
}
