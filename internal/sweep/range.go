package sweep

import (
	"fmt"
	"net"

	"github.com/anstrom/netsweep/internal/errors"
	"github.com/anstrom/netsweep/internal/netcalc"
)

// HostRange is an inclusive span of IPv4 addresses with optional
// last-octet exclusions. Enumeration is ascending and consumed once
// per sweep.
type HostRange struct {
	first   uint32
	last    uint32
	exclude map[uint8]struct{}
	label   string
}

// NewHostRange builds a range from explicit start and end addresses.
// The start must not exceed the end; that is a configuration error
// checked here, before any probing.
func NewHostRange(start, end string) (*HostRange, error) {
	first, err := parseIPv4(start, "start")
	if err != nil {
		return nil, err
	}
	last, err := parseIPv4(end, "end")
	if err != nil {
		return nil, err
	}
	if first > last {
		return nil, errors.NewConfigFieldError(errors.CodeRangeInvalid,
			"range start exceeds range end", "start", start)
	}
	return &HostRange{
		first: first,
		last:  last,
		label: fmt.Sprintf("%s-%s", netcalc.Uint32ToIP(first), netcalc.Uint32ToIP(last)),
	}, nil
}

// HostRangeFromCIDR builds a range covering the usable hosts of a
// CIDR network. Network and broadcast addresses are excluded for
// prefixes shorter than /31.
func HostRangeFromCIDR(cidr string) (*HostRange, error) {
	first, last, err := netcalc.RangeFromCIDR(cidr)
	if err != nil {
		return nil, errors.NewConfigFieldError(errors.CodeTargetInvalid,
			"invalid CIDR network", "cidr", cidr).WithCause(err)
	}
	return &HostRange{first: first, last: last, label: cidr}, nil
}

// HostRangeFromMask builds a range from a base address plus a
// dotted-decimal subnet mask.
func HostRangeFromMask(address, mask string) (*HostRange, error) {
	ip := net.ParseIP(address)
	if ip == nil || ip.To4() == nil {
		return nil, errors.NewConfigFieldError(errors.CodeTargetInvalid,
			"invalid IPv4 address", "address", address)
	}
	parsedMask, err := netcalc.ParseMask(mask)
	if err != nil {
		return nil, errors.NewConfigFieldError(errors.CodeTargetInvalid,
			"invalid subnet mask", "mask", mask).WithCause(err)
	}
	first, last, err := netcalc.RangeFromMask(ip, parsedMask)
	if err != nil {
		return nil, errors.NewConfigFieldError(errors.CodeTargetInvalid,
			"address and mask do not form a network", "address", address).WithCause(err)
	}
	return &HostRange{
		first: first,
		last:  last,
		label: fmt.Sprintf("%s/%s", address, mask),
	}, nil
}

// Exclude removes every address whose last octet matches one of the
// given values.
func (r *HostRange) Exclude(octets ...uint8) {
	if r.exclude == nil {
		r.exclude = make(map[uint8]struct{}, len(octets))
	}
	for _, o := range octets {
		r.exclude[o] = struct{}{}
	}
}

// String returns the range in the form it was specified.
func (r *HostRange) String() string {
	return r.label
}

// Size returns the number of targets the range enumerates to,
// accounting for exclusions.
func (r *HostRange) Size() int {
	if len(r.exclude) == 0 {
		return int(uint64(r.last-r.first) + 1)
	}
	size := 0
	for value := r.first; ; value++ {
		if _, skip := r.exclude[uint8(value&0xff)]; !skip {
			size++
		}
		if value == r.last {
			break
		}
	}
	return size
}

// Enumerate materializes the targets in ascending address order.
func (r *HostRange) Enumerate() []string {
	targets := make([]string, 0, r.Size())
	for value := r.first; ; value++ {
		if _, skip := r.exclude[uint8(value&0xff)]; !skip {
			targets = append(targets, netcalc.Uint32ToIP(value).String())
		}
		if value == r.last {
			break
		}
	}
	return targets
}

// PortRange is an inclusive span of TCP port numbers.
type PortRange struct {
	first uint16
	last  uint16
}

// NewPortRange builds a port range. Port zero is not sweepable and the
// start must not exceed the end.
func NewPortRange(start, end uint16) (*PortRange, error) {
	if start == 0 {
		return nil, errors.NewConfigFieldError(errors.CodeRangeInvalid,
			"port range starts below 1", "start_port", start)
	}
	if start > end {
		return nil, errors.NewConfigFieldError(errors.CodeRangeInvalid,
			"port range start exceeds end", "start_port", start)
	}
	return &PortRange{first: start, last: end}, nil
}

// String returns the range as "first-last".
func (r *PortRange) String() string {
	return fmt.Sprintf("%d-%d", r.first, r.last)
}

// Size returns the number of ports in the range.
func (r *PortRange) Size() int {
	return int(r.last-r.first) + 1
}

// Enumerate materializes the ports in ascending order.
func (r *PortRange) Enumerate() []uint16 {
	ports := make([]uint16, 0, r.Size())
	for port := r.first; ; port++ {
		ports = append(ports, port)
		if port == r.last {
			break
		}
	}
	return ports
}

func parseIPv4(s, field string) (uint32, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return 0, errors.NewConfigFieldError(errors.CodeTargetInvalid,
			"invalid IPv4 address", field, s)
	}
	value, err := netcalc.IPToUint32(ip)
	if err != nil {
		return 0, errors.NewConfigFieldError(errors.CodeTargetInvalid,
			"address is not IPv4", field, s)
	}
	return value, nil
}
