// Package netcalc provides IPv4 address arithmetic for sweep target
// generation. All functions are pure: they operate on 32-bit address
// values and perform no network I/O.
package netcalc

import (
	"fmt"
	"net"
)

const ipv4Bits = 32

// Network describes the boundary addresses of an IPv4 network.
type Network struct {
	Network   net.IP
	First     net.IP
	Last      net.IP
	Broadcast net.IP
	Prefix    int
}

// IPToUint32 converts an IPv4 address to its 32-bit numeric form.
func IPToUint32(ip net.IP) (uint32, error) {
	v4 := ip.To4()
	if v4 == nil {
		return 0, fmt.Errorf("not an IPv4 address: %s", ip)
	}
	return uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3]), nil
}

// Uint32ToIP converts a 32-bit numeric address back to net.IP form.
func Uint32ToIP(value uint32) net.IP {
	return net.IPv4(byte(value>>24), byte(value>>16), byte(value>>8), byte(value))
}

// PrefixToMask returns the netmask for a prefix length between 0 and 32.
func PrefixToMask(prefix int) (net.IPMask, error) {
	if prefix < 0 || prefix > ipv4Bits {
		return nil, fmt.Errorf("invalid prefix length: %d", prefix)
	}
	return net.CIDRMask(prefix, ipv4Bits), nil
}

// MaskToPrefix returns the prefix length of a contiguous IPv4 netmask.
// Non-contiguous masks are rejected.
func MaskToPrefix(mask net.IPMask) (int, error) {
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	if len(mask) != net.IPv4len {
		return 0, fmt.Errorf("invalid mask length: %d bytes", len(mask))
	}
	ones, bits := mask.Size()
	if bits != ipv4Bits {
		return 0, fmt.Errorf("mask is not contiguous: %s", FormatMask(mask))
	}
	return ones, nil
}

// ParseMask parses a dotted-decimal netmask such as "255.255.255.0".
func ParseMask(s string) (net.IPMask, error) {
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("invalid netmask: %q", s)
	}
	mask := net.IPMask(ip.To4())
	if _, err := MaskToPrefix(mask); err != nil {
		return nil, err
	}
	return mask, nil
}

// FormatMask renders a netmask in dotted-decimal form.
func FormatMask(mask net.IPMask) string {
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	if len(mask) != net.IPv4len {
		return fmt.Sprintf("%v", []byte(mask))
	}
	return net.IP(mask).String()
}

// ParseCIDR parses CIDR notation and computes the network boundaries.
func ParseCIDR(cidr string) (*Network, error) {
	_, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
	}
	return FromIPNet(ipnet)
}

// FromIPNet computes the network boundaries of an IPv4 net.IPNet.
// For prefixes shorter than /31 the usable range excludes the network
// and broadcast addresses; /31 and /32 treat every address as a host.
func FromIPNet(ipnet *net.IPNet) (*Network, error) {
	base, err := IPToUint32(ipnet.IP)
	if err != nil {
		return nil, err
	}
	prefix, err := MaskToPrefix(ipnet.Mask)
	if err != nil {
		return nil, err
	}
	maskBits, err := PrefixToMask(prefix)
	if err != nil {
		return nil, err
	}
	maskValue, err := IPToUint32(net.IP(maskBits))
	if err != nil {
		return nil, err
	}

	network := base & maskValue
	broadcast := network | ^maskValue
	first, last := network, broadcast
	if prefix < 31 {
		first = network + 1
		last = broadcast - 1
	}

	return &Network{
		Network:   Uint32ToIP(network),
		First:     Uint32ToIP(first),
		Last:      Uint32ToIP(last),
		Broadcast: Uint32ToIP(broadcast),
		Prefix:    prefix,
	}, nil
}

// HostCount returns the number of usable host addresses in the network.
func (n *Network) HostCount() uint64 {
	size := uint64(1) << (ipv4Bits - n.Prefix)
	if n.Prefix < 31 {
		return size - 2
	}
	return size
}

// RangeFromCIDR returns the usable host boundaries of a CIDR as a
// numeric pair suitable for iteration.
func RangeFromCIDR(cidr string) (first, last uint32, err error) {
	network, err := ParseCIDR(cidr)
	if err != nil {
		return 0, 0, err
	}
	return boundaries(network)
}

// RangeFromMask resolves an address plus netmask to the usable host
// boundaries of the containing network.
func RangeFromMask(addr net.IP, mask net.IPMask) (first, last uint32, err error) {
	network, err := FromIPNet(&net.IPNet{IP: addr, Mask: mask})
	if err != nil {
		return 0, 0, err
	}
	return boundaries(network)
}

func boundaries(n *Network) (uint32, uint32, error) {
	first, err := IPToUint32(n.First)
	if err != nil {
		return 0, 0, err
	}
	last, err := IPToUint32(n.Last)
	if err != nil {
		return 0, 0, err
	}
	return first, last, nil
}
