// Package arp provides read-only snapshots of the system ARP cache for
// MAC address lookup during host sweeps. A snapshot is taken once per
// sweep and shared by all probes; entries never change after the read.
package arp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
)

const procARPPath = "/proc/net/arp"

// Table maps IPv4 addresses to normalized MAC addresses
// (lowercase, colon-separated, two digits per octet).
type Table map[string]string

// commandPattern matches `arp -a` entries of the form
// `host (192.168.1.1) at aa:bb:cc:dd:ee:ff ...` on Linux, macOS and BSD.
var commandPattern = regexp.MustCompile(`\((\d+\.\d+\.\d+\.\d+)\) at ([0-9a-fA-F:-]+)`)

// tablePattern matches the Windows `arp -a` table layout of
// address and MAC columns separated by whitespace.
var tablePattern = regexp.MustCompile(`^\s*(\d+\.\d+\.\d+\.\d+)\s+([0-9a-fA-F-]{11,17})\s`)

// Snapshot reads the current ARP cache. On Linux it parses
// /proc/net/arp directly; other platforms fall back to parsing
// `arp -a` output. Incomplete entries are omitted.
func Snapshot(ctx context.Context) (Table, error) {
	if runtime.GOOS == "linux" {
		table, err := snapshotProc(procARPPath)
		if err == nil {
			return table, nil
		}
		// /proc may be unavailable in minimal containers
	}
	return snapshotCommand(ctx)
}

// Lookup returns the MAC address recorded for an exact IPv4 match.
func (t Table) Lookup(ip string) (string, bool) {
	mac, ok := t[ip]
	return mac, ok
}

func snapshotProc(path string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading ARP table: %w", err)
	}
	defer file.Close()
	return parseProcTable(file)
}

// parseProcTable parses the /proc/net/arp format:
//
//	IP address  HW type  Flags  HW address  Mask  Device
//
// Entries with flags 0x0 or an all-zero MAC are incomplete and skipped.
func parseProcTable(r io.Reader) (Table, error) {
	table := make(Table)
	scanner := bufio.NewScanner(r)

	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false // header row
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		ip, flags, hwAddr := fields[0], fields[2], fields[3]
		if flags == "0x0" {
			continue
		}
		mac, ok := normalizeMAC(hwAddr)
		if !ok {
			continue
		}
		table[ip] = mac
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ARP table: %w", err)
	}
	return table, nil
}

func snapshotCommand(ctx context.Context) (Table, error) {
	cmd := exec.CommandContext(ctx, "arp", "-a")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("running arp -a: %w", err)
	}
	return parseCommandOutput(string(output)), nil
}

// parseCommandOutput extracts address/MAC pairs from `arp -a` output.
// Both the `host (ip) at mac` form and the Windows column layout are
// recognized; `(incomplete)` entries never match the MAC pattern.
func parseCommandOutput(output string) Table {
	table := make(Table)
	for _, line := range strings.Split(output, "\n") {
		var ip, hwAddr string
		if m := commandPattern.FindStringSubmatch(line); m != nil {
			ip, hwAddr = m[1], m[2]
		} else if m := tablePattern.FindStringSubmatch(line); m != nil {
			ip, hwAddr = m[1], m[2]
		} else {
			continue
		}
		mac, ok := normalizeMAC(hwAddr)
		if !ok {
			continue
		}
		table[ip] = mac
	}
	return table
}

// normalizeMAC canonicalizes a MAC address to lowercase colon-separated
// form with zero-padded octets. BSD arp output drops leading zeros
// (`0:50:56:c0:0:8`) and Windows uses dashes. All-zero addresses are
// rejected as incomplete.
func normalizeMAC(s string) (string, bool) {
	s = strings.ToLower(strings.ReplaceAll(s, "-", ":"))
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return "", false
	}
	allZero := true
	for i, part := range parts {
		if len(part) == 0 || len(part) > 2 {
			return "", false
		}
		for _, c := range part {
			if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
				return "", false
			}
		}
		if len(part) == 1 {
			part = "0" + part
			parts[i] = part
		}
		if part != "00" {
			allZero = false
		}
	}
	if allZero {
		return "", false
	}
	return strings.Join(parts, ":"), true
}
