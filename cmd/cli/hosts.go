package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/anstrom/netsweep/internal/config"
	"github.com/anstrom/netsweep/internal/netcalc"
	"github.com/anstrom/netsweep/internal/sweep"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

var (
	hostsMask            string
	hostsThreads         int
	hostsAttempts        int
	hostsTimeout         time.Duration
	hostsNoDNS           bool
	hostsNoMAC           bool
	hostsExtended        bool
	hostsIncludeInactive bool
	hostsExclude         string
	hostsOutput          string
)

// hostsCmd represents the hosts command.
var hostsCmd = &cobra.Command{
	Use:   "hosts TARGET",
	Short: "Sweep an address range with ICMP echo probes",
	Long: `Sweep every IPv4 address in a target range with ICMP echo probes and
report which hosts answered. Reachable hosts are annotated with their
reverse DNS name and, for neighbors on the local segment, their MAC
address from the ARP cache.

The target can be an explicit address range, a CIDR network, or a bare
network address combined with --mask.`,
	Example: `  netsweep hosts 192.168.1.1-192.168.1.254
  netsweep hosts 192.168.1.0/24
  netsweep hosts 192.168.1.0 --mask 255.255.255.0
  netsweep hosts 10.0.0.0/22 --exclude 0,255 --threads 128
  netsweep hosts 192.168.1.0/24 --extended --output json`,
	Args: cobra.ExactArgs(1),
	Run:  runHosts,
}

func init() {
	rootCmd.AddCommand(hostsCmd)

	hostsCmd.Flags().StringVar(&hostsMask, "mask", "", "Subnet mask for a bare network address")
	hostsCmd.Flags().IntVar(&hostsThreads, "threads", 0, "Concurrent probes (0 = configured default)")
	hostsCmd.Flags().IntVar(&hostsAttempts, "attempts", 0, "Echo attempts per host (0 = configured default)")
	hostsCmd.Flags().DurationVar(&hostsTimeout, "timeout", 0, "Per-probe timeout (0 = configured default)")
	hostsCmd.Flags().BoolVar(&hostsNoDNS, "no-dns", false, "Skip reverse DNS lookups")
	hostsCmd.Flags().BoolVar(&hostsNoMAC, "no-mac", false, "Skip ARP cache MAC lookups")
	hostsCmd.Flags().BoolVar(&hostsExtended, "extended", false, "Report buffer size, response time, and TTL")
	hostsCmd.Flags().BoolVar(&hostsIncludeInactive, "include-inactive", false, "Report unreachable hosts as well")
	hostsCmd.Flags().StringVar(&hostsExclude, "exclude", "", "Last octets to skip (comma-separated)")
	hostsCmd.Flags().StringVar(&hostsOutput, "output", outputTable, "Output format: table, json")

	// Add detailed flag descriptions
	hostsCmd.Flags().Lookup("mask").Usage = "Dotted-decimal subnet mask (e.g. 255.255.255.0), only with a bare network address"
	hostsCmd.Flags().Lookup("exclude").Usage = "Skip addresses whose last octet matches (e.g. '0,255' for network and broadcast)"
	hostsCmd.Flags().Lookup("timeout").Usage = "Per-probe timeout, e.g. 500ms or 2s (0 = configured default)"
}

func runHosts(_ *cobra.Command, args []string) {
	if err := validateOutputFormat(hostsOutput); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	excludes, err := parseExcludeOctets(hostsExclude)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid exclude list '%s': %v\n", hostsExclude, err)
		os.Exit(1)
	}

	cfg, err := config.Load(getConfigFilePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	sweepCfg := cfg.HostSweepBase()
	if err := applyHostTarget(&sweepCfg, args[0], hostsMask); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Flags override the configured defaults; zero keeps them.
	if hostsThreads > 0 {
		sweepCfg.Threads = hostsThreads
	}
	if hostsAttempts > 0 {
		sweepCfg.Attempts = hostsAttempts
	}
	if hostsTimeout > 0 {
		sweepCfg.Timeout = hostsTimeout
	}
	sweepCfg.ExcludeLastOctets = excludes
	sweepCfg.DisableDNS = hostsNoDNS
	sweepCfg.DisableMAC = hostsNoMAC
	sweepCfg.Extended = hostsExtended
	sweepCfg.IncludeInactive = hostsIncludeInactive

	if verbose {
		fmt.Fprintf(os.Stderr, "Sweeping %s with %d threads, %d attempts\n",
			args[0], sweepCfg.Threads, sweepCfg.Attempts)
	}

	showProgress := hostsOutput == outputTable
	results, total, elapsed, err := collectHostResults(context.Background(), sweepCfg, showProgress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: host sweep failed: %v\n", err)
		os.Exit(1)
	}

	sortHostResults(results)

	if hostsOutput == outputJSON {
		if err := displayHostsJSON(args[0], results, total, elapsed); err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
			os.Exit(1)
		}
		return
	}
	displayHostsTable(results, &sweepCfg, total, elapsed)
}

// collectHostResults runs a host sweep to completion and drains the
// stream. The probed-target total is taken from the final progress
// snapshot; the engine's collector publishes it before closing the
// stream.
func collectHostResults(
	ctx context.Context,
	cfg sweep.HostSweepConfig,
	showProgress bool,
) (results []sweep.HostResult, total int, elapsed time.Duration, err error) {
	meter := progressMeter(os.Stderr)
	cfg.OnProgress = func(p sweep.Progress) {
		total = p.Total
		if showProgress {
			meter(p)
		}
	}

	engine := sweep.NewEngine(nil)
	started := time.Now()
	stream, err := engine.SweepHosts(ctx, cfg)
	if err != nil {
		return nil, 0, 0, err
	}
	for result := range stream {
		results = append(results, result)
	}
	if showProgress {
		fmt.Fprintln(os.Stderr)
	}
	return results, total, time.Since(started), nil
}

// progressMeter returns a progress callback that redraws a single
// status line. Callbacks run on the sweep's collector goroutine, so
// the meter only formats and writes.
func progressMeter(w io.Writer) func(sweep.Progress) {
	return func(p sweep.Progress) {
		fmt.Fprintf(w, "\rSweeping... %5.1f%% (%d/%d)", p.Percent, p.Completed, p.Total)
	}
}

// applyHostTarget fills the target fields of cfg from the positional
// argument: an "A-B" address range, a CIDR network, or a bare network
// address combined with --mask.
func applyHostTarget(cfg *sweep.HostSweepConfig, target, mask string) error {
	switch {
	case strings.Contains(target, "/"):
		if mask != "" {
			return fmt.Errorf("--mask does not apply to a CIDR target")
		}
		cfg.CIDR = target
	case strings.Contains(target, "-"):
		if mask != "" {
			return fmt.Errorf("--mask does not apply to an address range")
		}
		parts := strings.SplitN(target, "-", 2)
		cfg.Start = strings.TrimSpace(parts[0])
		cfg.End = strings.TrimSpace(parts[1])
	default:
		if mask == "" {
			return fmt.Errorf("a bare network address requires --mask")
		}
		cfg.Address = target
		cfg.Mask = mask
	}
	return nil
}

// parseExcludeOctets parses a comma-separated list of last-octet
// values, each 0-255.
func parseExcludeOctets(list string) ([]uint8, error) {
	if list == "" {
		return nil, nil
	}
	parts := strings.Split(list, ",")
	octets := make([]uint8, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid octet %q", part)
		}
		octets = append(octets, uint8(value))
	}
	return octets, nil
}

func validateOutputFormat(format string) error {
	validFormats := map[string]bool{
		outputTable: true,
		outputJSON:  true,
	}
	if !validFormats[format] {
		return fmt.Errorf("invalid output format '%s' (valid: table, json)", format)
	}
	return nil
}

// sortHostResults orders results ascending by address. The engine
// streams in completion order; tables read better in address order.
func sortHostResults(results []sweep.HostResult) {
	sort.Slice(results, func(i, j int) bool {
		return addressKey(results[i].Address) < addressKey(results[j].Address)
	})
}

func addressKey(address string) uint32 {
	ip := net.ParseIP(address)
	if ip == nil {
		return 0
	}
	value, err := netcalc.IPToUint32(ip)
	if err != nil {
		return 0
	}
	return value
}

func displayHostsTable(results []sweep.HostResult, cfg *sweep.HostSweepConfig, total int, elapsed time.Duration) {
	up := 0
	for i := range results {
		if results[i].Status == sweep.StatusUp {
			up++
		}
	}

	if len(results) > 0 {
		table := tablewriter.NewWriter(os.Stdout)
		table.Header(hostTableHeader(cfg)...)
		for i := range results {
			_ = table.Append(hostTableRow(&results[i], cfg))
		}
		_ = table.Render()
	}

	fmt.Printf("\n%d of %d hosts up (%s)\n", up, total, elapsed.Round(time.Millisecond))
}

func hostTableHeader(cfg *sweep.HostSweepConfig) []any {
	header := []any{"Address", "Status"}
	if !cfg.DisableDNS {
		header = append(header, "Hostname")
	}
	if !cfg.DisableMAC {
		header = append(header, "MAC")
	}
	if cfg.Extended {
		header = append(header, "Buffer", "Time (ms)", "TTL")
	}
	return header
}

func hostTableRow(result *sweep.HostResult, cfg *sweep.HostSweepConfig) []string {
	row := []string{result.Address, string(result.Status)}
	if !cfg.DisableDNS {
		row = append(row, result.Hostname)
	}
	if !cfg.DisableMAC {
		row = append(row, result.MAC)
	}
	if cfg.Extended {
		if result.Extended {
			row = append(row,
				strconv.Itoa(result.BufferSize),
				strconv.FormatInt(result.ResponseTimeMS, 10),
				strconv.Itoa(result.TTL))
		} else {
			row = append(row, "", "", "")
		}
	}
	return row
}

func displayHostsJSON(target string, results []sweep.HostResult, total int, elapsed time.Duration) error {
	if results == nil {
		results = []sweep.HostResult{}
	}
	output := struct {
		Target   string             `json:"target"`
		Total    int                `json:"total_targets"`
		Count    int                `json:"count"`
		Duration string             `json:"duration"`
		Hosts    []sweep.HostResult `json:"hosts"`
	}{
		Target:   target,
		Total:    total,
		Count:    len(results),
		Duration: elapsed.Round(time.Millisecond).String(),
		Hosts:    results,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
