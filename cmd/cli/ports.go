package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/anstrom/netsweep/internal/config"
	"github.com/anstrom/netsweep/internal/services"
	"github.com/anstrom/netsweep/internal/sweep"
)

var (
	portsStart    uint16
	portsEnd      uint16
	portsThreads  int
	portsServices bool
	portsTimeout  time.Duration
	portsOutput   string
)

// portsCmd represents the ports command.
var portsCmd = &cobra.Command{
	Use:   "ports HOST",
	Short: "Sweep a host for open TCP ports",
	Long: `Probe every TCP port in a range on a single host with connect
attempts and report the ports that accepted. The host can be an IPv4
address or a name; names are resolved once before the sweep starts.

With --services, open ports are annotated with well-known service
names from the built-in table, extended by the services file named in
the configuration.`,
	Example: `  netsweep ports 192.168.1.10
  netsweep ports fileserver -s 1 -e 1024
  netsweep ports 192.168.1.10 --start 8000 --end 9000 --threads 256
  netsweep ports 192.168.1.10 -e 1024 --services --output json`,
	Args: cobra.ExactArgs(1),
	Run:  runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)

	portsCmd.Flags().Uint16VarP(&portsStart, "start", "s", 0, "First port to probe (default 1)")
	portsCmd.Flags().Uint16VarP(&portsEnd, "end", "e", 0, "Last port to probe (default 65535)")
	portsCmd.Flags().IntVar(&portsThreads, "threads", 0, "Concurrent probes (0 = configured default)")
	portsCmd.Flags().BoolVar(&portsServices, "services", false, "Annotate open ports with service names")
	portsCmd.Flags().DurationVar(&portsTimeout, "timeout", 0, "Per-connect timeout (0 = configured default)")
	portsCmd.Flags().StringVar(&portsOutput, "output", outputTable, "Output format: table, json")

	portsCmd.Flags().Lookup("timeout").Usage = "Per-connect timeout, e.g. 500ms or 1s (0 = configured default)"
}

func runPorts(_ *cobra.Command, args []string) {
	if err := validateOutputFormat(portsOutput); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(getConfigFilePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	sweepCfg := cfg.PortSweepBase()
	sweepCfg.Host = args[0]
	sweepCfg.StartPort = portsStart
	sweepCfg.EndPort = portsEnd
	if portsThreads > 0 {
		sweepCfg.Threads = portsThreads
	}
	if portsTimeout > 0 {
		sweepCfg.Timeout = portsTimeout
	}
	sweepCfg.WithServiceNames = portsServices

	if verbose {
		fmt.Fprintf(os.Stderr, "Sweeping ports on %s with %d threads\n", args[0], sweepCfg.Threads)
	}

	registry := newServiceRegistry(cfg)
	showProgress := portsOutput == outputTable
	results, total, elapsed, err := collectPortResults(context.Background(), registry, sweepCfg, showProgress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: port sweep failed: %v\n", err)
		os.Exit(1)
	}

	// Open ports stream in completion order; show them ascending.
	sort.Slice(results, func(i, j int) bool { return results[i].Port < results[j].Port })

	if portsOutput == outputJSON {
		if err := displayPortsJSON(args[0], results, total, elapsed); err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
			os.Exit(1)
		}
		return
	}
	displayPortsTable(results, portsServices, total, elapsed)
}

// newServiceRegistry builds the service-name registry for a one-shot
// sweep. A configured services file that fails to load is reported
// and skipped; the built-in table still applies.
func newServiceRegistry(cfg *config.Config) *services.Registry {
	registry := services.NewRegistry()
	if cfg.Sweep.ServicesFile == "" {
		return registry
	}
	if err := registry.LoadFile(cfg.Sweep.ServicesFile); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: services file %s not loaded: %v\n", cfg.Sweep.ServicesFile, err)
	}
	return registry
}

func collectPortResults(
	ctx context.Context,
	registry *services.Registry,
	cfg sweep.PortSweepConfig,
	showProgress bool,
) (results []sweep.PortResult, total int, elapsed time.Duration, err error) {
	meter := progressMeter(os.Stderr)
	cfg.OnProgress = func(p sweep.Progress) {
		total = p.Total
		if showProgress {
			meter(p)
		}
	}

	engine := sweep.NewEngine(registry)
	started := time.Now()
	stream, err := engine.SweepPorts(ctx, cfg)
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

func displayPortsTable(results []sweep.PortResult, withServices bool, total int, elapsed time.Duration) {
	if len(results) > 0 {
		table := tablewriter.NewWriter(os.Stdout)
		if withServices {
			table.Header("Port", "Protocol", "Status", "Service", "Description")
		} else {
			table.Header("Port", "Protocol", "Status")
		}
		for i := range results {
			_ = table.Append(portTableRow(&results[i], withServices))
		}
		_ = table.Render()
	}

	fmt.Printf("\n%d open ports of %d probed (%s)\n", len(results), total, elapsed.Round(time.Millisecond))
}

func portTableRow(result *sweep.PortResult, withServices bool) []string {
	row := []string{
		strconv.Itoa(int(result.Port)),
		result.Protocol,
		string(result.Status),
	}
	if withServices {
		row = append(row, result.ServiceName, result.ServiceDescription)
	}
	return row
}

func displayPortsJSON(host string, results []sweep.PortResult, total int, elapsed time.Duration) error {
	if results == nil {
		results = []sweep.PortResult{}
	}
	output := struct {
		Host     string             `json:"host"`
		Total    int                `json:"total_ports"`
		Count    int                `json:"count"`
		Duration string             `json:"duration"`
		Ports    []sweep.PortResult `json:"ports"`
	}{
		Host:     host,
		Total:    total,
		Count:    len(results),
		Duration: elapsed.Round(time.Millisecond).String(),
		Ports:    results,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
