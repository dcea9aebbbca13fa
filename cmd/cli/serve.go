package cli

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anstrom/netsweep/internal/config"
	"github.com/anstrom/netsweep/internal/daemon"
)

var serveAPIAddress string

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the netsweep daemon",
	Long: `Run netsweep as a long-lived daemon serving the REST API, the
WebSocket progress stream, and scheduled sweeps. The daemon runs in
the foreground; process supervision belongs to the init system.

SIGTERM and SIGINT stop the daemon, SIGHUP reloads the configuration
file, SIGUSR1 writes a status record to the log, and SIGUSR2 toggles
debug health reporting.`,
	Example: `  netsweep serve
  netsweep serve --config /etc/netsweep/config.yaml
  netsweep serve --api-address 0.0.0.0:8080`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAPIAddress, "api-address", "", "Override the API listen address (host:port)")
	serveCmd.Flags().Lookup("api-address").Usage = "API listen address as host:port; overrides the config file and enables the API"
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load(getConfigFilePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if serveAPIAddress != "" {
		if err := applyAPIAddress(cfg, serveAPIAddress); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if verbose {
		fmt.Printf("Starting daemon with configuration:\n")
		fmt.Printf("  PID file: %s\n", cfg.Daemon.PIDFile)
		fmt.Printf("  API enabled: %t\n", cfg.IsAPIEnabled())
		if cfg.IsAPIEnabled() {
			fmt.Printf("  API address: %s\n", cfg.GetAPIAddress())
		}
		fmt.Printf("  Scheduler enabled: %t\n", cfg.Scheduler.Enabled)
	}

	d := daemon.New(cfg)
	if used := viper.ConfigFileUsed(); used != "" {
		// SIGHUP reloads from the file actually in use.
		d.SetConfigPath(used)
	}

	fmt.Printf("Starting netsweep daemon...\n")
	if err := d.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting daemon: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Daemon stopped")
}

// applyAPIAddress overrides the configured API listen address from a
// host:port flag value and enables the API server.
func applyAPIAddress(cfg *config.Config, address string) error {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("invalid API address %q: %w", address, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid API port %q", portStr)
	}
	if host == "" {
		host = "0.0.0.0"
	}
	cfg.API.Enabled = true
	cfg.API.ListenAddr = host
	cfg.API.Port = port
	return nil
}
