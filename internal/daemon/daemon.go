// Package daemon provides the background service functionality for
// netsweep. It wires the service registry, sweep engine, REST API
// server, and cron scheduler together and manages PID files, signal
// handling, and graceful shutdown for serve mode.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/anstrom/netsweep/internal/api"
	"github.com/anstrom/netsweep/internal/config"
	"github.com/anstrom/netsweep/internal/logging"
	"github.com/anstrom/netsweep/internal/scheduler"
	"github.com/anstrom/netsweep/internal/services"
	"github.com/anstrom/netsweep/internal/sweep"
)

const (
	// Interval between periodic self-checks in the main loop.
	healthCheckInterval = 10 * time.Second
)

// File permission constants.
const (
	dirPerm     = 0o750
	pidFilePerm = 0o600
)

// Daemon represents the main daemon process.
type Daemon struct {
	config     *config.Config
	configPath string
	registry   *services.Registry
	tracker    *sweep.Tracker
	apiServer  *api.Server
	scheduler  *scheduler.Scheduler
	pidFile    string
	logger     *logging.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	debugMode  bool
	mu         sync.RWMutex
}

// New creates a new daemon instance.
func New(cfg *config.Config) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		config:  cfg,
		pidFile: cfg.Daemon.PIDFile,
		logger:  logging.Default().WithComponent("daemon"),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// SetConfigPath records where the configuration was loaded from so a
// SIGHUP can reload it.
func (d *Daemon) SetConfigPath(path string) {
	d.configPath = path
}

// Start starts the daemon and blocks until shutdown.
func (d *Daemon) Start() error {
	if err := d.config.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := d.initLogging(); err != nil {
		return err
	}
	d.logger.Info("Starting netsweep daemon", "pid", os.Getpid())

	// Create working directory if needed
	if d.config.Daemon.WorkDir != "" {
		if err := os.MkdirAll(d.config.Daemon.WorkDir, dirPerm); err != nil {
			return fmt.Errorf("failed to create working directory: %w", err)
		}
		if err := os.Chdir(d.config.Daemon.WorkDir); err != nil {
			return fmt.Errorf("failed to change to working directory: %w", err)
		}
	}

	if err := d.createPIDFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}

	if err := d.initRegistry(); err != nil {
		d.cleanup()
		return err
	}
	d.tracker = sweep.NewTracker(sweep.NewEngine(d.registry))

	if err := d.initAPIServer(); err != nil {
		d.cleanup()
		return fmt.Errorf("failed to initialize API server: %w", err)
	}

	if err := d.initScheduler(); err != nil {
		d.cleanup()
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	// Components are in place; signals may now reach the handlers.
	d.setupSignalHandlers()

	d.logger.Info("Daemon started successfully")
	return d.run()
}

// Stop stops the daemon gracefully.
func (d *Daemon) Stop() error {
	d.logger.Info("Stopping daemon")

	// Cancel context to signal shutdown
	d.cancel()

	d.mu.RLock()
	timeout := d.config.Daemon.ShutdownTimeout
	d.mu.RUnlock()

	// Wait for graceful shutdown with timeout
	select {
	case <-d.done:
		d.logger.Info("Daemon stopped gracefully")
	case <-time.After(timeout):
		d.logger.Warn("Shutdown timeout reached, forcing exit")
	}
	return nil
}

// initLogging replaces the default logger with one built from the
// configuration. The daemon logs through it from here on.
func (d *Daemon) initLogging() error {
	logger, err := logging.New(logging.Config{
		Level:     logging.LogLevel(d.config.Logging.Level),
		Format:    logging.LogFormat(d.config.Logging.Format),
		Output:    d.config.Logging.Output,
		AddSource: d.config.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	logging.SetDefault(logger)
	d.logger = logger.WithComponent("daemon")
	return nil
}

// initRegistry builds the service registry, merging the configured
// services file over the built-in table when one is set.
func (d *Daemon) initRegistry() error {
	d.registry = services.NewRegistry()

	if path := d.config.Sweep.ServicesFile; path != "" {
		if err := d.registry.LoadFile(path); err != nil {
			return fmt.Errorf("failed to load services file: %w", err)
		}
		d.logger.Info("Loaded services file",
			"path", path, "services", d.registry.Len())
	}
	return nil
}

// initAPIServer initializes the API server.
func (d *Daemon) initAPIServer() error {
	if !d.config.IsAPIEnabled() {
		d.logger.Info("API server disabled, skipping initialization")
		return nil
	}

	apiServer, err := api.New(d.config, d.tracker)
	if err != nil {
		return fmt.Errorf("API server creation failed: %w", err)
	}

	d.apiServer = apiServer
	d.logger.Info("API server initialized", "address", d.config.GetAPIAddress())
	return nil
}

// initScheduler builds the scheduler from the configured entries.
func (d *Daemon) initScheduler() error {
	if !d.config.Scheduler.Enabled {
		d.logger.Info("Scheduler disabled, skipping initialization")
		return nil
	}

	sched, err := d.buildScheduler(d.config)
	if err != nil {
		return fmt.Errorf("scheduler creation failed: %w", err)
	}

	d.scheduler = sched
	d.logger.Info("Scheduler initialized", "entries", len(d.config.Scheduler.Entries))
	return nil
}

// buildScheduler registers every configured schedule entry on a fresh
// scheduler. Entries inherit the configured sweep defaults for any
// knob they leave unset.
func (d *Daemon) buildScheduler(cfg *config.Config) (*scheduler.Scheduler, error) {
	sched := scheduler.New(d.tracker)
	hostBase := cfg.HostSweepBase()
	portBase := cfg.PortSweepBase()

	for i := range cfg.Scheduler.Entries {
		entry := &cfg.Scheduler.Entries[i]

		var err error
		switch entry.Kind {
		case "hosts":
			err = sched.AddHostJob(entry.Name, entry.Cron, mergeHostJob(hostBase, entry.Hosts))
		case "ports":
			err = sched.AddPortJob(entry.Name, entry.Cron, mergePortJob(portBase, entry.Ports))
		}
		if err != nil {
			return nil, fmt.Errorf("schedule entry %q: %w", entry.Name, err)
		}
	}
	return sched, nil
}

// mergeHostJob fills unset knobs of a scheduled host sweep from the
// configured defaults. The daemon-wide privileged flag applies to
// every scheduled sweep.
func mergeHostJob(base sweep.HostSweepConfig, job *sweep.HostSweepConfig) sweep.HostSweepConfig {
	out := *job
	if out.Threads <= 0 {
		out.Threads = base.Threads
	}
	if out.Attempts <= 0 {
		out.Attempts = base.Attempts
	}
	if out.Timeout <= 0 {
		out.Timeout = base.Timeout
	}
	if out.MaxTargets <= 0 {
		out.MaxTargets = base.MaxTargets
	}
	if base.Privileged {
		out.Privileged = true
	}
	return out
}

// mergePortJob fills unset knobs of a scheduled port sweep from the
// configured defaults.
func mergePortJob(base sweep.PortSweepConfig, job *sweep.PortSweepConfig) sweep.PortSweepConfig {
	out := *job
	if out.Threads <= 0 {
		out.Threads = base.Threads
	}
	if out.Timeout <= 0 {
		out.Timeout = base.Timeout
	}
	return out
}

// createPIDFile creates the PID file.
func (d *Daemon) createPIDFile() error {
	if d.pidFile == "" {
		return nil // No PID file configured
	}

	if err := os.MkdirAll(filepath.Dir(d.pidFile), dirPerm); err != nil {
		return fmt.Errorf("failed to create PID file directory: %w", err)
	}

	if err := d.checkExistingPID(); err != nil {
		return err
	}

	pid := os.Getpid()
	if err := os.WriteFile(d.pidFile, []byte(strconv.Itoa(pid)), pidFilePerm); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	d.logger.Info("Created PID file", "path", d.pidFile, "pid", pid)
	return nil
}

// checkExistingPID refuses to start when the PID file names a live
// process and removes stale or malformed files.
func (d *Daemon) checkExistingPID() error {
	data, err := os.ReadFile(d.pidFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read existing PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		// Malformed PID file, remove it
		_ = os.Remove(d.pidFile)
		return nil
	}

	if pidAlive(pid) {
		return fmt.Errorf("daemon already running with PID %d", pid)
	}

	// Remove stale PID file
	_ = os.Remove(d.pidFile)
	return nil
}

// pidAlive checks whether a process with the given PID is running.
func pidAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// setupSignalHandlers sets up signal handling for graceful shutdown
// and runtime control.
func (d *Daemon) setupSignalHandlers() {
	sigChan := make(chan os.Signal, 1)

	signal.Notify(sigChan,
		syscall.SIGTERM, // Termination signal
		syscall.SIGINT,  // Interrupt signal (Ctrl+C)
		syscall.SIGHUP,  // Reload configuration
		syscall.SIGUSR1, // Dump status
		syscall.SIGUSR2, // Toggle debug mode
	)

	go func() {
		for sig := range sigChan {
			d.logger.Info("Received signal", "signal", sig.String())

			switch sig {
			case syscall.SIGTERM, syscall.SIGINT:
				d.logger.Info("Initiating graceful shutdown")
				d.cancel()
				return
			case syscall.SIGHUP:
				if err := d.reloadConfiguration(); err != nil {
					d.logger.Error("Configuration reload failed", "error", err)
				} else {
					d.logger.Info("Configuration reloaded successfully")
				}
			case syscall.SIGUSR1:
				d.dumpStatus()
			case syscall.SIGUSR2:
				d.toggleDebugMode()
			}
		}
	}()
}

// run executes the main daemon loop.
func (d *Daemon) run() error {
	defer close(d.done)
	defer d.cleanup()

	if d.apiServer != nil {
		go func() {
			d.logger.Info("Starting API server", "address", d.config.GetAPIAddress())
			if err := d.apiServer.Start(d.ctx); err != nil {
				d.logger.Error("API server terminated", "error", err)
			}
		}()
	}

	if d.scheduler != nil {
		if err := d.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	for {
		select {
		case <-d.ctx.Done():
			d.logger.Info("Shutdown signal received")
			return nil

		case <-time.After(healthCheckInterval):
			d.performHealthCheck()
		}
	}
}

// performHealthCheck performs periodic self-checks from the main loop.
func (d *Daemon) performHealthCheck() {
	d.mu.RLock()
	apiServer := d.apiServer
	cfg := d.config
	debugMode := d.debugMode
	d.mu.RUnlock()

	if apiServer != nil && !apiServer.IsRunning() {
		d.logger.Warn("API server is not accepting connections",
			"address", cfg.GetAPIAddress())
	}

	if debugMode && d.tracker != nil {
		d.logger.Info("Daemon health",
			"active_sweeps", d.tracker.Engine().ActiveSweeps(),
			"tracked_runs", len(d.tracker.List()),
			"goroutines", runtime.NumGoroutine())
	}
}

// cleanup stops the managed components and removes the PID file.
func (d *Daemon) cleanup() {
	d.logger.Info("Performing cleanup")

	d.mu.Lock()
	apiServer := d.apiServer
	sched := d.scheduler
	d.apiServer = nil
	d.scheduler = nil
	d.mu.Unlock()

	// Stop the scheduler first so no new sweeps start during shutdown
	if sched != nil {
		sched.Stop()
	}

	if apiServer != nil {
		if err := apiServer.Stop(); err != nil {
			d.logger.Error("Error stopping API server", "error", err)
		} else {
			d.logger.Info("API server stopped")
		}
	}

	if d.pidFile != "" {
		if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
			d.logger.Error("Error removing PID file", "path", d.pidFile, "error", err)
		}
	}

	d.logger.Info("Cleanup completed")
}

// reloadConfiguration reloads the daemon configuration from the file
// it was started with and rebuilds the components whose configuration
// changed. The tracker survives a reload, so tracked runs are kept.
func (d *Daemon) reloadConfiguration() error {
	if d.configPath == "" {
		return fmt.Errorf("no configuration file to reload from")
	}

	newConfig, err := config.Load(d.configPath)
	if err != nil {
		return fmt.Errorf("failed to load new configuration: %w", err)
	}

	d.mu.RLock()
	oldConfig := d.config
	d.mu.RUnlock()

	if d.registry != nil && newConfig.Sweep.ServicesFile != "" {
		if err := d.registry.LoadFile(newConfig.Sweep.ServicesFile); err != nil {
			d.logger.Warn("Failed to reload services file",
				"path", newConfig.Sweep.ServicesFile, "error", err)
		}
	}

	if d.hasAPIConfigChanged(oldConfig, newConfig) {
		d.restartAPIServer(newConfig)
	}
	if d.hasSchedulerConfigChanged(oldConfig, newConfig) {
		d.restartScheduler(newConfig)
	}

	d.mu.Lock()
	d.config = newConfig
	d.mu.Unlock()
	return nil
}

// hasAPIConfigChanged checks if the API server needs a rebuild. The
// handlers capture the sweep defaults when the server is built, so a
// defaults change needs one too.
func (d *Daemon) hasAPIConfigChanged(oldConfig, newConfig *config.Config) bool {
	return !reflect.DeepEqual(oldConfig.API, newConfig.API) ||
		!reflect.DeepEqual(oldConfig.Sweep, newConfig.Sweep)
}

// hasSchedulerConfigChanged checks if the scheduler needs a rebuild.
// Schedule entries inherit the sweep defaults at registration.
func (d *Daemon) hasSchedulerConfigChanged(oldConfig, newConfig *config.Config) bool {
	return !reflect.DeepEqual(oldConfig.Scheduler, newConfig.Scheduler) ||
		!reflect.DeepEqual(oldConfig.Sweep, newConfig.Sweep)
}

// restartAPIServer stops the API server and starts one with the new
// configuration.
func (d *Daemon) restartAPIServer(newConfig *config.Config) {
	d.logger.Info("API configuration changed, restarting API server")

	d.mu.Lock()
	oldServer := d.apiServer
	d.apiServer = nil
	d.mu.Unlock()

	if oldServer != nil {
		if err := oldServer.Stop(); err != nil {
			d.logger.Error("Failed to stop API server", "error", err)
		}
	}

	if !newConfig.API.Enabled {
		return
	}

	apiServer, err := api.New(newConfig, d.tracker)
	if err != nil {
		d.logger.Error("Failed to create API server with new configuration", "error", err)
		return
	}

	go func() {
		if err := apiServer.Start(d.ctx); err != nil {
			d.logger.Error("API server terminated", "error", err)
		}
	}()

	d.mu.Lock()
	d.apiServer = apiServer
	d.mu.Unlock()
	d.logger.Info("API server restarted", "address", newConfig.GetAPIAddress())
}

// restartScheduler rebuilds the scheduler from the new configuration.
// Sweeps started by the old scheduler are cancelled.
func (d *Daemon) restartScheduler(newConfig *config.Config) {
	d.logger.Info("Scheduler configuration changed, rebuilding scheduler")

	d.mu.Lock()
	oldScheduler := d.scheduler
	d.scheduler = nil
	d.mu.Unlock()

	if oldScheduler != nil {
		oldScheduler.Stop()
	}

	if !newConfig.Scheduler.Enabled {
		return
	}

	sched, err := d.buildScheduler(newConfig)
	if err != nil {
		d.logger.Error("Failed to rebuild scheduler", "error", err)
		return
	}
	if err := sched.Start(); err != nil {
		d.logger.Error("Failed to start scheduler", "error", err)
		return
	}

	d.mu.Lock()
	d.scheduler = sched
	d.mu.Unlock()
	d.logger.Info("Scheduler restarted", "entries", len(newConfig.Scheduler.Entries))
}

// dumpStatus logs a snapshot of the daemon state.
func (d *Daemon) dumpStatus() {
	d.mu.RLock()
	cfg := d.config
	apiServer := d.apiServer
	sched := d.scheduler
	debugMode := d.debugMode
	d.mu.RUnlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	fields := []any{
		"pid", os.Getpid(),
		"debug_mode", debugMode,
		"goroutines", runtime.NumGoroutine(),
		"alloc_kb", m.Alloc / 1024,
		"sys_kb", m.Sys / 1024,
		"num_gc", m.NumGC,
		"work_dir", cfg.Daemon.WorkDir,
	}
	if d.tracker != nil {
		fields = append(fields,
			"active_sweeps", d.tracker.Engine().ActiveSweeps(),
			"tracked_runs", len(d.tracker.List()))
	}
	if d.registry != nil {
		fields = append(fields, "services", d.registry.Len())
	}
	if apiServer != nil {
		fields = append(fields,
			"api_address", cfg.GetAPIAddress(),
			"websocket_clients", apiServer.WebSocketClients())
	}
	if sched != nil {
		fields = append(fields,
			"schedule_entries", len(sched.Entries()),
			"scheduler_running", sched.Running())
	}

	d.logger.Info("Daemon status", fields...)
}

// toggleDebugMode toggles debug mode on or off. While enabled, the
// periodic self-check logs a health record.
func (d *Daemon) toggleDebugMode() {
	d.mu.Lock()
	d.debugMode = !d.debugMode
	enabled := d.debugMode
	d.mu.Unlock()

	if enabled {
		d.logger.Info("Debug mode enabled")
	} else {
		d.logger.Info("Debug mode disabled")
	}
}

// IsDebugMode returns the current debug mode state.
func (d *Daemon) IsDebugMode() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.debugMode
}

// GetPID returns the daemon's PID.
func (d *Daemon) GetPID() int {
	return os.Getpid()
}

// IsRunning checks if the daemon is running.
func (d *Daemon) IsRunning() bool {
	select {
	case <-d.ctx.Done():
		return false
	default:
		return true
	}
}

// GetContext returns the daemon's context.
func (d *Daemon) GetContext() context.Context {
	return d.ctx
}

// GetConfig returns the daemon configuration.
func (d *Daemon) GetConfig() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// GetTracker returns the sweep tracker.
func (d *Daemon) GetTracker() *sweep.Tracker {
	return d.tracker
}
