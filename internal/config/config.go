package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anstrom/netsweep/internal/sweep"
)

// Config represents the complete daemon configuration
type Config struct {
	// Daemon configuration
	Daemon DaemonConfig `yaml:"daemon" json:"daemon"`

	// Sweep defaults
	Sweep SweepConfig `yaml:"sweep" json:"sweep"`

	// API configuration
	API APIConfig `yaml:"api" json:"api"`

	// Scheduler configuration
	Scheduler SchedulerConfig `yaml:"scheduler" json:"scheduler"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// DaemonConfig holds daemon-specific settings
type DaemonConfig struct {
	// PID file location
	PIDFile string `yaml:"pid_file" json:"pid_file"`

	// Working directory
	WorkDir string `yaml:"work_dir" json:"work_dir"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// SweepConfig holds the default knobs applied to sweeps started
// through the API, the scheduler, or the CLI.
type SweepConfig struct {
	// Host sweep defaults
	Hosts HostDefaults `yaml:"hosts" json:"hosts"`

	// Port sweep defaults
	Ports PortDefaults `yaml:"ports" json:"ports"`

	// Upper bound on addresses per host sweep
	MaxTargets int `yaml:"max_targets" json:"max_targets"`

	// Optional services file extending the built-in registry
	ServicesFile string `yaml:"services_file" json:"services_file"`
}

// HostDefaults holds default host sweep parameters
type HostDefaults struct {
	// Number of concurrent probe workers
	Threads int `yaml:"threads" json:"threads"`

	// Echo attempts per address
	Attempts int `yaml:"attempts" json:"attempts"`

	// Per-probe timeout
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Use raw ICMP sockets (needs privileges)
	Privileged bool `yaml:"privileged" json:"privileged"`
}

// PortDefaults holds default port sweep parameters
type PortDefaults struct {
	// Number of concurrent connect workers
	Threads int `yaml:"threads" json:"threads"`

	// Per-connect timeout
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// APIConfig holds API server settings
type APIConfig struct {
	// Enable API server
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Listen address
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`

	// Listen port
	Port int `yaml:"port" json:"port"`

	// Enable TLS
	TLS TLSConfig `yaml:"tls" json:"tls"`

	// API key authentication
	Auth AuthConfig `yaml:"auth" json:"auth"`

	// CORS settings
	CORS CORSConfig `yaml:"cors" json:"cors"`

	// Rate limiting for API clients
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Request timeout
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`

	// Maximum request size
	MaxRequestSize int64 `yaml:"max_request_size" json:"max_request_size"`
}

// TLSConfig holds TLS settings
type TLSConfig struct {
	// Enable TLS
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Certificate file path
	CertFile string `yaml:"cert_file" json:"cert_file"`

	// Private key file path
	KeyFile string `yaml:"key_file" json:"key_file"`
}

// AuthConfig holds API key authentication settings. Keys are stored
// as bcrypt hashes; `netsweep apikeys generate` produces entries.
type AuthConfig struct {
	// Require an API key on protected routes
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Accepted keys
	Keys []APIKeyEntry `yaml:"keys" json:"keys"`
}

// APIKeyEntry is one configured API key
type APIKeyEntry struct {
	// Human-readable key name
	Name string `yaml:"name" json:"name"`

	// Bcrypt hash of the key material
	Hash string `yaml:"hash" json:"hash"`

	// Role granted to the key (admin, operator, readonly)
	Role string `yaml:"role" json:"role"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	// Enable CORS
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Allowed origins
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`

	// Allowed methods
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`

	// Allowed headers
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers"`
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// Enable rate limiting
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Requests per second
	RequestsPerSecond int `yaml:"requests_per_second" json:"requests_per_second"`

	// Burst size
	BurstSize int `yaml:"burst_size" json:"burst_size"`
}

// SchedulerConfig holds recurring sweep settings
type SchedulerConfig struct {
	// Enable the scheduler
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Scheduled sweeps
	Entries []ScheduleEntry `yaml:"entries" json:"entries"`
}

// ScheduleEntry describes one recurring sweep
type ScheduleEntry struct {
	// Unique entry name
	Name string `yaml:"name" json:"name"`

	// Cron expression (robfig/cron syntax)
	Cron string `yaml:"cron" json:"cron"`

	// Sweep kind: hosts or ports
	Kind string `yaml:"kind" json:"kind"`

	// Host sweep parameters (kind hosts)
	Hosts *sweep.HostSweepConfig `yaml:"hosts,omitempty" json:"hosts,omitempty"`

	// Port sweep parameters (kind ports)
	Ports *sweep.PortSweepConfig `yaml:"ports,omitempty" json:"ports,omitempty"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level"`

	// Log format (text, json)
	Format string `yaml:"format" json:"format"`

	// Log output (stdout, stderr, file path)
	Output string `yaml:"output" json:"output"`

	// Include source positions in log records
	AddSource bool `yaml:"add_source" json:"add_source"`

	// Enable request logging for API
	RequestLogging bool `yaml:"request_logging" json:"request_logging"`
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Daemon: DaemonConfig{
			PIDFile:         "/var/run/netsweep.pid",
			WorkDir:         "/var/lib/netsweep",
			ShutdownTimeout: 30 * time.Second,
		},
		Sweep: SweepConfig{
			Hosts: HostDefaults{
				Threads:  sweep.DefaultHostThreads,
				Attempts: sweep.DefaultAttempts,
				Timeout:  2 * time.Second,
			},
			Ports: PortDefaults{
				Threads: sweep.DefaultPortThreads,
				Timeout: 2 * time.Second,
			},
			MaxTargets: sweep.DefaultMaxTargets,
		},
		API: APIConfig{
			Enabled:    true,
			ListenAddr: "127.0.0.1",
			Port:       8080,
			TLS: TLSConfig{
				Enabled: false,
			},
			Auth: AuthConfig{
				Enabled: false,
			},
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "X-API-Key"},
			},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerSecond: 100,
				BurstSize:         200,
			},
			RequestTimeout: 30 * time.Second,
			MaxRequestSize: 1024 * 1024, // 1MB
		},
		Scheduler: SchedulerConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			Output:         "stdout",
			RequestLogging: true,
		},
	}
}

// Load loads configuration from a file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Sweep.Hosts.Threads <= 0 {
		return fmt.Errorf("host sweep threads must be positive")
	}
	if c.Sweep.Hosts.Attempts <= 0 {
		return fmt.Errorf("host sweep attempts must be positive")
	}
	if c.Sweep.Ports.Threads <= 0 {
		return fmt.Errorf("port sweep threads must be positive")
	}
	if c.Sweep.MaxTargets <= 0 {
		return fmt.Errorf("max targets must be positive")
	}
	if c.Sweep.Hosts.Timeout < 0 || c.Sweep.Ports.Timeout < 0 {
		return fmt.Errorf("sweep timeouts must not be negative")
	}

	if c.API.Enabled {
		if c.API.Port <= 0 || c.API.Port > 65535 {
			return fmt.Errorf("API port must be between 1 and 65535")
		}
		if c.API.ListenAddr == "" {
			return fmt.Errorf("API listen address is required when API is enabled")
		}
	}

	if c.API.TLS.Enabled {
		if c.API.TLS.CertFile == "" {
			return fmt.Errorf("TLS certificate file is required when TLS is enabled")
		}
		if c.API.TLS.KeyFile == "" {
			return fmt.Errorf("TLS key file is required when TLS is enabled")
		}
	}

	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

func (c *Config) validateAuth() error {
	if c.API.Auth.Enabled && len(c.API.Auth.Keys) == 0 {
		return fmt.Errorf("API auth is enabled but no keys are configured")
	}

	validRoles := map[string]bool{
		"":         true, // defaults to readonly
		"admin":    true,
		"operator": true,
		"readonly": true,
	}
	seen := make(map[string]bool, len(c.API.Auth.Keys))
	for i := range c.API.Auth.Keys {
		key := &c.API.Auth.Keys[i]
		if key.Name == "" {
			return fmt.Errorf("API key %d has no name", i)
		}
		if seen[key.Name] {
			return fmt.Errorf("duplicate API key name: %s", key.Name)
		}
		seen[key.Name] = true
		if key.Hash == "" {
			return fmt.Errorf("API key %q has no hash", key.Name)
		}
		if !validRoles[key.Role] {
			return fmt.Errorf("API key %q has invalid role: %s", key.Name, key.Role)
		}
	}
	return nil
}

func (c *Config) validateScheduler() error {
	seen := make(map[string]bool, len(c.Scheduler.Entries))
	for i := range c.Scheduler.Entries {
		entry := &c.Scheduler.Entries[i]
		if entry.Name == "" {
			return fmt.Errorf("schedule entry %d has no name", i)
		}
		if seen[entry.Name] {
			return fmt.Errorf("duplicate schedule entry name: %s", entry.Name)
		}
		seen[entry.Name] = true
		if entry.Cron == "" {
			return fmt.Errorf("schedule entry %q has no cron expression", entry.Name)
		}
		switch entry.Kind {
		case "hosts":
			if entry.Hosts == nil {
				return fmt.Errorf("schedule entry %q needs host sweep parameters", entry.Name)
			}
		case "ports":
			if entry.Ports == nil {
				return fmt.Errorf("schedule entry %q needs port sweep parameters", entry.Name)
			}
		default:
			return fmt.Errorf("schedule entry %q has invalid kind: %s", entry.Name, entry.Kind)
		}
	}
	return nil
}

// HostSweepBase returns a host sweep config seeded with the
// configured defaults; callers overlay their own target range.
func (c *Config) HostSweepBase() sweep.HostSweepConfig {
	return sweep.HostSweepConfig{
		Threads:    c.Sweep.Hosts.Threads,
		Attempts:   c.Sweep.Hosts.Attempts,
		Timeout:    c.Sweep.Hosts.Timeout,
		Privileged: c.Sweep.Hosts.Privileged,
		MaxTargets: c.Sweep.MaxTargets,
	}
}

// PortSweepBase returns a port sweep config seeded with the
// configured defaults.
func (c *Config) PortSweepBase() sweep.PortSweepConfig {
	return sweep.PortSweepConfig{
		Threads: c.Sweep.Ports.Threads,
		Timeout: c.Sweep.Ports.Timeout,
	}
}

// GetAPIAddress returns the full API address
func (c *Config) GetAPIAddress() string {
	return fmt.Sprintf("%s:%d", c.API.ListenAddr, c.API.Port)
}

// IsAPIEnabled returns true if API server is enabled
func (c *Config) IsAPIEnabled() bool {
	return c.API.Enabled
}

// GetLogOutput returns the log output destination
func (c *Config) GetLogOutput() string {
	return c.Logging.Output
}
