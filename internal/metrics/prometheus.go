// Package metrics provides Prometheus-based metrics collection for netsweep.
// This complements the process-local registry with the industry-standard
// Prometheus client library for proper observability and monitoring integration.
package metrics

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	// Namespace for all netsweep metrics
	namespace = "netsweep"

	// Subsystems
	subsystemSweep  = "sweep"
	subsystemProbe  = "probe"
	subsystemPool   = "pool"
	subsystemSystem = "system"
	subsystemAPI    = "api"
)

// PrometheusMetrics holds all Prometheus metric collectors
type PrometheusMetrics struct {
	// Sweep metrics
	sweepsTotal   *prometheus.CounterVec
	sweepDuration *prometheus.HistogramVec
	sweepErrors   *prometheus.CounterVec
	targetsSwept  *prometheus.CounterVec
	hostsUp       *prometheus.CounterVec
	portsOpen     *prometheus.CounterVec
	activeSweeps  prometheus.Gauge

	// Probe metrics
	probesTotal   *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	probeErrors   *prometheus.CounterVec
	echoAttempts  *prometheus.CounterVec

	// Worker pool metrics
	poolJobs        *prometheus.CounterVec
	poolJobDuration *prometheus.HistogramVec
	poolWorkersBusy prometheus.Gauge
	poolQueueDepth  prometheus.Gauge

	// API metrics
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpErrors   *prometheus.CounterVec

	// System metrics
	memoryUsage prometheus.Gauge
	goroutines  prometheus.Gauge
	uptime      prometheus.Gauge
	cpuUsage    prometheus.Gauge

	// Performance tracking
	startTime  time.Time
	lastUpdate time.Time
	mu         sync.RWMutex
	registry   *prometheus.Registry
}

// NewPrometheusMetrics creates a new Prometheus metrics instance with all collectors
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	pm := &PrometheusMetrics{
		startTime: time.Now(),
		registry:  registry,
	}

	// Initialize all metrics
	pm.initSweepMetrics()
	pm.initProbeMetrics()
	pm.initPoolMetrics()
	pm.initAPIMetrics()
	pm.initSystemMetrics()

	// Register all metrics with the registry
	pm.registerMetrics()

	// Register standard Go and process collectors for runtime visibility
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return pm
}

// initSweepMetrics initializes sweep-related metrics
func (pm *PrometheusMetrics) initSweepMetrics() {
	pm.sweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemSweep,
			Name:      "total",
			Help:      "Total number of sweeps performed by type and status",
		},
		[]string{"sweep_type", "status"},
	)

	pm.sweepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemSweep,
			Name:      "duration_seconds",
			Help:      "Duration of sweep operations in seconds",
			Buckets:   []float64{0.1, 0.5, 1.0, 5.0, 10.0, 30.0, 60.0, 300.0, 600.0},
		},
		[]string{"sweep_type"},
	)

	pm.sweepErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemSweep,
			Name:      "errors_total",
			Help:      "Total number of sweep errors by type and error",
		},
		[]string{"sweep_type", "error_type"},
	)

	pm.targetsSwept = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemSweep,
			Name:      "targets_total",
			Help:      "Total number of targets swept",
		},
		[]string{"sweep_type"},
	)

	pm.hostsUp = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemSweep,
			Name:      "hosts_up_total",
			Help:      "Total number of reachable hosts found",
		},
		[]string{"network"},
	)

	pm.portsOpen = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemSweep,
			Name:      "ports_open_total",
			Help:      "Total number of open ports found",
		},
		[]string{"protocol"},
	)

	pm.activeSweeps = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemSweep,
			Name:      "active",
			Help:      "Number of currently active sweeps",
		},
	)
}

// initProbeMetrics initializes probe-related metrics
func (pm *PrometheusMetrics) initProbeMetrics() {
	pm.probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemProbe,
			Name:      "total",
			Help:      "Total number of probes executed by type and status",
		},
		[]string{"sweep_type", "status"},
	)

	pm.probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemProbe,
			Name:      "duration_seconds",
			Help:      "Duration of individual probes in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"sweep_type"},
	)

	pm.probeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemProbe,
			Name:      "errors_total",
			Help:      "Total number of probe errors by type and error",
		},
		[]string{"sweep_type", "error_type"},
	)

	pm.echoAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemProbe,
			Name:      "echo_attempts_total",
			Help:      "Total number of ICMP echo attempts by result",
		},
		[]string{"result"},
	)
}

// initPoolMetrics initializes worker pool metrics
func (pm *PrometheusMetrics) initPoolMetrics() {
	pm.poolJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemPool,
			Name:      "jobs_total",
			Help:      "Total number of pool jobs by type and status",
		},
		[]string{"job_type", "status"},
	)

	pm.poolJobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemPool,
			Name:      "job_duration_seconds",
			Help:      "Duration of pool job execution in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
		},
		[]string{"job_type"},
	)

	pm.poolWorkersBusy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemPool,
			Name:      "workers_busy",
			Help:      "Number of pool workers currently executing a job",
		},
	)

	pm.poolQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemPool,
			Name:      "queue_depth",
			Help:      "Number of jobs waiting in the pool queue",
		},
	)
}

// initAPIMetrics initializes API-related metrics
func (pm *PrometheusMetrics) initAPIMetrics() {
	pm.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemAPI,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	pm.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemAPI,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"method", "path"},
	)

	pm.httpErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemAPI,
			Name:      "errors_total",
			Help:      "Total number of HTTP errors by method, path and error type",
		},
		[]string{"method", "path", "error_type"},
	)
}

// initSystemMetrics initializes system-related metrics
func (pm *PrometheusMetrics) initSystemMetrics() {
	pm.memoryUsage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemSystem,
			Name:      "memory_bytes",
			Help:      "Current memory usage in bytes",
		},
	)

	pm.goroutines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemSystem,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
	)

	pm.uptime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemSystem,
			Name:      "uptime_seconds",
			Help:      "Application uptime in seconds",
		},
	)

	pm.cpuUsage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemSystem,
			Name:      "cpu_usage_percent",
			Help:      "Current CPU usage percentage",
		},
	)
}

// registerMetrics registers all metrics with the Prometheus registry
func (pm *PrometheusMetrics) registerMetrics() {
	// Sweep metrics
	pm.registry.MustRegister(pm.sweepsTotal)
	pm.registry.MustRegister(pm.sweepDuration)
	pm.registry.MustRegister(pm.sweepErrors)
	pm.registry.MustRegister(pm.targetsSwept)
	pm.registry.MustRegister(pm.hostsUp)
	pm.registry.MustRegister(pm.portsOpen)
	pm.registry.MustRegister(pm.activeSweeps)

	// Probe metrics
	pm.registry.MustRegister(pm.probesTotal)
	pm.registry.MustRegister(pm.probeDuration)
	pm.registry.MustRegister(pm.probeErrors)
	pm.registry.MustRegister(pm.echoAttempts)

	// Pool metrics
	pm.registry.MustRegister(pm.poolJobs)
	pm.registry.MustRegister(pm.poolJobDuration)
	pm.registry.MustRegister(pm.poolWorkersBusy)
	pm.registry.MustRegister(pm.poolQueueDepth)

	// API metrics
	pm.registry.MustRegister(pm.httpRequests)
	pm.registry.MustRegister(pm.httpDuration)
	pm.registry.MustRegister(pm.httpErrors)

	// System metrics
	pm.registry.MustRegister(pm.memoryUsage)
	pm.registry.MustRegister(pm.goroutines)
	pm.registry.MustRegister(pm.uptime)
	pm.registry.MustRegister(pm.cpuUsage)
}

// GetRegistry returns the Prometheus registry for HTTP handler
func (pm *PrometheusMetrics) GetRegistry() *prometheus.Registry {
	return pm.registry
}

// Sweep Metrics Methods

// IncrementSweepsTotal increments the total sweep counter
func (pm *PrometheusMetrics) IncrementSweepsTotal(sweepType, status string) {
	pm.sweepsTotal.WithLabelValues(sweepType, status).Inc()
}

// RecordSweepDuration records a sweep duration
func (pm *PrometheusMetrics) RecordSweepDuration(sweepType string, duration time.Duration) {
	pm.sweepDuration.WithLabelValues(sweepType).Observe(duration.Seconds())
}

// IncrementSweepErrors increments sweep error counter
func (pm *PrometheusMetrics) IncrementSweepErrors(sweepType, errorType string) {
	pm.sweepErrors.WithLabelValues(sweepType, errorType).Inc()
}

// IncrementTargetsSwept increments swept target counter
func (pm *PrometheusMetrics) IncrementTargetsSwept(sweepType string, count int) {
	pm.targetsSwept.WithLabelValues(sweepType).Add(float64(count))
}

// IncrementHostsUp increments reachable host counter
func (pm *PrometheusMetrics) IncrementHostsUp(network string, count int) {
	pm.hostsUp.WithLabelValues(network).Add(float64(count))
}

// IncrementPortsOpen increments open port counter
func (pm *PrometheusMetrics) IncrementPortsOpen(protocol string, count int) {
	pm.portsOpen.WithLabelValues(protocol).Add(float64(count))
}

// SetActiveSweeps sets the number of active sweeps
func (pm *PrometheusMetrics) SetActiveSweeps(count int) {
	pm.activeSweeps.Set(float64(count))
}

// Probe Metrics Methods

// IncrementProbesTotal increments probe counter
func (pm *PrometheusMetrics) IncrementProbesTotal(sweepType, status string) {
	pm.probesTotal.WithLabelValues(sweepType, status).Inc()
}

// RecordProbeDuration records probe duration
func (pm *PrometheusMetrics) RecordProbeDuration(sweepType string, duration time.Duration) {
	pm.probeDuration.WithLabelValues(sweepType).Observe(duration.Seconds())
}

// IncrementProbeErrors increments probe error counter
func (pm *PrometheusMetrics) IncrementProbeErrors(sweepType, errorType string) {
	pm.probeErrors.WithLabelValues(sweepType, errorType).Inc()
}

// IncrementEchoAttempts increments ICMP echo attempt counter
func (pm *PrometheusMetrics) IncrementEchoAttempts(result string) {
	pm.echoAttempts.WithLabelValues(result).Inc()
}

// Pool Metrics Methods

// IncrementPoolJobs increments pool job counter
func (pm *PrometheusMetrics) IncrementPoolJobs(jobType, status string) {
	pm.poolJobs.WithLabelValues(jobType, status).Inc()
}

// RecordPoolJobDuration records pool job execution duration
func (pm *PrometheusMetrics) RecordPoolJobDuration(jobType string, duration time.Duration) {
	pm.poolJobDuration.WithLabelValues(jobType).Observe(duration.Seconds())
}

// SetPoolWorkersBusy sets the number of busy pool workers
func (pm *PrometheusMetrics) SetPoolWorkersBusy(count int) {
	pm.poolWorkersBusy.Set(float64(count))
}

// SetPoolQueueDepth sets the pool queue depth
func (pm *PrometheusMetrics) SetPoolQueueDepth(count int) {
	pm.poolQueueDepth.Set(float64(count))
}

// API Metrics Methods

// IncrementHTTPRequests increments HTTP request counter
func (pm *PrometheusMetrics) IncrementHTTPRequests(method, path, status string) {
	pm.httpRequests.WithLabelValues(method, path, status).Inc()
}

// RecordHTTPDuration records HTTP request duration
func (pm *PrometheusMetrics) RecordHTTPDuration(method, path string, duration time.Duration) {
	pm.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncrementHTTPErrors increments HTTP error counter
func (pm *PrometheusMetrics) IncrementHTTPErrors(method, path, errorType string) {
	pm.httpErrors.WithLabelValues(method, path, errorType).Inc()
}

// System Metrics Methods

// UpdateSystemMetrics updates all system metrics with current values
func (pm *PrometheusMetrics) UpdateSystemMetrics() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	// Update memory usage
	pm.memoryUsage.Set(float64(memStats.Alloc))

	// Update goroutine count
	pm.goroutines.Set(float64(runtime.NumGoroutine()))

	// Update uptime
	uptime := time.Since(pm.startTime).Seconds()
	pm.uptime.Set(uptime)

	// Update last update time
	pm.lastUpdate = time.Now()
}

// SetCPUUsage sets the CPU usage percentage
func (pm *PrometheusMetrics) SetCPUUsage(percent float64) {
	pm.cpuUsage.Set(percent)
}

// Utility Methods

// GetUptime returns the application uptime
func (pm *PrometheusMetrics) GetUptime() time.Duration {
	return time.Since(pm.startTime)
}

// GetLastUpdate returns the last metrics update time
func (pm *PrometheusMetrics) GetLastUpdate() time.Time {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.lastUpdate
}

// StartPeriodicUpdates starts a goroutine that periodically updates system metrics
func (pm *PrometheusMetrics) StartPeriodicUpdates(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Update immediately
	pm.UpdateSystemMetrics()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pm.UpdateSystemMetrics()
		}
	}
}

// Global instance for easy access
var globalMetrics *PrometheusMetrics
var metricsOnce sync.Once

// GetGlobalMetrics returns the global Prometheus metrics instance
func GetGlobalMetrics() *PrometheusMetrics {
	metricsOnce.Do(func() {
		globalMetrics = NewPrometheusMetrics()
	})
	return globalMetrics
}

// Convenience functions using global instance

// RecordSweepDurationPrometheus records a sweep duration using global metrics
func RecordSweepDurationPrometheus(sweepType string, duration time.Duration) {
	GetGlobalMetrics().RecordSweepDuration(sweepType, duration)
}

// IncrementSweepTotalPrometheus increments sweep total using global metrics
func IncrementSweepTotalPrometheus(sweepType, status string) {
	GetGlobalMetrics().IncrementSweepsTotal(sweepType, status)
}

// IncrementSweepErrorsPrometheus increments sweep errors using global metrics
func IncrementSweepErrorsPrometheus(sweepType, errorType string) {
	GetGlobalMetrics().IncrementSweepErrors(sweepType, errorType)
}

// RecordProbeDurationPrometheus records probe duration using global metrics
func RecordProbeDurationPrometheus(sweepType string, duration time.Duration) {
	GetGlobalMetrics().RecordProbeDuration(sweepType, duration)
}

// IncrementHostsUpPrometheus increments reachable hosts using global metrics
func IncrementHostsUpPrometheus(network string, count int) {
	GetGlobalMetrics().IncrementHostsUp(network, count)
}

// IncrementPortsOpenPrometheus increments open ports using global metrics
func IncrementPortsOpenPrometheus(protocol string, count int) {
	GetGlobalMetrics().IncrementPortsOpen(protocol, count)
}
