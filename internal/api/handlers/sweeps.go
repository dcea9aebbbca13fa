// Package handlers provides HTTP request handlers for the netsweep API.
// This file implements the sweep endpoints: starting host and port
// sweeps, listing and inspecting tracked runs, fetching results, and
// cancellation.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/anstrom/netsweep/internal/config"
	"github.com/anstrom/netsweep/internal/metrics"
	"github.com/anstrom/netsweep/internal/sweep"
)

// SweepHandler handles sweep-related API endpoints.
type SweepHandler struct {
	tracker   *sweep.Tracker
	config    *config.Config
	logger    *slog.Logger
	metrics   metrics.MetricsRegistry
	validator *validator.Validate
}

// NewSweepHandler creates a new sweep handler.
func NewSweepHandler(
	tracker *sweep.Tracker,
	cfg *config.Config,
	logger *slog.Logger,
	metricsRegistry metrics.MetricsRegistry,
) *SweepHandler {
	return &SweepHandler{
		tracker:   tracker,
		config:    cfg,
		logger:    logger.With("handler", "sweeps"),
		metrics:   metricsRegistry,
		validator: validator.New(),
	}
}

// HostSweepRequest represents a host sweep creation request. Exactly
// one target form must be given: start/end, cidr, or address/mask.
// Omitted knobs fall back to the daemon's configured defaults.
type HostSweepRequest struct {
	Start             string  `json:"start,omitempty" validate:"omitempty,ip4_addr"`
	End               string  `json:"end,omitempty" validate:"omitempty,ip4_addr"`
	CIDR              string  `json:"cidr,omitempty" validate:"omitempty,cidrv4"`
	Address           string  `json:"address,omitempty" validate:"omitempty,ip4_addr"`
	Mask              string  `json:"mask,omitempty"`
	ExcludeLastOctets []uint8 `json:"exclude_last_octets,omitempty"`
	Threads           int     `json:"threads,omitempty" validate:"omitempty,min=1,max=4096"`
	Attempts          int     `json:"attempts,omitempty" validate:"omitempty,min=1,max=10"`
	TimeoutMS         int     `json:"timeout_ms,omitempty" validate:"omitempty,min=1,max=60000"`
	DisableDNS        bool    `json:"disable_dns,omitempty"`
	DisableMAC        bool    `json:"disable_mac,omitempty"`
	Extended          bool    `json:"extended,omitempty"`
	IncludeInactive   bool    `json:"include_inactive,omitempty"`
}

// toConfig overlays the request on the daemon's host sweep defaults.
func (req *HostSweepRequest) toConfig(base sweep.HostSweepConfig) sweep.HostSweepConfig {
	cfg := base
	cfg.Start = req.Start
	cfg.End = req.End
	cfg.CIDR = req.CIDR
	cfg.Address = req.Address
	cfg.Mask = req.Mask
	cfg.ExcludeLastOctets = req.ExcludeLastOctets
	if req.Threads > 0 {
		cfg.Threads = req.Threads
	}
	if req.Attempts > 0 {
		cfg.Attempts = req.Attempts
	}
	if req.TimeoutMS > 0 {
		cfg.Timeout = time.Duration(req.TimeoutMS) * time.Millisecond
	}
	cfg.DisableDNS = req.DisableDNS
	cfg.DisableMAC = req.DisableMAC
	cfg.Extended = req.Extended
	cfg.IncludeInactive = req.IncludeInactive
	return cfg
}

// PortSweepRequest represents a port sweep creation request.
type PortSweepRequest struct {
	Host             string `json:"host" validate:"required,min=1,max=255"`
	StartPort        uint16 `json:"start_port,omitempty"`
	EndPort          uint16 `json:"end_port,omitempty"`
	Threads          int    `json:"threads,omitempty" validate:"omitempty,min=1,max=4096"`
	TimeoutMS        int    `json:"timeout_ms,omitempty" validate:"omitempty,min=1,max=60000"`
	WithServiceNames bool   `json:"with_service_names,omitempty"`
}

// toConfig overlays the request on the daemon's port sweep defaults.
func (req *PortSweepRequest) toConfig(base sweep.PortSweepConfig) sweep.PortSweepConfig {
	cfg := base
	cfg.Host = req.Host
	cfg.StartPort = req.StartPort
	cfg.EndPort = req.EndPort
	if req.Threads > 0 {
		cfg.Threads = req.Threads
	}
	if req.TimeoutMS > 0 {
		cfg.Timeout = time.Duration(req.TimeoutMS) * time.Millisecond
	}
	cfg.WithServiceNames = req.WithServiceNames
	return cfg
}

// SweepListResponse represents the sweep list.
type SweepListResponse struct {
	Sweeps []sweep.Run `json:"sweeps"`
	Count  int         `json:"count"`
}

// SweepResultsResponse represents the results of one sweep run.
type SweepResultsResponse struct {
	ID          uuid.UUID          `json:"id"`
	Kind        sweep.RunKind      `json:"kind"`
	Target      string             `json:"target"`
	Status      sweep.RunStatus    `json:"status"`
	Progress    sweep.Progress     `json:"progress"`
	HostResults []sweep.HostResult `json:"host_results,omitempty"`
	PortResults []sweep.PortResult `json:"port_results,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// CreateHostSweep handles POST /api/v1/sweeps/hosts - start a host sweep.
// CreateHostSweep godoc
// @Summary Start a host sweep
// @Description Starts an ICMP echo sweep over the given address range and returns the tracked run
// @Tags Sweeps
// @Accept json
// @Produce json
// @Param request body HostSweepRequest true "Sweep parameters"
// @Success 202 {object} sweep.Run
// @Failure 400 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /sweeps/hosts [post]
func (h *SweepHandler) CreateHostSweep(w http.ResponseWriter, r *http.Request) {
	requestID := getRequestID(r)

	var req HostSweepRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
		return
	}

	// Sweeps outlive the request, so they run on a background context
	// and are cancelled through the tracker.
	run, err := h.tracker.StartHostSweep(context.Background(), req.toConfig(h.config.HostSweepBase()))
	if err != nil {
		writeSweepError(w, r, err)
		return
	}

	h.logger.Info("Host sweep started",
		"request_id", requestID,
		"run_id", run.ID,
		"target", run.Target)

	writeJSON(w, r, http.StatusAccepted, run)

	recordMetric(h.metrics, "api_sweeps_created_total", metrics.Labels{
		"kind": string(sweep.RunKindHosts),
	})
}

// CreatePortSweep handles POST /api/v1/sweeps/ports - start a port sweep.
// CreatePortSweep godoc
// @Summary Start a port sweep
// @Description Starts a TCP connect sweep over the given port range on one host and returns the tracked run
// @Tags Sweeps
// @Accept json
// @Produce json
// @Param request body PortSweepRequest true "Sweep parameters"
// @Success 202 {object} sweep.Run
// @Failure 400 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /sweeps/ports [post]
func (h *SweepHandler) CreatePortSweep(w http.ResponseWriter, r *http.Request) {
	requestID := getRequestID(r)

	var req PortSweepRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
		return
	}

	run, err := h.tracker.StartPortSweep(context.Background(), req.toConfig(h.config.PortSweepBase()))
	if err != nil {
		writeSweepError(w, r, err)
		return
	}

	h.logger.Info("Port sweep started",
		"request_id", requestID,
		"run_id", run.ID,
		"target", run.Target)

	writeJSON(w, r, http.StatusAccepted, run)

	recordMetric(h.metrics, "api_sweeps_created_total", metrics.Labels{
		"kind": string(sweep.RunKindPorts),
	})
}

// ListSweeps handles GET /api/v1/sweeps - list tracked runs.
// ListSweeps godoc
// @Summary List sweeps
// @Description Lists tracked sweep runs, newest first, optionally filtered by status and kind
// @Tags Sweeps
// @Produce json
// @Param status query string false "Filter by run status (running, completed, cancelled, failed)"
// @Param kind query string false "Filter by sweep kind (hosts, ports)"
// @Success 200 {object} SweepListResponse
// @Security ApiKeyAuth
// @Router /sweeps [get]
func (h *SweepHandler) ListSweeps(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	kind := r.URL.Query().Get("kind")

	runs := h.tracker.List()
	filtered := make([]sweep.Run, 0, len(runs))
	for _, run := range runs {
		if status != "" && string(run.Status) != status {
			continue
		}
		if kind != "" && string(run.Kind) != kind {
			continue
		}
		filtered = append(filtered, run)
	}

	writeJSON(w, r, http.StatusOK, SweepListResponse{
		Sweeps: filtered,
		Count:  len(filtered),
	})

	recordMetric(h.metrics, "api_sweeps_listed_total", nil)
}

// GetSweep handles GET /api/v1/sweeps/{id} - get one run without its
// result payload.
// GetSweep godoc
// @Summary Get a sweep
// @Description Returns status and progress for one tracked run
// @Tags Sweeps
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} sweep.Run
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /sweeps/{id} [get]
func (h *SweepHandler) GetSweep(w http.ResponseWriter, r *http.Request) {
	id, err := extractUUIDFromPath(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	run, ok := h.tracker.Get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, fmt.Errorf("sweep not found"))
		return
	}

	// Results are served by the results endpoint.
	run.HostResults = nil
	run.PortResults = nil

	writeJSON(w, r, http.StatusOK, run)

	recordMetric(h.metrics, "api_sweeps_retrieved_total", nil)
}

// GetSweepResults handles GET /api/v1/sweeps/{id}/results - get the
// results collected so far for one run.
// GetSweepResults godoc
// @Summary Get sweep results
// @Description Returns the result records a run has produced so far; complete once the run has finished
// @Tags Sweeps
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} SweepResultsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /sweeps/{id}/results [get]
func (h *SweepHandler) GetSweepResults(w http.ResponseWriter, r *http.Request) {
	id, err := extractUUIDFromPath(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	run, ok := h.tracker.Get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, fmt.Errorf("sweep not found"))
		return
	}

	response := SweepResultsResponse{
		ID:          run.ID,
		Kind:        run.Kind,
		Target:      run.Target,
		Status:      run.Status,
		Progress:    run.Progress,
		HostResults: run.HostResults,
		PortResults: run.PortResults,
		GeneratedAt: time.Now().UTC(),
	}

	writeJSON(w, r, http.StatusOK, response)

	recordMetric(h.metrics, "api_sweep_results_retrieved_total", metrics.Labels{
		"kind": string(run.Kind),
	})
}

// CancelSweep handles DELETE /api/v1/sweeps/{id} - cancel a running
// sweep, or remove a finished run from the tracker.
// CancelSweep godoc
// @Summary Cancel or remove a sweep
// @Description Cancels a running sweep (the run stays tracked until probes drain) or deletes a finished run
// @Tags Sweeps
// @Produce json
// @Param id path string true "Run ID"
// @Success 202 {object} map[string]interface{}
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /sweeps/{id} [delete]
func (h *SweepHandler) CancelSweep(w http.ResponseWriter, r *http.Request) {
	requestID := getRequestID(r)

	id, err := extractUUIDFromPath(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	run, ok := h.tracker.Get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, fmt.Errorf("sweep not found"))
		return
	}

	if run.Status == sweep.RunStatusRunning {
		if err := h.tracker.Cancel(id); err != nil {
			writeSweepError(w, r, err)
			return
		}

		h.logger.Info("Sweep cancellation requested", "request_id", requestID, "run_id", id)
		writeJSON(w, r, http.StatusAccepted, map[string]interface{}{
			"id":        id,
			"status":    "cancelling",
			"timestamp": time.Now().UTC(),
		})
		recordMetric(h.metrics, "api_sweeps_cancelled_total", nil)
		return
	}

	if err := h.tracker.Delete(id); err != nil {
		writeSweepError(w, r, err)
		return
	}

	h.logger.Info("Sweep run removed", "request_id", requestID, "run_id", id)
	w.WriteHeader(http.StatusNoContent)
	recordMetric(h.metrics, "api_sweeps_deleted_total", nil)
}
