// Package handlers provides HTTP request handlers for the netsweep API.
// This file implements service registry lookups.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/anstrom/netsweep/internal/metrics"
	"github.com/anstrom/netsweep/internal/services"
)

// ServiceHandler handles service registry API endpoints.
type ServiceHandler struct {
	registry *services.Registry
	logger   *slog.Logger
	metrics  metrics.MetricsRegistry
}

// NewServiceHandler creates a new service handler.
func NewServiceHandler(
	registry *services.Registry,
	logger *slog.Logger,
	metricsRegistry metrics.MetricsRegistry,
) *ServiceHandler {
	return &ServiceHandler{
		registry: registry,
		logger:   logger.With("handler", "services"),
		metrics:  metricsRegistry,
	}
}

// ServiceListResponse represents the registered services.
type ServiceListResponse struct {
	Services []services.Service `json:"services"`
	Count    int                `json:"count"`
}

// GetService handles GET /api/v1/services/{port} - look up the service
// registered for a port. The protocol query parameter defaults to tcp.
// GetService godoc
// @Summary Look up a service
// @Description Returns the service registered for a port/protocol pair
// @Tags Services
// @Produce json
// @Param port path int true "Port number"
// @Param protocol query string false "Protocol (default tcp)"
// @Success 200 {object} services.Service
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /services/{port} [get]
func (h *ServiceHandler) GetService(w http.ResponseWriter, r *http.Request) {
	portStr := mux.Vars(r)["port"]
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid port: %s", portStr))
		return
	}

	protocol := r.URL.Query().Get("protocol")
	svc, ok := h.registry.ResolveService(uint16(port), protocol)
	if !ok {
		writeError(w, r, http.StatusNotFound,
			fmt.Errorf("no service registered for port %d", port))
		return
	}

	writeJSON(w, r, http.StatusOK, svc)

	recordMetric(h.metrics, "api_services_retrieved_total", metrics.Labels{
		"protocol": svc.Protocol,
	})
}

// ListServices handles GET /api/v1/services - list the registered
// services sorted by port.
// ListServices godoc
// @Summary List services
// @Description Lists every registered service, built-in and file-loaded
// @Tags Services
// @Produce json
// @Success 200 {object} ServiceListResponse
// @Security ApiKeyAuth
// @Router /services [get]
func (h *ServiceHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	all := h.registry.All()
	sort.Slice(all, func(i, j int) bool {
		if all[i].Port != all[j].Port {
			return all[i].Port < all[j].Port
		}
		return all[i].Protocol < all[j].Protocol
	})

	writeJSON(w, r, http.StatusOK, ServiceListResponse{
		Services: all,
		Count:    len(all),
	})

	recordMetric(h.metrics, "api_services_listed_total", nil)
}
