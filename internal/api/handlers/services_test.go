package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/netsweep/internal/metrics"
	"github.com/anstrom/netsweep/internal/services"
)

func setupServiceHandler() (*ServiceHandler, *services.Registry) {
	registry := services.NewRegistry()
	handler := NewServiceHandler(registry, testLogger(), metrics.NewRegistry())
	return handler, registry
}

func getService(handler *ServiceHandler, port, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/v1/services/"+port+query, http.NoBody)
	req = mux.SetURLVars(req, map[string]string{"port": port})
	w := httptest.NewRecorder()
	handler.GetService(w, req)
	return w
}

func TestServiceHandler_GetService(t *testing.T) {
	handler, _ := setupServiceHandler()

	t.Run("known tcp service", func(t *testing.T) {
		w := getService(handler, "443", "")

		require.Equal(t, http.StatusOK, w.Code)

		var svc services.Service
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &svc))
		assert.Equal(t, "https", svc.Name)
		assert.Equal(t, uint16(443), svc.Port)
		assert.Equal(t, "tcp", svc.Protocol)
	})

	t.Run("protocol parameter", func(t *testing.T) {
		w := getService(handler, "53", "?protocol=udp")

		require.Equal(t, http.StatusOK, w.Code)

		var svc services.Service
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &svc))
		assert.Equal(t, "domain", svc.Name)
		assert.Equal(t, "udp", svc.Protocol)
	})

	t.Run("unregistered port", func(t *testing.T) {
		w := getService(handler, "4", "")

		assert.Equal(t, http.StatusNotFound, w.Code)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Contains(t, response.Message, "no service registered")
	})

	t.Run("invalid port values", func(t *testing.T) {
		for _, port := range []string{"0", "70000", "abc", "-1"} {
			w := getService(handler, port, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, "port %s", port)
		}
	})
}

func TestServiceHandler_ListServices(t *testing.T) {
	handler, registry := setupServiceHandler()

	req := httptest.NewRequest("GET", "/api/v1/services", http.NoBody)
	w := httptest.NewRecorder()

	handler.ListServices(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response ServiceListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, registry.Len(), response.Count)
	require.NotEmpty(t, response.Services)

	for i := 1; i < len(response.Services); i++ {
		prev, cur := response.Services[i-1], response.Services[i]
		ordered := prev.Port < cur.Port ||
			(prev.Port == cur.Port && prev.Protocol <= cur.Protocol)
		assert.True(t, ordered, "services out of order at %d", i)
	}
}
