package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/anstrom/netsweep/internal/auth"
	"github.com/anstrom/netsweep/internal/metrics/mocks"
)

func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// Test RateLimiter.
func TestNewRateLimiter(t *testing.T) {
	tests := []struct {
		name   string
		limit  int
		window time.Duration
	}{
		{"normal limits", 10, time.Minute},
		{"high limits", 1000, time.Second},
		{"low limits", 1, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := NewRateLimiter(tt.limit, tt.window)

			assert.NotNil(t, limiter)
			assert.Equal(t, tt.limit, limiter.limit)
			assert.Equal(t, tt.window, limiter.window)
			assert.NotNil(t, limiter.requests)
		})
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		window   time.Duration
		requests []string
		expected []bool
	}{
		{
			name:     "under limit",
			limit:    5,
			window:   time.Minute,
			requests: []string{"1.1.1.1", "1.1.1.1", "1.1.1.1"},
			expected: []bool{true, true, true},
		},
		{
			name:     "over limit",
			limit:    2,
			window:   time.Minute,
			requests: []string{"1.1.1.1", "1.1.1.1", "1.1.1.1"},
			expected: []bool{true, true, false},
		},
		{
			name:     "different IPs",
			limit:    1,
			window:   time.Minute,
			requests: []string{"1.1.1.1", "2.2.2.2", "1.1.1.1"},
			expected: []bool{true, true, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := NewRateLimiter(tt.limit, tt.window)

			for i, ip := range tt.requests {
				result := limiter.Allow(ip)
				assert.Equal(t, tt.expected[i], result,
					"Request %d for IP %s", i+1, ip)
			}
		})
	}
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	limiter := NewRateLimiter(1, 100*time.Millisecond)

	assert.True(t, limiter.Allow("1.1.1.1"))
	assert.False(t, limiter.Allow("1.1.1.1"))

	time.Sleep(150 * time.Millisecond)

	assert.True(t, limiter.Allow("1.1.1.1"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	limiter := NewRateLimiter(10, 100*time.Millisecond)

	limiter.Allow("1.1.1.1")
	limiter.Allow("2.2.2.2")
	limiter.Allow("3.3.3.3")

	limiter.mutex.RLock()
	initialCount := len(limiter.requests)
	limiter.mutex.RUnlock()
	assert.Equal(t, 3, initialCount)

	time.Sleep(250 * time.Millisecond)
	limiter.Cleanup()

	limiter.mutex.RLock()
	finalCount := len(limiter.requests)
	limiter.mutex.RUnlock()
	assert.Equal(t, 0, finalCount)
}

func TestLoggingMiddleware(t *testing.T) {
	var sawRequestID string
	handler := Logging(createTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawRequestID = GetRequestID(r)
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/api/v1/sweeps", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, sawRequestID)
	assert.NotEqual(t, "unknown", sawRequestID)
	assert.True(t, strings.HasPrefix(rec.Header().Get("X-Request-ID"), "req_"))
	assert.Equal(t, sawRequestID, rec.Header().Get("X-Request-ID"))
}

func TestMetricsMiddleware(t *testing.T) {
	t.Run("success_request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		registry := mocks.NewMockMetricsRegistry(ctrl)

		registry.EXPECT().Counter("http_requests_total", gomock.Any())
		registry.EXPECT().Histogram("http_request_duration_seconds", gomock.Any(), gomock.Any())
		registry.EXPECT().Histogram("http_response_size_bytes", gomock.Any(), gomock.Any())

		handler := Metrics(registry)(okHandler())
		req := httptest.NewRequest("GET", "/api/v1/sweeps", http.NoBody)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("error_request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		registry := mocks.NewMockMetricsRegistry(ctrl)

		registry.EXPECT().Counter("http_requests_total", gomock.Any())
		registry.EXPECT().Histogram("http_request_duration_seconds", gomock.Any(), gomock.Any())
		registry.EXPECT().Histogram("http_response_size_bytes", gomock.Any(), gomock.Any())
		registry.EXPECT().Counter("http_errors_total", gomock.Any())

		handler := Metrics(registry)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		req := httptest.NewRequest("GET", "/api/v1/sweeps", http.NoBody)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Run("panic_returns_500", func(t *testing.T) {
		handler := Recovery(createTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		req := httptest.NewRequest("GET", "/api/v1/sweeps", http.NoBody)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Internal server error", body["error"])
	})

	t.Run("normal_request_passes", func(t *testing.T) {
		handler := Recovery(createTestLogger())(okHandler())

		req := httptest.NewRequest("GET", "/", http.NoBody)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAuthenticationMiddleware(t *testing.T) {
	generated, err := auth.GenerateAPIKey("middleware test", auth.RoleReadonly)
	require.NoError(t, err)
	hash, err := auth.HashAPIKey(generated.Key)
	require.NoError(t, err)

	store, err := auth.NewStore([]auth.KeyRecord{
		{Name: "middleware test", Hash: hash, Role: auth.RoleReadonly},
	})
	require.NoError(t, err)

	var sawInfo auth.APIKeyInfo
	var sawOK bool
	handler := Authentication(store, createTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawInfo, sawOK = GetAPIKeyInfo(r)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing_key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/sweeps", http.NoBody)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid_key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/sweeps", http.NoBody)
		req.Header.Set("X-API-Key", "nsk_abcdefghijklmnopqrstuvwxyz012345")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid_key_allows_read", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/sweeps", http.NoBody)
		req.Header.Set("X-API-Key", generated.Key)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.True(t, sawOK)
		assert.Equal(t, "middleware test", sawInfo.Name)
		assert.Equal(t, auth.RoleReadonly, sawInfo.Role)
	})

	t.Run("bearer_header_accepted", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/sweeps", http.NoBody)
		req.Header.Set("Authorization", "Bearer "+generated.Key)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("readonly_denied_write", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/sweeps/hosts", http.NoBody)
		req.Header.Set("X-API-Key", generated.Key)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimit(1, 2, createTestLogger())(okHandler())

	makeRequest := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/api/v1/sweeps", http.NoBody)
		req.RemoteAddr = "9.9.9.9:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := makeRequest()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))

	second := makeRequest()
	assert.Equal(t, http.StatusOK, second.Code)

	third := makeRequest()
	assert.Equal(t, http.StatusTooManyRequests, third.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(third.Body.Bytes(), &body))
	assert.Equal(t, "Rate limit exceeded", body["error"])
}

func TestContentTypeMiddleware(t *testing.T) {
	handler := ContentType()(okHandler())

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"get_without_type", "GET", "", http.StatusOK},
		{"delete_without_type", "DELETE", "", http.StatusOK},
		{"post_json", "POST", "application/json", http.StatusOK},
		{"post_json_with_charset", "POST", "application/json; charset=utf-8", http.StatusOK},
		{"post_plain_text", "POST", "text/plain", http.StatusUnsupportedMediaType},
		{"put_xml", "PUT", "application/xml", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/sweeps", http.NoBody)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestMaxBodySizeMiddleware(t *testing.T) {
	var readErr error
	handler := MaxBodySize(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("small_body_passes", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader("short"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.NoError(t, readErr)
	})

	t.Run("oversized_body_rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", 64)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Error(t, readErr)
	})
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORS(
		[]string{"https://ui.example.com"},
		[]string{"Content-Type", "X-API-Key"},
		[]string{"GET", "POST", "DELETE", "OPTIONS"},
	)(okHandler())

	t.Run("allowed_origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", http.NoBody)
		req.Header.Set("Origin", "https://ui.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "https://ui.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
	})

	t.Run("disallowed_origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", http.NoBody)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/", http.NoBody)
		req.Header.Set("Origin", "https://ui.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestRequestTimeoutMiddleware(t *testing.T) {
	var hadDeadline bool
	handler := RequestTimeout(5 * time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadDeadline = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, hadDeadline)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := SecurityHeaders()(okHandler())

	req := httptest.NewRequest("GET", "/", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestGetRequestID(t *testing.T) {
	t.Run("with_id_in_context", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", http.NoBody)
		ctx := context.WithValue(req.Context(), RequestIDKey, "req_123")
		assert.Equal(t, "req_123", GetRequestID(req.WithContext(ctx)))
	})

	t.Run("without_id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", http.NoBody)
		assert.Equal(t, "unknown", GetRequestID(req))
	})
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expected   string
	}{
		{
			name:       "from_remote_addr",
			remoteAddr: "192.168.1.50:54321",
			expected:   "192.168.1.50",
		},
		{
			name:       "x_forwarded_for",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			expected:   "203.0.113.7",
		},
		{
			name:       "x_real_ip",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			expected:   "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", http.NoBody)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.expected, getClientIP(req))
		})
	}
}
