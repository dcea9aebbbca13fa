package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		CodeUnknown,
		CodeValidation,
		CodeConfiguration,
		CodeTimeout,
		CodeCanceled,
		CodePermission,
		CodeRangeInvalid,
		CodeTargetInvalid,
		CodeResolveFailed,
		CodeHostUnreachable,
		CodePortClosed,
		CodeSweepFailed,
		CodeProbeFailed,
		CodeCapacity,
		CodeRegistryParse,
		CodeFileNotFound,
		CodeFilePermission,
		CodeServiceUnavailable,
		CodeServiceTimeout,
		CodeRateLimited,
		CodeNotFound,
		CodeConflict,
	}

	for _, code := range codes {
		if string(code) == "" {
			t.Errorf("Error code %v should not be empty", code)
		}
	}
}

func TestSweepError(t *testing.T) {
	t.Run("basic error creation", func(t *testing.T) {
		err := NewSweepError(CodeSweepFailed, "sweep failed")
		if err.Code != CodeSweepFailed {
			t.Errorf("Expected code %s, got %s", CodeSweepFailed, err.Code)
		}
		if err.Message != "sweep failed" {
			t.Errorf("Expected message 'sweep failed', got '%s'", err.Message)
		}
		if err.Context == nil {
			t.Error("Context should be initialized")
		}
	})

	t.Run("error with target", func(t *testing.T) {
		err := NewSweepErrorWithTarget(CodeHostUnreachable, "host down", "192.168.1.1")
		if err.Target != "192.168.1.1" {
			t.Errorf("Expected target '192.168.1.1', got '%s'", err.Target)
		}
		expected := "[HOST_UNREACHABLE] host down (target: 192.168.1.1)"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("error without target", func(t *testing.T) {
		err := NewSweepError(CodeValidation, "validation failed")
		expected := "[VALIDATION] validation failed"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("wrapped error", func(t *testing.T) {
		cause := fmt.Errorf("network error")
		err := WrapSweepError(CodeSweepFailed, "network issue", cause)
		if err.Unwrap() != cause {
			t.Error("Wrapped error should be unwrappable")
		}
		if err.Cause != cause {
			t.Error("Cause should be set correctly")
		}
	})

	t.Run("wrapped error with target", func(t *testing.T) {
		cause := fmt.Errorf("connection refused")
		err := WrapSweepErrorWithTarget(CodeHostUnreachable, "cannot connect", "example.com", cause)
		if err.Target != "example.com" {
			t.Errorf("Expected target 'example.com', got '%s'", err.Target)
		}
		if err.Unwrap() != cause {
			t.Error("Should unwrap to original error")
		}
	})

	t.Run("with context", func(t *testing.T) {
		err := NewSweepError(CodeTimeout, "timeout occurred")
		err.WithContext("duration", "30s").WithContext("attempts", 3)

		if err.Context["duration"] != "30s" {
			t.Errorf("Expected duration '30s', got %v", err.Context["duration"])
		}
		if err.Context["attempts"] != 3 {
			t.Errorf("Expected attempts 3, got %v", err.Context["attempts"])
		}
	})
}

func TestProbeError(t *testing.T) {
	t.Run("basic probe error", func(t *testing.T) {
		err := NewProbeError(CodeProbeFailed, "probe failed")
		if err.Code != CodeProbeFailed {
			t.Errorf("Expected code %s, got %s", CodeProbeFailed, err.Code)
		}
		expected := "[PROBE_FAILED] probe failed"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("probe error with address", func(t *testing.T) {
		err := NewProbeError(CodeHostUnreachable, "echo timed out")
		err.Address = "10.0.0.7"
		expected := "[HOST_UNREACHABLE] echo timed out (target: 10.0.0.7)"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("probe error with address and port", func(t *testing.T) {
		err := NewProbeError(CodePortClosed, "connect refused")
		err.Address = "10.0.0.7"
		err.WithPort(443)
		expected := "[PORT_CLOSED] connect refused (target: 10.0.0.7:443)"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("wrapped probe error", func(t *testing.T) {
		cause := fmt.Errorf("sendto: operation not permitted")
		err := WrapProbeError(CodeProbeFailed, "echo send failed", cause)
		if err.Unwrap() != cause {
			t.Error("Should unwrap to original error")
		}
	})
}

func TestRegistryError(t *testing.T) {
	t.Run("basic registry error", func(t *testing.T) {
		err := NewRegistryError(CodeRegistryParse, "parse failed")
		if err.Code != CodeRegistryParse {
			t.Errorf("Expected code %s, got %s", CodeRegistryParse, err.Code)
		}
		expected := "[REGISTRY_PARSE] parse failed"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("registry error with source", func(t *testing.T) {
		err := NewRegistryError(CodeRegistryParse, "malformed entry")
		err.Source = "/etc/services"
		expected := "[REGISTRY_PARSE] malformed entry (source: /etc/services)"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("wrapped registry error", func(t *testing.T) {
		cause := fmt.Errorf("permission denied")
		err := WrapRegistryError(CodeFilePermission, "cannot read services file", cause)
		if err.Unwrap() != cause {
			t.Error("Should unwrap to original error")
		}
	})

	t.Run("with line", func(t *testing.T) {
		err := NewRegistryError(CodeRegistryParse, "bad port field")
		err.WithLine(42)
		if err.Line != 42 {
			t.Errorf("Expected line 42, got %d", err.Line)
		}
	})
}

func TestConfigError(t *testing.T) {
	t.Run("basic config error", func(t *testing.T) {
		err := NewConfigError(CodeConfiguration, "config invalid")
		if err.Code != CodeConfiguration {
			t.Errorf("Expected code %s, got %s", CodeConfiguration, err.Code)
		}
		expected := "[CONFIGURATION] config invalid"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("config field error", func(t *testing.T) {
		err := NewConfigFieldError(CodeValidation, "invalid port", "sweep.ports.end", 65536)
		if err.Field != "sweep.ports.end" {
			t.Errorf("Expected field 'sweep.ports.end', got '%s'", err.Field)
		}
		if err.Value != 65536 {
			t.Errorf("Expected value 65536, got %v", err.Value)
		}
		expected := "[VALIDATION] invalid port (field: sweep.ports.end)"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("wrapped config error", func(t *testing.T) {
		cause := fmt.Errorf("file not found")
		err := WrapConfigError(CodeFileNotFound, "config file missing", cause)
		if err.Unwrap() != cause {
			t.Error("Should unwrap to original error")
		}
	})
}

func TestUtilityFunctions(t *testing.T) {
	t.Run("IsCode", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			code     ErrorCode
			expected bool
		}{
			{
				name:     "sweep error matches",
				err:      NewSweepError(CodeTimeout, "timeout"),
				code:     CodeTimeout,
				expected: true,
			},
			{
				name:     "sweep error does not match",
				err:      NewSweepError(CodeTimeout, "timeout"),
				code:     CodeValidation,
				expected: false,
			},
			{
				name:     "probe error matches",
				err:      NewProbeError(CodeProbeFailed, "probe failed"),
				code:     CodeProbeFailed,
				expected: true,
			},
			{
				name:     "registry error matches",
				err:      NewRegistryError(CodeRegistryParse, "parse failed"),
				code:     CodeRegistryParse,
				expected: true,
			},
			{
				name:     "config error matches",
				err:      NewConfigError(CodeConfiguration, "config error"),
				code:     CodeConfiguration,
				expected: true,
			},
			{
				name:     "standard error",
				err:      fmt.Errorf("standard error"),
				code:     CodeUnknown,
				expected: false,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				result := IsCode(tt.err, tt.code)
				if result != tt.expected {
					t.Errorf("Expected %v, got %v", tt.expected, result)
				}
			})
		}
	})

	t.Run("GetCode", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			expected ErrorCode
		}{
			{
				name:     "sweep error",
				err:      NewSweepError(CodeTimeout, "timeout"),
				expected: CodeTimeout,
			},
			{
				name:     "probe error",
				err:      NewProbeError(CodeProbeFailed, "probe failed"),
				expected: CodeProbeFailed,
			},
			{
				name:     "registry error",
				err:      NewRegistryError(CodeRegistryParse, "parse failed"),
				expected: CodeRegistryParse,
			},
			{
				name:     "config error",
				err:      NewConfigError(CodeConfiguration, "config error"),
				expected: CodeConfiguration,
			},
			{
				name:     "standard error",
				err:      fmt.Errorf("standard error"),
				expected: CodeUnknown,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				result := GetCode(tt.err)
				if result != tt.expected {
					t.Errorf("Expected %v, got %v", tt.expected, result)
				}
			})
		}
	})

	t.Run("IsNotFound", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			expected bool
		}{
			{
				name:     "not found error",
				err:      NewSweepError(CodeNotFound, "not found"),
				expected: true,
			},
			{
				name:     "file not found error",
				err:      NewSweepError(CodeFileNotFound, "file not found"),
				expected: true,
			},
			{
				name:     "other error",
				err:      NewSweepError(CodeTimeout, "timeout"),
				expected: false,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				result := IsNotFound(tt.err)
				if result != tt.expected {
					t.Errorf("Expected %v, got %v", tt.expected, result)
				}
			})
		}
	})

	t.Run("IsConflict", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			expected bool
		}{
			{
				name:     "conflict error",
				err:      NewSweepError(CodeConflict, "conflict"),
				expected: true,
			},
			{
				name:     "other error",
				err:      NewSweepError(CodeTimeout, "timeout"),
				expected: false,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				result := IsConflict(tt.err)
				if result != tt.expected {
					t.Errorf("Expected %v, got %v", tt.expected, result)
				}
			})
		}
	})

	t.Run("IsRetryable", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			expected bool
		}{
			{
				name:     "timeout error",
				err:      NewSweepError(CodeTimeout, "timeout"),
				expected: true,
			},
			{
				name:     "service timeout error",
				err:      NewSweepError(CodeServiceTimeout, "service timeout"),
				expected: true,
			},
			{
				name:     "service unavailable error",
				err:      NewSweepError(CodeServiceUnavailable, "unavailable"),
				expected: true,
			},
			{
				name:     "rate limited error",
				err:      NewSweepError(CodeRateLimited, "slow down"),
				expected: true,
			},
			{
				name:     "permission error",
				err:      NewSweepError(CodePermission, "permission denied"),
				expected: false,
			},
			{
				name:     "validation error",
				err:      NewSweepError(CodeValidation, "validation failed"),
				expected: false,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				result := IsRetryable(tt.err)
				if result != tt.expected {
					t.Errorf("Expected %v, got %v", tt.expected, result)
				}
			})
		}
	})

	t.Run("IsFatal", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			expected bool
		}{
			{
				name:     "permission error",
				err:      NewSweepError(CodePermission, "permission denied"),
				expected: true,
			},
			{
				name:     "configuration error",
				err:      NewConfigError(CodeConfiguration, "config error"),
				expected: true,
			},
			{
				name:     "capacity error",
				err:      ErrPoolCapacity(fmt.Errorf("out of threads")),
				expected: true,
			},
			{
				name:     "timeout error",
				err:      NewSweepError(CodeTimeout, "timeout"),
				expected: false,
			},
			{
				name:     "validation error",
				err:      NewSweepError(CodeValidation, "validation failed"),
				expected: false,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				result := IsFatal(tt.err)
				if result != tt.expected {
					t.Errorf("Expected %v, got %v", tt.expected, result)
				}
			})
		}
	})
}

func TestCommonErrorCreationFunctions(t *testing.T) {
	t.Run("ErrInvalidTarget", func(t *testing.T) {
		err := ErrInvalidTarget("invalid-target")
		if err.Code != CodeTargetInvalid {
			t.Errorf("Expected code %s, got %s", CodeTargetInvalid, err.Code)
		}
		if err.Target != "invalid-target" {
			t.Errorf("Expected target 'invalid-target', got '%s'", err.Target)
		}
	})

	t.Run("ErrInvalidRange", func(t *testing.T) {
		err := ErrInvalidRange("192.168.1.50", "192.168.1.10")
		if err.Code != CodeRangeInvalid {
			t.Errorf("Expected code %s, got %s", CodeRangeInvalid, err.Code)
		}
		if err.Field != "range" {
			t.Errorf("Expected field 'range', got '%s'", err.Field)
		}
		if err.Value != "192.168.1.50-192.168.1.10" {
			t.Errorf("Expected range value in error, got %v", err.Value)
		}
	})

	t.Run("ErrResolveFailed", func(t *testing.T) {
		cause := fmt.Errorf("no such host")
		err := ErrResolveFailed("nonexistent.example", cause)
		if err.Code != CodeResolveFailed {
			t.Errorf("Expected code %s, got %s", CodeResolveFailed, err.Code)
		}
		if err.Target != "nonexistent.example" {
			t.Errorf("Expected target 'nonexistent.example', got '%s'", err.Target)
		}
		if err.Unwrap() != cause {
			t.Error("Should unwrap to original error")
		}
	})

	t.Run("ErrSweepTimeout", func(t *testing.T) {
		err := ErrSweepTimeout("192.168.1.1")
		if err.Code != CodeTimeout {
			t.Errorf("Expected code %s, got %s", CodeTimeout, err.Code)
		}
		if err.Target != "192.168.1.1" {
			t.Errorf("Expected target '192.168.1.1', got '%s'", err.Target)
		}
	})

	t.Run("ErrHostUnreachable", func(t *testing.T) {
		err := ErrHostUnreachable("example.com")
		if err.Code != CodeHostUnreachable {
			t.Errorf("Expected code %s, got %s", CodeHostUnreachable, err.Code)
		}
		if err.Target != "example.com" {
			t.Errorf("Expected target 'example.com', got '%s'", err.Target)
		}
	})

	t.Run("ErrPoolCapacity", func(t *testing.T) {
		cause := fmt.Errorf("thread limit")
		err := ErrPoolCapacity(cause)
		if err.Code != CodeCapacity {
			t.Errorf("Expected code %s, got %s", CodeCapacity, err.Code)
		}
		if err.Unwrap() != cause {
			t.Error("Should unwrap to original error")
		}
	})

	t.Run("ErrConfigInvalid", func(t *testing.T) {
		err := ErrConfigInvalid("threads", 0)
		if err.Code != CodeValidation {
			t.Errorf("Expected code %s, got %s", CodeValidation, err.Code)
		}
		if err.Field != "threads" {
			t.Errorf("Expected field 'threads', got '%s'", err.Field)
		}
		if err.Value != 0 {
			t.Errorf("Expected value 0, got %v", err.Value)
		}
	})

	t.Run("ErrConfigMissing", func(t *testing.T) {
		err := ErrConfigMissing("api.auth_keys")
		if err.Code != CodeConfiguration {
			t.Errorf("Expected code %s, got %s", CodeConfiguration, err.Code)
		}
		if err.Field != "api.auth_keys" {
			t.Errorf("Expected field 'api.auth_keys', got '%s'", err.Field)
		}
		if err.Value != nil {
			t.Errorf("Expected value nil, got %v", err.Value)
		}
	})

	t.Run("ErrNotFound", func(t *testing.T) {
		err := ErrNotFound("sweep")
		if err.Code != CodeNotFound {
			t.Errorf("Expected code %s, got %s", CodeNotFound, err.Code)
		}
		expected := "[NOT_FOUND] sweep not found"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("ErrNotFoundWithID", func(t *testing.T) {
		err := ErrNotFoundWithID("sweep", "123")
		if err.Code != CodeNotFound {
			t.Errorf("Expected code %s, got %s", CodeNotFound, err.Code)
		}
		expected := "[NOT_FOUND] sweep with ID 123 not found"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("ErrConflict", func(t *testing.T) {
		err := ErrConflict("schedule")
		if err.Code != CodeConflict {
			t.Errorf("Expected code %s, got %s", CodeConflict, err.Code)
		}
		expected := "[CONFLICT] schedule already exists or conflict detected"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("ErrConflictWithReason", func(t *testing.T) {
		err := ErrConflictWithReason("schedule", "duplicate name")
		if err.Code != CodeConflict {
			t.Errorf("Expected code %s, got %s", CodeConflict, err.Code)
		}
		expected := "[CONFLICT] schedule conflict: duplicate name"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})
}

func TestErrorUnwrapping(t *testing.T) {
	t.Run("nested error unwrapping", func(t *testing.T) {
		baseErr := fmt.Errorf("base error")
		wrappedErr := fmt.Errorf("wrapped: %w", baseErr)
		sweepErr := WrapSweepError(CodeSweepFailed, "sweep failed", wrappedErr)

		// Test direct unwrapping
		if sweepErr.Unwrap() != wrappedErr {
			t.Error("Should unwrap to wrapped error")
		}

		// Test errors.Is for nested unwrapping
		if !errors.Is(sweepErr, baseErr) {
			t.Error("Should be able to find base error using errors.Is")
		}
	})

	t.Run("nil unwrap", func(t *testing.T) {
		err := NewSweepError(CodeValidation, "validation error")
		if err.Unwrap() != nil {
			t.Error("Error without cause should unwrap to nil")
		}
	})
}

func TestErrorChaining(t *testing.T) {
	t.Run("multiple context additions", func(t *testing.T) {
		err := NewSweepError(CodeTimeout, "timeout occurred")

		// Chain multiple context additions
		err.WithContext("step", "1").
			WithContext("retry", true).
			WithContext("duration", "30s")

		if err.Context["step"] != "1" {
			t.Errorf("Expected step '1', got %v", err.Context["step"])
		}
		if err.Context["retry"] != true {
			t.Errorf("Expected retry true, got %v", err.Context["retry"])
		}
		if err.Context["duration"] != "30s" {
			t.Errorf("Expected duration '30s', got %v", err.Context["duration"])
		}
	})

	t.Run("overwrite context value", func(t *testing.T) {
		err := NewSweepError(CodeValidation, "validation error")
		err.WithContext("key", "value1")
		err.WithContext("key", "value2")

		if err.Context["key"] != "value2" {
			t.Errorf("Expected overwritten value 'value2', got %v", err.Context["key"])
		}
	})
}

func TestErrorTypes(t *testing.T) {
	t.Run("sweep error implements error interface", func(t *testing.T) {
		var err error = NewSweepError(CodeValidation, "test")
		if err.Error() == "" {
			t.Error("Error should implement error interface")
		}
	})

	t.Run("probe error implements error interface", func(t *testing.T) {
		var err error = NewProbeError(CodeProbeFailed, "test")
		if err.Error() == "" {
			t.Error("ProbeError should implement error interface")
		}
	})

	t.Run("registry error implements error interface", func(t *testing.T) {
		var err error = NewRegistryError(CodeRegistryParse, "test")
		if err.Error() == "" {
			t.Error("RegistryError should implement error interface")
		}
	})

	t.Run("config error implements error interface", func(t *testing.T) {
		var err error = NewConfigError(CodeConfiguration, "test")
		if err.Error() == "" {
			t.Error("ConfigError should implement error interface")
		}
	})
}

func TestNilErrorHandling(t *testing.T) {
	t.Run("IsCode with nil error", func(t *testing.T) {
		result := IsCode(nil, CodeTimeout)
		if result {
			t.Error("IsCode should return false for nil error")
		}
	})

	t.Run("GetCode with nil error", func(t *testing.T) {
		result := GetCode(nil)
		if result != CodeUnknown {
			t.Errorf("Expected CodeUnknown for nil error, got %s", result)
		}
	})

	t.Run("IsNotFound with nil error", func(t *testing.T) {
		result := IsNotFound(nil)
		if result {
			t.Error("IsNotFound should return false for nil error")
		}
	})

	t.Run("IsConflict with nil error", func(t *testing.T) {
		result := IsConflict(nil)
		if result {
			t.Error("IsConflict should return false for nil error")
		}
	})

	t.Run("IsRetryable with nil error", func(t *testing.T) {
		result := IsRetryable(nil)
		if result {
			t.Error("IsRetryable should return false for nil error")
		}
	})

	t.Run("IsFatal with nil error", func(t *testing.T) {
		result := IsFatal(nil)
		if result {
			t.Error("IsFatal should return false for nil error")
		}
	})
}

func TestErrorFormatting(t *testing.T) {
	t.Run("sweep error with all fields", func(t *testing.T) {
		cause := fmt.Errorf("network timeout")
		err := WrapSweepErrorWithTarget(CodeTimeout, "operation timed out", "192.168.1.1", cause)
		err.Operation = "port_sweep"
		err.WithContext("duration", "30s")

		errorStr := err.Error()
		expected := "[TIMEOUT] operation timed out (target: 192.168.1.1)"
		if errorStr != expected {
			t.Errorf("Expected '%s', got '%s'", expected, errorStr)
		}
	})

	t.Run("probe error formatting", func(t *testing.T) {
		err := NewProbeError(CodeHostUnreachable, "echo failed")
		err.Address = "10.0.0.0"

		errorStr := err.Error()
		expected := "[HOST_UNREACHABLE] echo failed (target: 10.0.0.0)"
		if errorStr != expected {
			t.Errorf("Expected '%s', got '%s'", expected, errorStr)
		}
	})

	t.Run("registry error formatting", func(t *testing.T) {
		err := NewRegistryError(CodeRegistryParse, "bad entry")
		err.Source = "testdata/services"
		err.WithLine(7)

		errorStr := err.Error()
		expected := "[REGISTRY_PARSE] bad entry (source: testdata/services)"
		if errorStr != expected {
			t.Errorf("Expected '%s', got '%s'", expected, errorStr)
		}
	})

	t.Run("config error formatting", func(t *testing.T) {
		err := NewConfigFieldError(CodeValidation, "invalid value", "sweep.hosts.threads", -1)

		errorStr := err.Error()
		expected := "[VALIDATION] invalid value (field: sweep.hosts.threads)"
		if errorStr != expected {
			t.Errorf("Expected '%s', got '%s'", expected, errorStr)
		}
	})
}

func TestBenchmarkErrorCreation(t *testing.T) {
	b := testing.Benchmark(func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			err := NewSweepError(CodeTimeout, "benchmark test")
			err.WithContext("iteration", i)
		}
	})

	if b.NsPerOp() > 1000 { // Should be very fast
		t.Logf("Error creation took %d ns/op", b.NsPerOp())
	}
}
