// Package errors provides structured error handling for netsweep operations.
// It defines error codes, error types, and provides utilities for creating
// and handling errors with context and structured information.
package errors

import (
	"fmt"
)

// ErrorCode represents different types of errors that can occur.
type ErrorCode string

const (
	// General errors.
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeConfiguration ErrorCode = "CONFIGURATION"
	CodeTimeout       ErrorCode = "TIMEOUT"
	CodeCanceled      ErrorCode = "CANCELED"
	CodePermission    ErrorCode = "PERMISSION"

	// Sweep and probe errors.
	CodeRangeInvalid    ErrorCode = "RANGE_INVALID"
	CodeTargetInvalid   ErrorCode = "TARGET_INVALID"
	CodeResolveFailed   ErrorCode = "RESOLVE_FAILED"
	CodeHostUnreachable ErrorCode = "HOST_UNREACHABLE"
	CodePortClosed      ErrorCode = "PORT_CLOSED"
	CodeSweepFailed     ErrorCode = "SWEEP_FAILED"
	CodeProbeFailed     ErrorCode = "PROBE_FAILED"
	CodeCapacity        ErrorCode = "CAPACITY"

	// Registry and file system errors.
	CodeRegistryParse  ErrorCode = "REGISTRY_PARSE"
	CodeFileNotFound   ErrorCode = "FILE_NOT_FOUND"
	CodeFilePermission ErrorCode = "FILE_PERMISSION"

	// Service errors.
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	CodeServiceTimeout     ErrorCode = "SERVICE_TIMEOUT"
	CodeRateLimited        ErrorCode = "RATE_LIMITED"

	// Resource lookup errors.
	CodeNotFound ErrorCode = "NOT_FOUND"
	CodeConflict ErrorCode = "CONFLICT"
)

// SweepError represents an error that occurred during sweep operations.
type SweepError struct {
	Code      ErrorCode
	Message   string
	Target    string
	Operation string
	Cause     error
	Context   map[string]interface{}
}

// Error implements the error interface.
func (e *SweepError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("[%s] %s (target: %s)", e.Code, e.Message, e.Target)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *SweepError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *SweepError) WithContext(key string, value interface{}) *SweepError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewSweepError creates a new sweep error with the specified code and message.
func NewSweepError(code ErrorCode, message string) *SweepError {
	return &SweepError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// NewSweepErrorWithTarget creates a sweep error for a specific target.
func NewSweepErrorWithTarget(code ErrorCode, message, target string) *SweepError {
	return &SweepError{
		Code:    code,
		Message: message,
		Target:  target,
		Context: make(map[string]interface{}),
	}
}

// WrapSweepError wraps an existing error as a sweep error.
func WrapSweepError(code ErrorCode, message string, err error) *SweepError {
	return &SweepError{
		Code:    code,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// WrapSweepErrorWithTarget wraps an error with target information.
func WrapSweepErrorWithTarget(code ErrorCode, message, target string, err error) *SweepError {
	return &SweepError{
		Code:    code,
		Message: message,
		Target:  target,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// ProbeError represents an error raised by a single host or port probe.
type ProbeError struct {
	Code    ErrorCode
	Message string
	Address string
	Port    uint16
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *ProbeError) Error() string {
	if e.Address != "" && e.Port > 0 {
		return fmt.Sprintf("[%s] %s (target: %s:%d)", e.Code, e.Message, e.Address, e.Port)
	}
	if e.Address != "" {
		return fmt.Sprintf("[%s] %s (target: %s)", e.Code, e.Message, e.Address)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProbeError) Unwrap() error {
	return e.Cause
}

// WithPort adds the probed port to the error.
func (e *ProbeError) WithPort(port uint16) *ProbeError {
	e.Port = port
	return e
}

// WithAddress adds the probed address to the error.
func (e *ProbeError) WithAddress(address string) *ProbeError {
	e.Address = address
	return e
}

// NewProbeError creates a new probe error.
func NewProbeError(code ErrorCode, message string) *ProbeError {
	return &ProbeError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// WrapProbeError wraps an existing error as a probe error.
func WrapProbeError(code ErrorCode, message string, err error) *ProbeError {
	return &ProbeError{
		Code:    code,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// RegistryError represents service registry errors.
type RegistryError struct {
	Code    ErrorCode
	Message string
	Source  string
	Line    int
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("[%s] %s (source: %s)", e.Code, e.Message, e.Source)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *RegistryError) Unwrap() error {
	return e.Cause
}

// WithLine adds the offending source line number to the error.
func (e *RegistryError) WithLine(line int) *RegistryError {
	e.Line = line
	return e
}

// WithSource adds the registry source (file path) to the error.
func (e *RegistryError) WithSource(source string) *RegistryError {
	e.Source = source
	return e
}

// WithCause attaches the underlying error.
func (e *RegistryError) WithCause(err error) *RegistryError {
	e.Cause = err
	return e
}

// NewRegistryError creates a new registry error.
func NewRegistryError(code ErrorCode, message string) *RegistryError {
	return &RegistryError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// WrapRegistryError wraps an existing error as a registry error.
func WrapRegistryError(code ErrorCode, message string, err error) *RegistryError {
	return &RegistryError{
		Code:    code,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Code    ErrorCode
	Message string
	Field   string
	Value   interface{}
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new configuration error.
func NewConfigError(code ErrorCode, message string) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
	}
}

// NewConfigFieldError creates a configuration error for a specific field.
func NewConfigFieldError(code ErrorCode, message, field string, value interface{}) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Field:   field,
		Value:   value,
	}
}

// WithCause attaches the underlying error.
func (e *ConfigError) WithCause(err error) *ConfigError {
	e.Cause = err
	return e
}

// WrapConfigError wraps an existing error as a configuration error.
func WrapConfigError(code ErrorCode, message string, err error) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Utility functions for common error operations

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	switch e := err.(type) {
	case *SweepError:
		return e.Code == code
	case *ProbeError:
		return e.Code == code
	case *RegistryError:
		return e.Code == code
	case *ConfigError:
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error if it has one.
func GetCode(err error) ErrorCode {
	switch e := err.(type) {
	case *SweepError:
		return e.Code
	case *ProbeError:
		return e.Code
	case *RegistryError:
		return e.Code
	case *ConfigError:
		return e.Code
	}
	return CodeUnknown
}

// IsNotFound checks if an error indicates a missing resource.
func IsNotFound(err error) bool {
	code := GetCode(err)
	return code == CodeNotFound || code == CodeFileNotFound
}

// IsConflict checks if an error indicates a resource conflict.
func IsConflict(err error) bool {
	return GetCode(err) == CodeConflict
}

// IsRetryable determines if an error indicates a retryable condition.
func IsRetryable(err error) bool {
	code := GetCode(err)
	switch code {
	case CodeTimeout, CodeServiceTimeout, CodeServiceUnavailable, CodeRateLimited:
		return true
	default:
		return false
	}
}

// IsFatal determines if an error indicates a fatal condition that should stop execution.
func IsFatal(err error) bool {
	code := GetCode(err)
	switch code {
	case CodePermission, CodeConfiguration, CodeCapacity:
		return true
	default:
		return false
	}
}

// Common error creation functions

// ErrInvalidTarget creates an error for invalid sweep targets.
func ErrInvalidTarget(target string) *SweepError {
	return NewSweepErrorWithTarget(CodeTargetInvalid, "Invalid target specification", target)
}

// ErrInvalidRange creates an error for a range whose start exceeds its end.
func ErrInvalidRange(start, end string) *ConfigError {
	return NewConfigFieldError(CodeRangeInvalid, "Range start exceeds range end", "range",
		fmt.Sprintf("%s-%s", start, end))
}

// ErrResolveFailed creates an error for hostnames without an IPv4 address.
func ErrResolveFailed(host string, err error) *SweepError {
	return WrapSweepErrorWithTarget(CodeResolveFailed, "Host resolution failed", host, err)
}

// ErrSweepTimeout creates an error for sweep timeouts.
func ErrSweepTimeout(target string) *SweepError {
	return NewSweepErrorWithTarget(CodeTimeout, "Sweep operation timed out", target)
}

// ErrHostUnreachable creates an error for unreachable hosts.
func ErrHostUnreachable(target string) *SweepError {
	return NewSweepErrorWithTarget(CodeHostUnreachable, "Host is unreachable", target)
}

// ErrPoolCapacity creates an error for worker pool allocation failures.
func ErrPoolCapacity(err error) *SweepError {
	return WrapSweepError(CodeCapacity, "Failed to allocate worker pool capacity", err)
}

// ErrConfigInvalid creates an error for invalid configuration.
func ErrConfigInvalid(field string, value interface{}) *ConfigError {
	return NewConfigFieldError(CodeValidation, "Invalid configuration value", field, value)
}

// ErrConfigMissing creates an error for missing required configuration.
func ErrConfigMissing(field string) *ConfigError {
	return NewConfigFieldError(CodeConfiguration, "Required configuration field missing", field, nil)
}

// ErrNotFound creates an error for a missing resource.
func ErrNotFound(resource string) *SweepError {
	return NewSweepError(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// ErrNotFoundWithID creates an error for a missing resource with a known ID.
func ErrNotFoundWithID(resource, id string) *SweepError {
	return NewSweepError(CodeNotFound, fmt.Sprintf("%s with ID %s not found", resource, id))
}

// ErrConflict creates an error for a resource conflict.
func ErrConflict(resource string) *SweepError {
	return NewSweepError(CodeConflict, fmt.Sprintf("%s already exists or conflict detected", resource))
}

// ErrConflictWithReason creates a conflict error with an explicit reason.
func ErrConflictWithReason(resource, reason string) *SweepError {
	return NewSweepError(CodeConflict, fmt.Sprintf("%s conflict: %s", resource, reason))
}
