// Package rollerr defines the rollout engine's error taxonomy, adapted
// from a typed-error-with-severity pattern: callers can branch on Code or
// Retryable instead of matching error strings.
package rollerr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrorCode identifies the kind of failure in the rollout taxonomy
// (spec §7).
type ErrorCode string

const (
	// CodeConfig is an invalid DeploymentConfig (e.g. non-positive batch_size).
	CodeConfig ErrorCode = "config_error"
	// CodeConcurrentDeployment is raised when deploy is called while the
	// target SystemState already has a deployment in progress.
	CodeConcurrentDeployment ErrorCode = "concurrent_deployment_error"
	// CodeUpdateFailure wraps an update executor's failure reason.
	CodeUpdateFailure ErrorCode = "update_failure"
	// CodeTimeout marks a per-instance update that exceeded its timeout.
	CodeTimeout ErrorCode = "timeout"
	// CodeThresholdBreach marks an abort triggered by the failure
	// threshold evaluator.
	CodeThresholdBreach ErrorCode = "threshold_breach"
)

// Severity classifies how serious a RolloutError is.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// RolloutError is the engine's error type: a code, a human message, the
// wrapped cause (if any), and whether retrying the same operation could
// plausibly succeed.
type RolloutError struct {
	Code      ErrorCode
	Message   string
	Severity  Severity
	Retryable bool
	Cause     error
	// RequestID is a fresh random ID stamped on each error by New, for
	// log correlation; it has no bearing on equality or retryability.
	RequestID string
}

func (e *RolloutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s[%s]: %s: %v", e.Code, e.RequestID, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Code, e.RequestID, e.Message)
}

func (e *RolloutError) Unwrap() error {
	return e.Cause
}

// Is supports errors.Is comparisons on Code alone, so callers can write
// errors.Is(err, &RolloutError{Code: CodeTimeout}).
func (e *RolloutError) Is(target error) bool {
	var other *RolloutError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

func severityForCode(code ErrorCode) Severity {
	switch code {
	case CodeThresholdBreach:
		return SeverityCritical
	case CodeConcurrentDeployment, CodeConfig:
		return SeverityError
	default:
		return SeverityWarning
	}
}

func retryableForCode(code ErrorCode) bool {
	switch code {
	case CodeTimeout, CodeUpdateFailure:
		return true
	default:
		return false
	}
}

// New builds a RolloutError with a plain message and a fresh RequestID.
func New(code ErrorCode, message string) *RolloutError {
	return &RolloutError{
		Code:      code,
		Message:   message,
		Severity:  severityForCode(code),
		Retryable: retryableForCode(code),
		RequestID: uuid.NewString(),
	}
}

// Newf builds a RolloutError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *RolloutError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap builds a RolloutError carrying cause as its Unwrap target.
func Wrap(code ErrorCode, message string, cause error) *RolloutError {
	e := New(code, message)
	e.Cause = cause
	return e
}

// Wrapf is Wrap with a formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...interface{}) *RolloutError {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

// IsRetryable reports whether err is a RolloutError marked retryable.
func IsRetryable(err error) bool {
	var re *RolloutError
	if errors.As(err, &re) {
		return re.Retryable
	}
	return false
}

// CodeOf returns the ErrorCode of err, or "" if err is not a RolloutError.
func CodeOf(err error) ErrorCode {
	var re *RolloutError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
