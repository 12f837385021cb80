// Package errors provides structured error handling for the planning engine.
// Every recoverable decision carries a code so callers can branch on it
// without string matching.
package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// ErrorCode represents an error code
type ErrorCode string

// Error codes for the adaptation pipeline. All codes except
// CodeCriticalSafetyViolation are recovered locally with a logged decision.
const (
	// Lookup and degradation codes
	CodeLookupMiss           ErrorCode = "LOOKUP_MISS"
	CodeNoCandidate          ErrorCode = "NO_CANDIDATE"
	CodeEmbeddingUnavailable ErrorCode = "EMBEDDING_UNAVAILABLE"

	// External collaborator codes
	CodeMalformedAIResponse ErrorCode = "MALFORMED_AI_RESPONSE"
	CodeExternalService     ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Retention codes
	CodeCriticalSafetyViolation ErrorCode = "CRITICAL_SAFETY_VIOLATION"
	CodeRedundantCase           ErrorCode = "REDUNDANT_CASE"
	CodeLowUtility              ErrorCode = "LOW_UTILITY"

	// Infrastructure codes
	CodeStorage    ErrorCode = "STORAGE_ERROR"
	CodeValidation ErrorCode = "VALIDATION_FAILED"
	CodeInternal   ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with structured information
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Recoverable reports whether the pipeline may continue past this error.
func (e *AppError) Recoverable() bool {
	return e.Code != CodeCriticalSafetyViolation
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StackTrace: getStackTrace(),
	}
}

// Predefined error constructors for the pipeline taxonomy

// NewLookupMissError reports an unknown ingredient, style or technique name.
func NewLookupMissError(kind, name string) *AppError {
	return NewAppError(
		CodeLookupMiss,
		fmt.Sprintf("Unknown %s", kind),
		fmt.Sprintf("%s %q is not present in the knowledge base", kind, name),
	).WithMetadata("name", name).WithMetadata("kind", kind)
}

// NewNoCandidateError reports that no valid substitute exists for an ingredient.
func NewNoCandidateError(ingredient string) *AppError {
	return NewAppError(
		CodeNoCandidate,
		"No valid substitute",
		fmt.Sprintf("no compatible candidate found for %q, ingredient left unchanged", ingredient),
	).WithMetadata("ingredient", ingredient)
}

// NewEmbeddingUnavailableError reports a missing vector for a name.
func NewEmbeddingUnavailableError(name string) *AppError {
	return NewAppError(
		CodeEmbeddingUnavailable,
		"Embedding unavailable",
		fmt.Sprintf("no vector for %q, falling back to ontology-only reasoning", name),
	).WithMetadata("name", name)
}

// NewMalformedAIResponseError reports an unparsable payload from the AI collaborator.
func NewMalformedAIResponseError(cause error) *AppError {
	return NewAppError(
		CodeMalformedAIResponse,
		"Malformed AI response",
		"payload could not be parsed, using templated fallback",
	).WithCause(cause)
}

// NewExternalServiceError creates an external service error
func NewExternalServiceError(service string, cause error) *AppError {
	return NewAppError(
		CodeExternalService,
		"External service error",
		fmt.Sprintf("Failed to communicate with %s", service),
	).WithCause(cause)
}

// NewCriticalSafetyViolationError reports a health or allergy breach. This is
// the only unrecoverable code: retention rejects the case unconditionally.
func NewCriticalSafetyViolationError(details string) *AppError {
	return NewAppError(
		CodeCriticalSafetyViolation,
		"Critical safety violation",
		details,
	)
}

// NewRedundantCaseError reports a candidate too close to an existing case.
func NewRedundantCaseError(dMin, gamma float64) *AppError {
	return NewAppError(
		CodeRedundantCase,
		"Redundant case",
		fmt.Sprintf("minimum distance %.3f below redundancy radius %.3f", dMin, gamma),
	).WithMetadata("d_min", dMin).WithMetadata("gamma", gamma)
}

// NewLowUtilityError reports a candidate below the utility floor.
func NewLowUtilityError(utility, floor float64) *AppError {
	return NewAppError(
		CodeLowUtility,
		"Utility below retention floor",
		fmt.Sprintf("utility %.3f below floor %.3f", utility, floor),
	).WithMetadata("utility", utility).WithMetadata("floor", floor)
}

// NewStorageError creates a case-base storage error
func NewStorageError(operation string, cause error) *AppError {
	return NewAppError(
		CodeStorage,
		"Case-base storage failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewValidationError creates a validation error
func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidation, "Validation failed", details)
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return CodeInternal
}

// getStackTrace captures the current stack trace
func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "pkg/errors") {
			builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return builder.String()
}
