// Package errors provides centralized error handling with component and
// category metadata for the soundwatch application.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"time"
)

// ErrorCategory represents the type of error for better categorization
type ErrorCategory string

const (
	// Capture session start failures, see the capture error taxonomy in
	// the myaudio package. These are the only per-session error kinds
	// that cross the engine boundary.
	CategoryCaptureUnavailable ErrorCategory = "capture-unavailable" // no input device found
	CategoryCapturePermission  ErrorCategory = "capture-permission"  // device access denied
	CategoryCaptureUnsupported ErrorCategory = "capture-unsupported" // host lacks required capability
	CategoryAnalysisInit       ErrorCategory = "analysis-init"       // spectral transform construction failed
	CategoryFrameMalformed     ErrorCategory = "frame-malformed"     // transient, absorbed per cycle

	CategoryAudio          ErrorCategory = "audio-processing"
	CategoryAudioSource    ErrorCategory = "audio-source"
	CategoryFileIO         ErrorCategory = "file-io"
	CategoryFileParsing    ErrorCategory = "file-parsing"
	CategoryValidation     ErrorCategory = "validation"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryEventBus       ErrorCategory = "event-bus"
	CategoryMQTTConnection ErrorCategory = "mqtt-connection"
	CategoryMQTTPublish    ErrorCategory = "mqtt-publish"
	CategoryGeneric        ErrorCategory = "generic"
)

// ComponentUnknown is used when the component has not been set.
const ComponentUnknown = "unknown"

// EnhancedError wraps an error with additional context and metadata
type EnhancedError struct {
	Err       error          // Original error
	Component string         // Component where error occurred
	Category  ErrorCategory  // Error category for better grouping
	Context   map[string]any // Additional context data
	Timestamp time.Time      // When the error occurred
}

// Error implements the error interface
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap implements the error unwrapping interface
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is matches two enhanced errors by category, so callers can test for an
// error class with a bare &EnhancedError{Category: ...} target.
func (ee *EnhancedError) Is(target error) bool {
	if ee2, ok := target.(*EnhancedError); ok {
		return ee.Category == ee2.Category
	}
	return Is(ee.Err, target)
}

// GetContext returns a copy of the error context to prevent external modification.
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.Context == nil {
		return nil
	}
	contextCopy := make(map[string]any, len(ee.Context))
	maps.Copy(contextCopy, ee.Context)
	return contextCopy
}

// LogAttrs returns the metadata as alternating key/value pairs suitable for
// passing straight to slog.
func (ee *EnhancedError) LogAttrs() []any {
	attrs := []any{"component", ee.Component, "category", string(ee.Category)}
	for k, v := range ee.Context {
		attrs = append(attrs, k, v)
	}
	return attrs
}

// ErrorBuilder provides a fluent interface for creating enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New creates a new error builder wrapping the given error.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf creates a new error builder from a formatted message.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component name.
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category for better grouping.
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds a key-value pair to the error context.
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Build creates the final EnhancedError.
func (eb *ErrorBuilder) Build() *EnhancedError {
	ee := &EnhancedError{
		Err:       eb.err,
		Component: eb.component,
		Category:  eb.category,
		Context:   eb.context,
		Timestamp: time.Now(),
	}
	if ee.Component == "" {
		ee.Component = ComponentUnknown
	}
	if ee.Category == "" {
		ee.Category = CategoryGeneric
	}
	return ee
}

// HasCategory reports whether err or any error in its chain carries the
// given category.
func HasCategory(err error, category ErrorCategory) bool {
	var ee *EnhancedError
	if As(err, &ee) {
		return ee.Category == category
	}
	return false
}

// IsCaptureUnavailable reports whether the error indicates that no capture
// device could be found. The consumer may retry after a device appears.
func IsCaptureUnavailable(err error) bool {
	return HasCategory(err, CategoryCaptureUnavailable)
}

// IsCapturePermissionDenied reports whether the error indicates that access
// to the capture device was denied. The consumer must resolve permissions
// before retrying.
func IsCapturePermissionDenied(err error) bool {
	return HasCategory(err, CategoryCapturePermission)
}

// IsCaptureUnsupported reports whether the error indicates that the host
// cannot provide the required capture capability. Not retryable.
func IsCaptureUnsupported(err error) bool {
	return HasCategory(err, CategoryCaptureUnsupported)
}

// IsAnalysisInitFailed reports whether the error indicates that the spectral
// transform resource could not be constructed.
func IsAnalysisInitFailed(err error) bool {
	return HasCategory(err, CategoryAnalysisInit)
}

// Standard library error function aliases so callers only need this package.

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Join returns an error that wraps the given errors
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
