package epub

import (
	"errors"
	"fmt"
)

var (
	// ErrModelFrozen is returned when a registration call arrives after
	// Save has started. The model is read-only once rendering begins.
	ErrModelFrozen = errors.New("book is frozen: no mutation allowed after save begins")
)

// ResourceFetchError is fatal: the declared cover or an explicitly
// registered stylesheet-map URL could not be retrieved.
type ResourceFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ResourceFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to fetch resource %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to fetch resource %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *ResourceFetchError) Unwrap() error { return e.Err }

// ConflictError is fatal: a stylesheet index was re-registered with an
// inconsistent source-path hint.
type ConflictError struct {
	Index        int
	ExistingHint string
	NewHint      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("stylesheet %d already registered with path hint %q, got %q",
		e.Index, e.ExistingHint, e.NewHint)
}

// DiagnosticKind classifies a non-fatal build condition.
type DiagnosticKind string

const (
	// DiagDanglingReference marks a stylesheet link with no registered path;
	// the link is removed from the chapter markup.
	DiagDanglingReference DiagnosticKind = "dangling-stylesheet-reference"
	// DiagAssetDegradation marks an embedded image that could not be
	// fetched; its img element is removed instead of failing the build.
	DiagAssetDegradation DiagnosticKind = "asset-degradation"
	// DiagMarkupFallback marks chapter content that failed both strict and
	// lenient parsing and was emitted unmodified.
	DiagMarkupFallback DiagnosticKind = "markup-fallback"
)

// Diagnostic records a non-fatal condition encountered during the build.
type Diagnostic struct {
	Kind   DiagnosticKind
	Detail string
}
