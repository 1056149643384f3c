package services

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential means the Gemini client cannot be built. Nothing in
	// the process works without it.
	ErrMissingCredential = errors.New("gemini api key is not configured")

	ErrCapabilityUnavailable = errors.New("capability unavailable")
	errNoCandidates          = errors.New("response contained no candidates")
)

// UpstreamError wraps any failure of a call to the language model service.
// Callers log it and show a generic localized message instead.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gemini %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnsupportedError struct{ Message string }

func (e *UnsupportedError) Error() string { return e.Message }
