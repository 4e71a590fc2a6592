package services

import "fmt"

// ValidationError is an InvalidRequest: the caller sent something unusable.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

// MissingCredentialError means the server has no upstream credential and the
// request did not supply one. Operators need to see this, so it is never absorbed.
type MissingCredentialError struct{ Message string }

func (e *MissingCredentialError) Error() string { return e.Message }

// UpstreamError covers every way an upstream call can fail: transport errors,
// non-success statuses, malformed or empty payloads.
type UpstreamError struct {
	Status int
	Body   []byte
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream unavailable (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("upstream unavailable (status %d)", e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }
