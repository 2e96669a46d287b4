// Package errs defines the error categories surfaced to API callers.
// Service packages wrap these with fmt.Errorf("pkg: ...: %w", ...) so the
// HTTP layer can classify failures with errors.Is while messages stay
// specific.
package errs

import "errors"

var (
	// ErrNotFound: a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAccessDenied: the actor lacks the required role, or a reviewer
	// is reviewing their own request.
	ErrAccessDenied = errors.New("access denied")
	// ErrAlreadyReviewed: the change request is no longer pending.
	ErrAlreadyReviewed = errors.New("change request already reviewed")
	// ErrValidation: the request is well-formed but violates a domain rule.
	ErrValidation = errors.New("validation failed")
)
