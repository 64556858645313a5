package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNoValidReferences is returned when a batch has nothing to download
	ErrNoValidReferences = errors.New("no valid references")

	// ErrMissingCredentials is returned by provider adapters without an API key
	ErrMissingCredentials = errors.New("provider credentials not configured")

	// ErrMissingLocator is returned when a saved asset has no retrieval locator
	ErrMissingLocator = errors.New("missing output locator")
)

// ValidationError reports malformed input rejected before any work starts
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation: %s: %v", e.Reason, e.Err)
	}
	return "validation: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ResolutionKind classifies resolver failures
type ResolutionKind string

const (
	ProviderUnavailable ResolutionKind = "provider_unavailable"
	NoMatches           ResolutionKind = "no_matches"
)

// ResolutionError is the only error the resolver returns
type ResolutionError struct {
	Kind  ResolutionKind
	Query string
	Err   error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %q: %s: %v", e.Query, e.Kind, e.Err)
	}
	return fmt.Sprintf("resolve %q: %s", e.Query, e.Kind)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// IsResolutionKind reports whether err is a ResolutionError of the given kind
func IsResolutionKind(err error, kind ResolutionKind) bool {
	var re *ResolutionError
	return errors.As(err, &re) && re.Kind == kind
}

// RetrievalError is a per-item failure from the retrieval path
type RetrievalError struct {
	CanonicalID string
	Err         error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %s: %v", e.CanonicalID, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// PersistenceError is a history sink failure. It is logged, never surfaced.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("history %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
