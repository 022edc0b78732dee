package resolver

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks a remote lookup that failed at the network or
	// HTTP level.
	ErrTransport = errors.New("remote lookup transport failure")

	// ErrUnparseable marks a remote response with no recognizable
	// coordinates.
	ErrUnparseable = errors.New("remote response has no coordinates")

	// ErrNotFound is matched by every ResolveError of kind NotFound.
	ErrNotFound = errors.New("target not found")

	// errNoCatalogMatch is the local strategy failure.
	errNoCatalogMatch = errors.New("no catalog entry matches")

	// errNoCatalogs is the local strategy failure when none are loaded.
	errNoCatalogs = errors.New("no local catalogs loaded")
)

// ResolveError reports a name that neither the remote lookup nor the local
// catalogs could resolve. It matches ErrNotFound; a remote transport failure
// stays reachable through Remote.
type ResolveError struct {
	Input  string
	Remote error // remote lookup failure
	Local  error // catalog fallback failure
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %q: not found (remote lookup: %v; local catalogs: %v)", e.Input, e.Remote, e.Local)
}

// Is reports a match for ErrNotFound.
func (e *ResolveError) Is(target error) bool {
	return target == ErrNotFound
}

// Unwrap exposes the underlying strategy errors.
func (e *ResolveError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Remote != nil {
		errs = append(errs, e.Remote)
	}
	if e.Local != nil {
		errs = append(errs, e.Local)
	}
	return errs
}
