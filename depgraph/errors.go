// Package depgraph implements the dependency resolution core: the Node
// and Tree types, the cache-validity predicate, the resolver, the
// cache codec, and the single error type they share with the registry
// package.
package depgraph

import "fmt"

// Kind distinguishes the error variants raised by the dependency
// resolution core. A single error type carries a Kind plus a message,
// rather than one Go error type per failure mode: one type, variants
// distinguished by a short code.
type Kind string

const (
	// ErrManifestMismatch: a fetched package's manifest name does not
	// match the name the declaring node used to reach it.
	ErrManifestMismatch Kind = "DEP001"
	// ErrUpdateUnknown: Update(name) called for a name absent from the Tree.
	ErrUpdateUnknown Kind = "DEP002"
	// ErrRegistryMissingField: registry JSON response is missing a required field.
	ErrRegistryMissingField Kind = "DEP003"
	// ErrRegistryHTTP: registry JSON response carries a non-200 code.
	ErrRegistryHTTP Kind = "DEP004"
	// ErrVersionParse: a version string failed to parse as semver.
	ErrVersionParse Kind = "DEP005"
	// ErrLocalRegistryMiss: requested version/manifest missing under a local registry.
	ErrLocalRegistryMiss Kind = "DEP006"
	// ErrNoVersions: local registry has no version subdirectories for a package.
	ErrNoVersions Kind = "DEP007"
	// ErrGraphInvalidID: LinkOrder called with an out-of-range node index.
	ErrGraphInvalidID Kind = "DEP008"
	// ErrGraphMissingDep: a PackageDep name does not resolve in the Tree.
	ErrGraphMissingDep Kind = "DEP009"
	// ErrFixedPointDiverged: the PackageDep fixed point exceeded its iteration bound.
	ErrFixedPointDiverged Kind = "DEP010"
	// ErrCacheParse: the cache file contents are malformed.
	ErrCacheParse Kind = "DEP011"
	// ErrTempFile: a temp file for a download could not be created.
	ErrTempFile Kind = "DEP012"
)

// Error is the single error type raised by the dependency resolution
// core. Callers distinguish variants by Kind, not by message text.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// newErr constructs an *Error with an optional wrapped cause.
func newErr(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// NewError is the exported form of newErr, for collaborator packages
// (registry, gitclient) that need to raise a core error kind without
// reaching into depgraph's unexported constructor.
func NewError(kind Kind, cause error, format string, args ...any) *Error {
	return newErr(kind, cause, format, args...)
}

// Is reports whether target is a *Error of the same Kind, so callers can
// write `errors.Is(err, depgraph.KindSentinel(depgraph.ErrUpdateUnknown))`-style
// checks via a sentinel. Since Kind values are carried on the struct rather
// than as package-level sentinel errors, Is compares Kind alone for any
// *Error target; Message and Cause are ignored.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindSentinel returns a zero-message *Error usable with errors.Is to
// check only the Kind, e.g. errors.Is(err, depgraph.KindSentinel(depgraph.ErrUpdateUnknown)).
func KindSentinel(k Kind) *Error {
	return &Error{Kind: k}
}
