package depgraph

import (
	"github.com/Masterminds/semver/v3"
)

// GitReferenceKind selects what a Git origin checks out. Exactly one of
// the four forms is used; Default means "whatever the remote's HEAD
// resolves to."
type GitReferenceKind int

const (
	GitReferenceDefault GitReferenceKind = iota
	GitReferenceBranch
	GitReferenceTag
	GitReferenceRevision
)

// GitReference is a tagged reference into a Git origin: Value holds
// the branch, tag, or revision name when Kind is not Default.
type GitReference struct {
	Kind  GitReferenceKind
	Value string
}

func (r GitReference) String() string {
	switch r.Kind {
	case GitReferenceBranch:
		return "branch:" + r.Value
	case GitReferenceTag:
		return "tag:" + r.Value
	case GitReferenceRevision:
		return "rev:" + r.Value
	default:
		return "default"
	}
}

// Origin is the tagged variant of where a Node's sources come from.
// Exactly one concrete implementation is ever held by a Node: a Go
// interface replaces an inheritance-plus-optional-fields encoding so
// there is no "which optional fields are set" check to get wrong.
type Origin interface {
	isOrigin()
	// Equal reports whether two origins declare the same source,
	// used by the cache-validity predicate.
	Equal(Origin) bool
}

// PathOrigin is a local directory, resolved relative to the enclosing
// project root.
type PathOrigin struct {
	Path string
}

func (PathOrigin) isOrigin() {}

func (o PathOrigin) Equal(other Origin) bool {
	p, ok := other.(PathOrigin)
	return ok && p.Path == o.Path
}

// GitOrigin is a version-controlled repository.
type GitOrigin struct {
	URL       string
	Reference GitReference
}

func (GitOrigin) isOrigin() {}

func (o GitOrigin) Equal(other Origin) bool {
	g, ok := other.(GitOrigin)
	return ok && g.URL == o.URL && g.Reference == o.Reference
}

// RegistryOrigin is coordinates into a package registry.
type RegistryOrigin struct {
	Namespace        string
	Name             string
	RequestedVersion string // raw constraint string, may be empty
}

func (RegistryOrigin) isOrigin() {}

func (o RegistryOrigin) Equal(other Origin) bool {
	r, ok := other.(RegistryOrigin)
	return ok && r.Namespace == o.Namespace && r.Name == o.Name && r.RequestedVersion == o.RequestedVersion
}

// Node is one resolved dependency participating in the build.
type Node struct {
	Name   string
	Origin Origin

	RequestedVersion *semver.Version
	ResolvedVersion  *semver.Version

	ProjDir  string
	Revision string

	Done    bool
	Update  bool
	Cached  bool

	// PackageDep is the transitive closure of required package names,
	// filled in by BuildTransitiveSets. Order is significant: it
	// must be deterministic (by Tree index) for fixed-point comparison
	// to converge.
	PackageDep []string

	// PreprocessConfig is an opaque preprocessor configuration value;
	// it participates only in cache-validity comparison. Nothing in
	// this module sets it from a manifest, and the cache codec does not
	// persist it, so in practice both sides of the comparison are nil.
	PreprocessConfig map[string]any
}

// NewNode constructs a Node in its pre-resolution state.
func NewNode(name string, origin Origin) *Node {
	return &Node{
		Name:   name,
		Origin: origin,
	}
}

// cacheValid implements the cache-validity predicate: given a cached
// node c and a manifest-declared node m with the same name, c is
// still valid iff all of:
//  1. origins match
//  2. preprocess configs match (both absent, or element-wise equal)
//  3. resolved versions match when both present
//  4. revisions match when both present
//  5. proj dirs match when both present
//
// Missing-on-one-side for 3-5 is logged by the caller but does not by
// itself invalidate the cache.
func cacheValid(cached, declared *Node) bool {
	if !cached.Origin.Equal(declared.Origin) {
		return false
	}
	if !preprocessEqual(cached.PreprocessConfig, declared.PreprocessConfig) {
		return false
	}
	if cached.ResolvedVersion != nil && declared.ResolvedVersion != nil {
		if !cached.ResolvedVersion.Equal(declared.ResolvedVersion) {
			return false
		}
	}
	if cached.Revision != "" && declared.Revision != "" {
		if cached.Revision != declared.Revision {
			return false
		}
	}
	if cached.ProjDir != "" && declared.ProjDir != "" {
		if cached.ProjDir != declared.ProjDir {
			return false
		}
	}
	return true
}

func preprocessEqual(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			return false
		}
		if !deepEqual(av, bv) {
			return false
		}
	}
	return true
}

// deepEqual compares two decoded-TOML values (string, bool, int64,
// float64, []any, map[string]any) for equality without importing
// reflect.DeepEqual's broader behavior than we need.
func deepEqual(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		return ok && preprocessEqual(av, bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
