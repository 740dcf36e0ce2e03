package depgraph

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/awvwgk/fortran-package-manager/manifest"
	"github.com/awvwgk/fortran-package-manager/observability"
)

// DefaultBuildDir is where fetched Git/registry packages are materialized.
const DefaultBuildDir = "build/dependencies"

// Tree is the append-only flat collection of Nodes discovered during
// resolution. Nodes are never removed; indices are never reused.
type Tree struct {
	Nodes []*Node

	BuildDir       string
	CachePath      string
	Verbosity      int
	Log            observability.Logger
	ConfigOverride string

	// byName indexes node names to their (stable) position in Nodes.
	byName map[string]int

	// Collaborators, injected so the Resolver can be driven
	// hermetically in tests.
	Manifest ManifestReader
	Git      GitClient
	Registry Locator
	Settings SettingsLoader
}

// NewTree constructs a Tree seeded with the root node at index 0:
// nodes[0] is always the root, with origin Path(".").
func NewTree(manifestReader ManifestReader, git GitClient, registry Locator, settingsLoader SettingsLoader) *Tree {
	t := &Tree{
		BuildDir: DefaultBuildDir,
		Log:      observability.NewNullLogger(),
		byName:   make(map[string]int),
		Manifest: manifestReader,
		Git:      git,
		Registry: registry,
		Settings: settingsLoader,
	}
	root := NewNode("root", PathOrigin{Path: "."})
	t.Nodes = append(t.Nodes, root)
	t.byName[root.Name] = 0
	return t
}

// Find returns the node with the given name and whether it was
// present. A total function over names present in the Tree; false
// means absent.
func (t *Tree) Find(name string) (*Node, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.Nodes[idx], true
}

// Finished reports whether every node in the Tree has Done == true.
func (t *Tree) Finished() bool {
	for _, n := range t.Nodes {
		if !n.Done {
			return false
		}
	}
	return true
}

// Add inserts a raw dependency declaration into the Tree, or merges a
// fully populated (possibly cached) Node, per these rules:
//
//   - If a node with the same name exists and the incoming node is
//     Cached, compare it against the stored node via the cache-validity
//     predicate. If they differ, mark the stored node Update = true.
//     Otherwise replace the stored entry with the cached one, preserving
//     its resolved fields, and clear Update.
//   - If a node with the same name exists and the incoming node is not
//     Cached, the existing entry is left unchanged: manifest-declared
//     dependencies have priority over transitive discoveries of the
//     same name (first declaration wins).
//   - Otherwise the node is appended with Update = false.
func (t *Tree) Add(incoming *Node) {
	idx, exists := t.byName[incoming.Name]
	if !exists {
		t.Nodes = append(t.Nodes, incoming)
		t.byName[incoming.Name] = len(t.Nodes) - 1
		return
	}

	stored := t.Nodes[idx]
	if !incoming.Cached {
		// Manifest-declared dependencies have priority; a transitive
		// discovery of an already-known name is a no-op.
		return
	}

	// Resolved fields present on only one side do not invalidate the
	// cache entry by themselves; the change in presence is logged.
	if (incoming.ResolvedVersion == nil) != (stored.ResolvedVersion == nil) ||
		(incoming.Revision == "") != (stored.Revision == "") ||
		(incoming.ProjDir == "") != (stored.ProjDir == "") {
		t.Log.Debug("cache entry for {Package} and its manifest declaration differ in which resolved fields are present", incoming.Name)
	}

	if !cacheValid(incoming, stored) {
		t.Log.Debug("cache entry for {Package} is stale relative to manifest, scheduling update", incoming.Name)
		stored.Update = true
		return
	}

	// Cache entry matches: adopt it, preserving resolved fields.
	incoming.Update = false
	t.Nodes[idx] = incoming
	t.byName[incoming.Name] = idx
}

// AddDependency is the raw-dependency form of Add: it builds a Node
// from a manifest.Dependency and inserts it as a non-cached, freshly
// discovered dependency.
func (t *Tree) AddDependency(dep manifest.Dependency) error {
	origin, requested, err := originFromDependency(dep)
	if err != nil {
		return err
	}
	n := NewNode(dep.Name, origin)
	n.RequestedVersion = requested
	t.Add(n)
	return nil
}

// AddPackage expands a parsed manifest into declared dependencies and
// enqueues them: when isMain is true, dev-dependencies and
// per-executable/test/example dependencies are also enqueued; when
// false, only runtime dependencies are.
func (t *Tree) AddPackage(pkg *manifest.Package, isMain bool) error {
	for _, dep := range pkg.AllDependencies(isMain) {
		if err := t.AddDependency(dep); err != nil {
			return fmt.Errorf("package %s: dependency %s: %w", pkg.Name, dep.Name, err)
		}
	}
	return nil
}

// originFromDependency converts a manifest.Dependency into the
// depgraph tagged Origin variant plus its requested version
// constraint (registry origins only).
func originFromDependency(dep manifest.Dependency) (Origin, *semver.Version, error) {
	switch {
	case dep.IsPath():
		return PathOrigin{Path: dep.Path}, nil, nil
	case dep.IsGit():
		ref := GitReference{Kind: GitReferenceDefault}
		switch {
		case dep.Git.Rev != "":
			ref = GitReference{Kind: GitReferenceRevision, Value: dep.Git.Rev}
		case dep.Git.Tag != "":
			ref = GitReference{Kind: GitReferenceTag, Value: dep.Git.Tag}
		case dep.Git.Branch != "":
			ref = GitReference{Kind: GitReferenceBranch, Value: dep.Git.Branch}
		}
		return GitOrigin{URL: dep.Git.URL, Reference: ref}, nil, nil
	default:
		origin := RegistryOrigin{Namespace: dep.Namespace, Name: dep.Name, RequestedVersion: dep.Version}
		if dep.Version == "" {
			return origin, nil, nil
		}
		v, err := semver.NewVersion(dep.Version)
		if err != nil {
			return nil, nil, newErr(ErrVersionParse, err, "parse requested version %q for %s", dep.Version, dep.Name)
		}
		return origin, v, nil
	}
}
