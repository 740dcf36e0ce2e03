package depgraph

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
)

// cacheFile is the on-disk shape of a Tree cache: a tabular TOML
// document with one top-level table, dependencies, holding one
// sub-table per node. Top-level scalars mirror Tree's own
// diagnostic/location fields.
type cacheFile struct {
	Unit      string                `toml:"unit"`
	Verbosity int                   `toml:"verbosity"`
	DepDir    string                `toml:"dep-dir"`
	Cache     string                `toml:"cache"`
	NDep      int                   `toml:"ndep"`
	Deps      map[string]cacheEntry `toml:"dependencies"`
}

// cacheEntry is one node's serialized form.
type cacheEntry struct {
	// Origin fields: exactly one group is populated.
	Path string `toml:"path,omitempty"`

	GitURL    string `toml:"git-url,omitempty"`
	GitBranch string `toml:"git-branch,omitempty"`
	GitTag    string `toml:"git-tag,omitempty"`
	GitRev    string `toml:"git-rev,omitempty"`

	Namespace        string `toml:"namespace,omitempty"`
	RegistryName     string `toml:"registry-name,omitempty"`
	RequestedVersion string `toml:"requested-version,omitempty"`

	Version    string   `toml:"version,omitempty"`
	ProjDir    string   `toml:"proj-dir,omitempty"`
	Revision   string   `toml:"revision,omitempty"`
	Done       bool     `toml:"done"`
	Update     bool     `toml:"update"`
	Cached     bool     `toml:"cached"`
	PackageDep []string `toml:"package-dep,omitempty"`
}

// unnamedKey is the fallback table key used when a node somehow lacks
// a name.
func unnamedKey(index int) string {
	return fmt.Sprintf("UNNAMED_DEPENDENCY_%d", index)
}

// nodeToEntry converts a Node to its serialized form. Paths are
// canonicalized to forward slashes on write.
func nodeToEntry(n *Node) cacheEntry {
	e := cacheEntry{
		ProjDir:    filepath.ToSlash(n.ProjDir),
		Revision:   n.Revision,
		Done:       n.Done,
		Update:     n.Update,
		Cached:     n.Cached,
		PackageDep: append([]string(nil), n.PackageDep...),
	}
	if n.ResolvedVersion != nil {
		e.Version = n.ResolvedVersion.String()
	}

	switch o := n.Origin.(type) {
	case PathOrigin:
		e.Path = filepath.ToSlash(o.Path)
	case GitOrigin:
		e.GitURL = o.URL
		switch o.Reference.Kind {
		case GitReferenceBranch:
			e.GitBranch = o.Reference.Value
		case GitReferenceTag:
			e.GitTag = o.Reference.Value
		case GitReferenceRevision:
			e.GitRev = o.Reference.Value
		}
	case RegistryOrigin:
		e.Namespace = o.Namespace
		e.RegistryName = o.Name
		e.RequestedVersion = o.RequestedVersion
	}
	return e
}

// entryToNode converts a serialized entry back into a Node. Paths are
// converted from the canonical forward-slash form to the host
// convention on read.
func entryToNode(name string, e cacheEntry) (*Node, error) {
	var origin Origin
	switch {
	case e.Path != "":
		origin = PathOrigin{Path: filepath.FromSlash(e.Path)}
	case e.GitURL != "":
		ref := GitReference{Kind: GitReferenceDefault}
		switch {
		case e.GitRev != "":
			ref = GitReference{Kind: GitReferenceRevision, Value: e.GitRev}
		case e.GitTag != "":
			ref = GitReference{Kind: GitReferenceTag, Value: e.GitTag}
		case e.GitBranch != "":
			ref = GitReference{Kind: GitReferenceBranch, Value: e.GitBranch}
		}
		origin = GitOrigin{URL: e.GitURL, Reference: ref}
	default:
		origin = RegistryOrigin{Namespace: e.Namespace, Name: e.RegistryName, RequestedVersion: e.RequestedVersion}
	}

	n := NewNode(name, origin)
	n.ProjDir = filepath.FromSlash(e.ProjDir)
	n.Revision = e.Revision
	n.Done = e.Done
	n.Update = e.Update
	n.Cached = e.Cached
	n.PackageDep = e.PackageDep

	if e.Version != "" {
		v, err := semver.NewVersion(e.Version)
		if err != nil {
			return nil, newErr(ErrVersionParse, err, "cache entry %q: parse version %q", name, e.Version)
		}
		n.ResolvedVersion = v
	}
	if e.RequestedVersion != "" {
		if ro, ok := origin.(RegistryOrigin); ok {
			v, err := semver.NewVersion(ro.RequestedVersion)
			if err == nil {
				n.RequestedVersion = v
			}
		}
	}
	return n, nil
}

// DumpCache serializes the Tree to sink in the tabular TOML format,
// closing no resources of its own (sink is caller-owned).
func (t *Tree) DumpCache(sink io.Writer) error {
	cf := cacheFile{
		Verbosity: t.Verbosity,
		DepDir:    filepath.ToSlash(t.BuildDir),
		Cache:     filepath.ToSlash(t.CachePath),
		NDep:      len(t.Nodes),
		Deps:      make(map[string]cacheEntry, len(t.Nodes)),
	}
	for i, n := range t.Nodes {
		key := n.Name
		if key == "" {
			key = unnamedKey(i)
		}
		cf.Deps[key] = nodeToEntry(n)
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(cf); err != nil {
		return newErr(ErrCacheParse, err, "encode cache file")
	}
	_, err := sink.Write(buf.Bytes())
	return err
}

// cacheTempSuffix marks a cache file mid-write; a leftover file with
// this suffix after a crash is safe to delete.
const cacheTempSuffix = ".tmp-new"

// SaveCache writes the Tree's cache to t.CachePath via a temp file
// plus rename, so a reader never observes a partially written cache:
// the write lands fully or the previous file is left untouched.
func (t *Tree) SaveCache() error {
	if t.CachePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.CachePath), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := t.CachePath + cacheTempSuffix
	f, err := os.Create(tmpPath)
	if err != nil {
		return newErr(ErrTempFile, err, "create cache file %s", tmpPath)
	}
	if err := t.DumpCache(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close cache file %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, t.CachePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace cache file %s: %w", t.CachePath, err)
	}
	return nil
}

// decodeCacheFile reads and parses a cache file. A missing file is
// not an error: it yields a nil cacheFile, since loading never fails
// on missing files.
func decodeCacheFile(path string) (*cacheFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache file %s: %w", path, err)
	}

	var cf cacheFile
	if _, err := toml.Decode(string(data), &cf); err != nil {
		return nil, newErr(ErrCacheParse, err, "parse cache file %s", path)
	}
	return &cf, nil
}

// orderedNames returns cache entry names in a stable order so nodes
// appended to a Tree (and the Tree's own byName indexing) are
// deterministic across runs.
func orderedNames(deps map[string]cacheEntry) []string {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// overlayCache merges a persisted cache into the Tree: every node
// other than root is decoded, marked Cached, and passed through Add,
// which applies the cache-validity predicate and schedules an update
// when the cache has drifted from the manifest.
func (t *Tree) overlayCache(path string) error {
	cf, err := decodeCacheFile(path)
	if err != nil {
		return err
	}
	if cf == nil {
		return nil
	}

	for _, name := range orderedNames(cf.Deps) {
		if name == "root" {
			continue
		}
		n, err := entryToNode(name, cf.Deps[name])
		if err != nil {
			return err
		}
		n.Cached = true
		t.Add(n)
	}
	return nil
}

// LoadCache replaces the Tree's node list wholesale with the contents
// of a persisted cache file. Call this only on a freshly constructed,
// otherwise-empty Tree — it does not attempt to merge with any node
// already present; loading is replace-only, not merge.
func (t *Tree) LoadCache(path string) error {
	cf, err := decodeCacheFile(path)
	if err != nil {
		return err
	}
	if cf == nil {
		return nil
	}

	names := orderedNames(cf.Deps)
	ordered := make([]string, 0, len(names))
	if _, ok := cf.Deps["root"]; ok {
		ordered = append(ordered, "root")
	}
	for _, name := range names {
		if name != "root" {
			ordered = append(ordered, name)
		}
	}

	nodes := make([]*Node, 0, len(ordered))
	byName := make(map[string]int, len(ordered))
	for _, name := range ordered {
		n, err := entryToNode(name, cf.Deps[name])
		if err != nil {
			return err
		}
		byName[name] = len(nodes)
		nodes = append(nodes, n)
	}

	t.Nodes = nodes
	t.byName = byName
	if cf.DepDir != "" {
		t.BuildDir = filepath.FromSlash(cf.DepDir)
	}
	t.Verbosity = cf.Verbosity
	return nil
}
