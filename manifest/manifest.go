// Package manifest reads the per-package metadata file (fpm.toml)
// declaring a package's name, version, and dependencies. The
// dependency resolution core treats it as a black box with a narrow
// interface, but a real implementation has to live somewhere.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file name every package is expected to carry.
const FileName = "fpm.toml"

// GitSpec declares how a git dependency is checked out. At most one of
// Branch/Tag/Rev is set; none set means "default" (remote HEAD).
type GitSpec struct {
	URL    string `toml:"url"`
	Branch string `toml:"branch,omitempty"`
	Tag    string `toml:"tag,omitempty"`
	Rev    string `toml:"rev,omitempty"`
}

// Dependency is one entry under [dependencies], [dev-dependencies], or
// a per-executable/test/example dependency table.
type Dependency struct {
	Name string `toml:"-"` // set from the table key, not a field

	Path      string   `toml:"path,omitempty"`
	Git       *GitSpec `toml:"git,omitempty"`
	Namespace string   `toml:"namespace,omitempty"`
	Version   string   `toml:"version,omitempty"`
}

// IsPath reports whether this dependency is declared as a local path.
func (d Dependency) IsPath() bool { return d.Path != "" }

// IsGit reports whether this dependency is declared as a git source.
func (d Dependency) IsGit() bool { return d.Git != nil }

// Executable, Example, and Test carry their own per-target dependency
// sets, mirroring fpm's manifest shape (a test or example may need a
// dependency the library itself does not).
type Executable struct {
	Name       string                `toml:"name"`
	Dependency map[string]Dependency `toml:"dependencies"`
}

type Example struct {
	Name       string                `toml:"name"`
	Dependency map[string]Dependency `toml:"dependencies"`
}

type Test struct {
	Name       string                `toml:"name"`
	Dependency map[string]Dependency `toml:"dependencies"`
}

// Preprocess is an opaque per-package preprocessor configuration
// entry. ReadManifest decodes only its name: Config is excluded from
// TOML decoding and stays nil, and no Preprocess entry is copied onto
// a depgraph Node, so these entries do not take part in the resolver's
// cache validity comparison.
type Preprocess struct {
	Name   string         `toml:"name"`
	Config map[string]any `toml:"-"`
}

// Package is the parsed contents of an fpm.toml.
type Package struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`

	Dependency    map[string]Dependency `toml:"dependencies"`
	DevDependency map[string]Dependency `toml:"dev-dependencies"`

	Executable []Executable `toml:"executable"`
	Example    []Example    `toml:"example"`
	Test       []Test       `toml:"test"`

	Preprocess []Preprocess `toml:"preprocess"`
}

// namedDeps fills in the Name field on each Dependency from its table
// key, since BurntSushi/toml decodes map keys separately from values.
func namedDeps(m map[string]Dependency) map[string]Dependency {
	for k, v := range m {
		v.Name = k
		m[k] = v
	}
	return m
}

func (p *Package) normalize() {
	p.Dependency = namedDeps(p.Dependency)
	p.DevDependency = namedDeps(p.DevDependency)
	for i := range p.Executable {
		p.Executable[i].Dependency = namedDeps(p.Executable[i].Dependency)
	}
	for i := range p.Example {
		p.Example[i].Dependency = namedDeps(p.Example[i].Dependency)
	}
	for i := range p.Test {
		p.Test[i].Dependency = namedDeps(p.Test[i].Dependency)
	}
}

// Reader reads a package manifest from a path, decoupling the
// dependency resolution core from the filesystem.
type Reader interface {
	ReadManifest(path string) (*Package, error)
}

// TOMLReader is the default Reader, parsing fpm.toml with BurntSushi/toml.
type TOMLReader struct{}

// NewReader returns the default manifest reader.
func NewReader() Reader { return TOMLReader{} }

// ReadManifest reads and parses the manifest at path. path may name
// either the manifest file itself or the directory containing it.
func (TOMLReader) ReadManifest(path string) (*Package, error) {
	p := path
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		p = filepath.Join(path, FileName)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", p, err)
	}

	var pkg Package
	if _, err := toml.Decode(string(data), &pkg); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", p, err)
	}
	if pkg.Name == "" {
		return nil, fmt.Errorf("manifest %s: missing package name", p)
	}

	pkg.normalize()
	return &pkg, nil
}

// AllDependencies returns the flattened dependency list for a package,
// matching Tree.AddPackage(pkg, isMain)'s enqueue rule: when
// isMain is true, dev-dependencies and per-executable/test/example
// dependencies are included alongside runtime dependencies; when
// false, only runtime dependencies are included.
func (p *Package) AllDependencies(isMain bool) []Dependency {
	deps := make([]Dependency, 0, len(p.Dependency))
	for _, d := range p.Dependency {
		deps = append(deps, d)
	}
	if !isMain {
		return deps
	}
	for _, d := range p.DevDependency {
		deps = append(deps, d)
	}
	for _, ex := range p.Executable {
		for _, d := range ex.Dependency {
			deps = append(deps, d)
		}
	}
	for _, ex := range p.Example {
		for _, d := range ex.Dependency {
			deps = append(deps, d)
		}
	}
	for _, ex := range p.Test {
		for _, d := range ex.Dependency {
			deps = append(deps, d)
		}
	}
	return deps
}
