package depgraph

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
)

// maxResolvePasses bounds the outer BFS loop as a safety net to
// surface bugs rather than loop forever: the Tree only grows and each
// pass reduces the set of !done nodes, so in practice this bound is
// never hit on a correct implementation.
const maxResolvePasses = 10000

// Resolve drives the breadth-first fixed point: resolve the root
// (loading its manifest), enqueue its declared dependencies, overlay
// any prior cache, then repeatedly resolve every not-done node until
// the Tree is finished.
//
// root is the enclosing project directory the root node's Path(".")
// origin is relative to.
func (t *Tree) Resolve(ctx context.Context, root string) error {
	rootNode := t.Nodes[0]
	if !rootNode.Done {
		if err := t.resolveOne(ctx, root, rootNode); err != nil {
			return err
		}
	}

	if t.CachePath != "" {
		if err := t.overlayCache(t.CachePath); err != nil {
			return err
		}
	}

	passes := 0
	for !t.Finished() {
		passes++
		if passes > maxResolvePasses {
			return newErr(ErrFixedPointDiverged, nil, "resolve did not converge after %d passes", maxResolvePasses)
		}
		// Snapshot the current length: resolving a node may append new
		// nodes to t.Nodes, and those new nodes must be visited too —
		// but only in a later pass, preserving the BFS-from-root order
		// guarantee.
		for _, n := range t.Nodes {
			if n.Done {
				continue
			}
			if err := t.resolveOne(ctx, root, n); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveOne implements the per-node resolution steps: locate sources
// by origin kind, load the manifest, register resolved fields, mark
// done, and enqueue the manifest's own dependencies.
func (t *Tree) resolveOne(ctx context.Context, root string, n *Node) error {
	if n.Done {
		return nil
	}

	freshlyFetched := false

	switch o := n.Origin.(type) {
	case PathOrigin:
		n.ProjDir = filepath.Join(root, o.Path)

	case GitOrigin:
		dir := filepath.Join(t.BuildDir, n.Name)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Log.Info("fetching {Package} via git", n.Name)
			if err := t.Git.Checkout(ctx, dir, o.URL, o.Reference); err != nil {
				return err
			}
			freshlyFetched = true
		} else if n.Update {
			if err := t.Git.Checkout(ctx, dir, o.URL, o.Reference); err != nil {
				return err
			}
			freshlyFetched = true
			n.Update = false
		}
		rev, err := t.Git.CurrentRevision(ctx, dir)
		if err != nil {
			return err
		}
		n.Revision = rev
		n.ProjDir = dir

	case RegistryOrigin:
		cfg, err := t.Settings.Load(t.ConfigOverride)
		if err != nil {
			return err
		}
		projDir, resolvedVersion, err := t.Registry.Locate(ctx, o, cfg)
		if err != nil {
			return err
		}
		n.ProjDir = projDir
		if resolvedVersion != "" {
			v, err := semver.NewVersion(resolvedVersion)
			if err != nil {
				return newErr(ErrVersionParse, err, "parse resolved version %q for %s", resolvedVersion, n.Name)
			}
			n.ResolvedVersion = v
		}
		freshlyFetched = true
	}

	pkg, err := t.Manifest.ReadManifest(n.ProjDir)
	if err != nil {
		return err
	}
	if n.Name != "root" && pkg.Name != n.Name {
		return newErr(ErrManifestMismatch, nil, "fetched package %q does not match declaring node %q", pkg.Name, n.Name)
	}
	if pkg.Version != "" {
		if v, err := semver.NewVersion(pkg.Version); err == nil {
			n.ResolvedVersion = v
		}
	}

	// For a Git origin that was not freshly fetched this pass,
	// incomplete git metadata (missing URL) means the cached node
	// needs a refetch next pass.
	if g, ok := n.Origin.(GitOrigin); ok && !freshlyFetched {
		if g.URL == "" {
			n.Update = true
		}
	}

	n.Done = true

	isMain := n.Name == "root"
	if err := t.AddPackage(pkg, isMain); err != nil {
		return err
	}
	return nil
}

// Update re-enters the resolution loop for a single subtree: a
// Git-origin node flagged Update is re-checked out, has Done/Update
// cleared, and the whole Tree resolves again (cheap: every other node
// is already Done). Other origins are no-ops.
func (t *Tree) Update(ctx context.Context, root, name string) error {
	n, ok := t.Find(name)
	if !ok {
		return newErr(ErrUpdateUnknown, nil, "update: no such dependency %q", name)
	}

	if o, ok := n.Origin.(GitOrigin); ok && n.Update {
		dir := filepath.Join(t.BuildDir, n.Name)
		if err := t.Git.Checkout(ctx, dir, o.URL, o.Reference); err != nil {
			return err
		}
		n.Done = false
		n.Update = false
		return t.Resolve(ctx, root)
	}
	return nil
}

// UpdateAll invokes Update for every node in insertion order.
func (t *Tree) UpdateAll(ctx context.Context, root string) error {
	for _, n := range t.Nodes {
		if err := t.Update(ctx, root, n.Name); err != nil {
			return err
		}
	}
	return nil
}
