package depgraph

import (
	"context"
	"sort"
)

// maxTransitiveFixedPointIterations bounds the PackageDep fixed point.
// Exceeding it signals a bug (e.g. a manifest reader returning
// non-deterministic dependency order), not a graph cycle — cycles in
// the requirement graph are legal, since PackageDep is a set, not an
// ordering.
const maxTransitiveFixedPointIterations = 50

// BuildTransitiveSets computes, for every node in the Tree, the
// transitive closure of the package names its manifest declares,
// following only nodes already present in the Tree. Root's direct set
// is computed with isMain=true (dev/test/executable/example
// dependencies included); every other node's with isMain=false. Must
// run after Resolve has converged — every node's ProjDir needs to be
// populated.
func (t *Tree) BuildTransitiveSets(ctx context.Context) error {
	direct := make([][]string, len(t.Nodes))
	for i, n := range t.Nodes {
		pkg, err := t.Manifest.ReadManifest(n.ProjDir)
		if err != nil {
			return err
		}
		isMain := i == 0
		deps := pkg.AllDependencies(isMain)
		names := make([]string, 0, len(deps))
		for _, d := range deps {
			names = append(names, d.Name)
		}
		direct[i] = names
	}

	for iter := 0; iter < maxTransitiveFixedPointIterations; iter++ {
		changed := false
		for i, n := range t.Nodes {
			newSet := t.closureFor(direct[i])
			if !packageDepEqual(n.PackageDep, newSet) {
				n.PackageDep = newSet
				changed = true
			}
		}
		if !changed {
			return nil
		}
	}
	return newErr(ErrFixedPointDiverged, nil, "package-dep fixed point did not converge after %d iterations", maxTransitiveFixedPointIterations)
}

// closureFor unions a node's direct dependency names with the
// already-known PackageDep of each of those dependencies, producing
// the next fixed-point iterate. The result is ordered by Tree index
// so two closureFor calls over equal inputs are byte-for-byte equal,
// which the fixed point's pass-over-pass comparison depends on.
func (t *Tree) closureFor(directNames []string) []string {
	seen := make(map[string]bool)
	for _, name := range directNames {
		seen[name] = true
		if nd, ok := t.Find(name); ok {
			for _, dep := range nd.PackageDep {
				seen[dep] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Slice(names, func(a, b int) bool {
		ia, aok := t.byName[names[a]]
		ib, bok := t.byName[names[b]]
		if !aok || !bok {
			return names[a] < names[b]
		}
		return ia < ib
	})
	return names
}

// packageDepEqual compares two PackageDep values: equal iff both
// absent, or both present, same length, element-wise equal in order.
func packageDepEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// LinkOrder computes the topological link ordering rooted at name, a
// post-order depth-first traversal through each node's PackageDep:
// every provider precedes every consumer, and the sequence ends with
// the root node itself. Cycles are tolerated by collapsing —
// re-entering a visited node is a no-op.
func (t *Tree) LinkOrder(name string) ([]int, error) {
	idx, ok := t.byName[name]
	if !ok {
		return nil, newErr(ErrGraphInvalidID, nil, "link order: unknown node %q", name)
	}

	visited := make([]bool, len(t.Nodes))
	order := make([]int, 0, len(t.Nodes))

	var visit func(i int) error
	visit = func(i int) error {
		if visited[i] {
			return nil
		}
		visited[i] = true
		n := t.Nodes[i]
		for _, depName := range n.PackageDep {
			di, ok := t.byName[depName]
			if !ok {
				return newErr(ErrGraphMissingDep, nil, "node %q depends on unresolved package %q", n.Name, depName)
			}
			if err := visit(di); err != nil {
				return err
			}
		}
		order = append(order, i)
		return nil
	}

	if err := visit(idx); err != nil {
		return nil, err
	}
	return order, nil
}

// LinkOrderByIndex is the index-addressed form of LinkOrder, failing
// with ErrGraphInvalidID on an out-of-range index.
func (t *Tree) LinkOrderByIndex(index int) ([]int, error) {
	if index < 0 || index >= len(t.Nodes) {
		return nil, newErr(ErrGraphInvalidID, nil, "link order: index %d out of range [0,%d)", index, len(t.Nodes))
	}
	return t.LinkOrder(t.Nodes[index].Name)
}
