// Package scaffold computes Bemis-Murcko frameworks and an atom-order
// invariant key for them, used to group structurally similar molecules.
//
// The framework is what remains after repeatedly stripping terminal atoms:
// ring systems plus the linkers between them. Atoms double-bonded to the
// framework (exocyclic C=O and the like) are kept. Acyclic molecules have an
// empty framework and share the empty key.
package scaffold

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/Noofbiz/molprep/smiles"
)

// Atoms returns the indices of the atoms in the Murcko framework of m, ascending.
func Atoms(m *smiles.Molecule) []int {
	g := simple.NewUndirectedGraph()
	for i := range m.Atoms {
		g.AddNode(simple.Node(i))
	}
	for _, b := range m.Bonds {
		g.SetEdge(g.NewEdge(simple.Node(b.From), simple.Node(b.To)))
	}

	// strip terminal atoms until only cycles and their linkers remain
	queue := make([]int64, 0, len(m.Atoms))
	for i := range m.Atoms {
		if g.From(int64(i)).Len() <= 1 {
			queue = append(queue, int64(i))
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if g.Node(id) == nil {
			continue
		}
		neighbors := graph.NodesOf(g.From(id))
		g.RemoveNode(id)
		for _, n := range neighbors {
			if g.From(n.ID()).Len() <= 1 {
				queue = append(queue, n.ID())
			}
		}
	}

	keep := make(map[int]bool)
	for _, n := range graph.NodesOf(g.Nodes()) {
		keep[int(n.ID())] = true
	}
	if len(keep) == 0 {
		return nil
	}

	for i := range m.Atoms {
		if keep[i] || m.Degree(i) != 1 {
			continue
		}
		nb := m.Neighbors(i)[0]
		if !keep[nb] {
			continue
		}
		if b, _ := m.BondBetween(i, nb); b.Kind == smiles.Double {
			keep[i] = true
		}
	}

	out := make([]int, 0, len(keep))
	for i := range keep {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Key returns a canonical key for the framework of m. Molecules whose
// frameworks are the same graph, regardless of the order their atoms were
// written in, receive the same key. Acyclic molecules return "".
//
// The key is derived from Weisfeiler-Lehman refinement of the framework
// graph, labelled by element, aromaticity and charge, with bond kinds on the
// edges.
func Key(m *smiles.Molecule) string {
	atoms := Atoms(m)
	if len(atoms) == 0 {
		return ""
	}

	labels := make(map[int]uint64, len(atoms))
	inFramework := make(map[int]bool, len(atoms))
	for _, i := range atoms {
		inFramework[i] = true
		a := m.Atoms[i]
		labels[i] = xxhash.Sum64String(fmt.Sprintf("%s|%t|%d", a.Element, a.Aromatic, a.Charge))
	}

	var sb strings.Builder
	for round := 0; round < len(atoms); round++ {
		next := make(map[int]uint64, len(atoms))
		for _, i := range atoms {
			var neigh []string
			for _, j := range m.Neighbors(i) {
				if !inFramework[j] {
					continue
				}
				b, _ := m.BondBetween(i, j)
				neigh = append(neigh, b.Kind.String()+strconv.FormatUint(labels[j], 16))
			}
			sort.Strings(neigh)
			sb.Reset()
			sb.WriteString(strconv.FormatUint(labels[i], 16))
			sb.WriteByte('(')
			sb.WriteString(strings.Join(neigh, ","))
			sb.WriteByte(')')
			next[i] = xxhash.Sum64String(sb.String())
		}
		if distinct(next) == distinct(labels) && round > 0 {
			labels = next
			break
		}
		labels = next
	}

	final := make([]string, 0, len(atoms))
	for _, i := range atoms {
		final = append(final, strconv.FormatUint(labels[i], 16))
	}
	sort.Strings(final)
	return fmt.Sprintf("%016x", xxhash.Sum64String(strings.Join(final, ".")))
}

// KeyOf parses a SMILES string and returns its framework key.
func KeyOf(s string) (string, error) {
	m, err := smiles.Parse(s)
	if err != nil {
		return "", err
	}
	return Key(m), nil
}

func distinct(labels map[int]uint64) int {
	seen := make(map[uint64]struct{}, len(labels))
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	return len(seen)
}
