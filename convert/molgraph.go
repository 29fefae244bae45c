package convert

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/Noofbiz/molprep/smiles"
)

// AtomFeatures are the per-node attributes of a molecular graph.
type AtomFeatures struct {
	Element   string
	Number    int
	Aromatic  bool
	Charge    int
	HCount    int
	Degree    int
	Isotope   int
	Chirality string
}

// BondFeatures are the per-edge attributes of a molecular graph, From < To.
type BondFeatures struct {
	From, To int
	Order    float64
}

// MolGraph is a molecule stored as a gonum weighted undirected graph. Node
// IDs are atom indices in input order; edge weights are bond orders.
type MolGraph struct {
	g     *simple.WeightedUndirectedGraph
	atoms []AtomFeatures
}

// NewMolGraph builds a MolGraph from a parsed molecule.
func NewMolGraph(m *smiles.Molecule) *MolGraph {
	g := simple.NewWeightedUndirectedGraph(0, 0)
	atoms := make([]AtomFeatures, len(m.Atoms))
	for i, a := range m.Atoms {
		g.AddNode(simple.Node(i))
		atoms[i] = AtomFeatures{
			Element:   a.Element,
			Number:    a.Number,
			Aromatic:  a.Aromatic,
			Charge:    a.Charge,
			HCount:    a.HCount,
			Degree:    m.Degree(i),
			Isotope:   a.Isotope,
			Chirality: a.Chirality,
		}
	}
	for _, b := range m.Bonds {
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(b.From), simple.Node(b.To), b.Kind.Order()))
	}
	return &MolGraph{g: g, atoms: atoms}
}

// Graph exposes the underlying gonum graph for use with gonum algorithms.
func (mg *MolGraph) Graph() *simple.WeightedUndirectedGraph { return mg.g }

// NumAtoms returns the node count.
func (mg *MolGraph) NumAtoms() int { return len(mg.atoms) }

// NumBonds returns the edge count.
func (mg *MolGraph) NumBonds() int { return mg.g.Edges().Len() }

// Atom returns the features of atom i.
func (mg *MolGraph) Atom(i int) AtomFeatures { return mg.atoms[i] }

// Atoms returns a copy of all atom features in node order.
func (mg *MolGraph) Atoms() []AtomFeatures {
	return append([]AtomFeatures(nil), mg.atoms...)
}

// BondOrder returns the order of the bond between atoms a and b.
func (mg *MolGraph) BondOrder(a, b int) (float64, bool) {
	if !mg.g.HasEdgeBetween(int64(a), int64(b)) {
		return 0, false
	}
	return mg.g.Weight(int64(a), int64(b))
}

// Bonds returns all bonds sorted by (From, To).
func (mg *MolGraph) Bonds() []BondFeatures {
	var out []BondFeatures
	edges := mg.g.WeightedEdges()
	for edges.Next() {
		e := edges.WeightedEdge()
		from, to := int(e.From().ID()), int(e.To().ID())
		if from > to {
			from, to = to, from
		}
		out = append(out, BondFeatures{From: from, To: to, Order: e.Weight()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// Equal reports whether two graphs have identical atoms and bonds.
func (mg *MolGraph) Equal(other *MolGraph) bool {
	if mg.NumAtoms() != other.NumAtoms() || mg.NumBonds() != other.NumBonds() {
		return false
	}
	for i := range mg.atoms {
		if mg.atoms[i] != other.atoms[i] {
			return false
		}
	}
	a, b := mg.Bonds(), other.Bonds()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
