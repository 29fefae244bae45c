package convert

import (
	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/Noofbiz/molprep/smiles"
)

// NodeFeatureDim is the width of a TensorGraph node feature row:
// atomic number, formal charge, hydrogen count, aromatic flag, degree, isotope.
const NodeFeatureDim = 6

// TensorGraph is a molecule in the flat layout message-passing models
// consume: a node feature matrix plus a bidirected edge list. Each bond
// appears twice, once per direction, in bond order.
type TensorGraph struct {
	NumNodes int
	NumEdges int // directed edges, 2x bonds

	// NodeFeatures is row-major [NumNodes, NodeFeatureDim].
	NodeFeatures []float32
	// EdgeSrc and EdgeDst hold the endpoints of each directed edge.
	EdgeSrc []int32
	EdgeDst []int32
	// EdgeFeatures holds the bond order of each directed edge.
	EdgeFeatures []float32
}

// NewTensorGraph builds a TensorGraph from a parsed molecule.
func NewTensorGraph(m *smiles.Molecule) *TensorGraph {
	n := m.NumAtoms()
	tg := &TensorGraph{
		NumNodes:     n,
		NumEdges:     2 * m.NumBonds(),
		NodeFeatures: make([]float32, 0, n*NodeFeatureDim),
		EdgeSrc:      make([]int32, 0, 2*m.NumBonds()),
		EdgeDst:      make([]int32, 0, 2*m.NumBonds()),
		EdgeFeatures: make([]float32, 0, 2*m.NumBonds()),
	}
	for i, a := range m.Atoms {
		aromatic := float32(0)
		if a.Aromatic {
			aromatic = 1
		}
		tg.NodeFeatures = append(tg.NodeFeatures,
			float32(a.Number),
			float32(a.Charge),
			float32(a.HCount),
			aromatic,
			float32(m.Degree(i)),
			float32(a.Isotope),
		)
	}
	for _, b := range m.Bonds {
		order := float32(b.Kind.Order())
		tg.EdgeSrc = append(tg.EdgeSrc, int32(b.From), int32(b.To))
		tg.EdgeDst = append(tg.EdgeDst, int32(b.To), int32(b.From))
		tg.EdgeFeatures = append(tg.EdgeFeatures, order, order)
	}
	return tg
}

// ToGomlxTensors returns the node features [N, NodeFeatureDim], edge index
// [2, E] and edge features [E, 1] as gomlx tensors. A molecule without bonds
// gets edge tensors with a zero-length axis.
func (tg *TensorGraph) ToGomlxTensors() (nodes, edgeIndex, edgeFeatures *tensors.Tensor) {
	nodes = tensors.FromFlatDataAndDimensions(tg.NodeFeatures, tg.NumNodes, NodeFeatureDim)

	index := make([]int32, 0, 2*tg.NumEdges)
	index = append(index, tg.EdgeSrc...)
	index = append(index, tg.EdgeDst...)
	edgeIndex = tensors.FromFlatDataAndDimensions(index, 2, tg.NumEdges)

	edgeFeatures = tensors.FromFlatDataAndDimensions(tg.EdgeFeatures, tg.NumEdges, 1)
	return nodes, edgeIndex, edgeFeatures
}
