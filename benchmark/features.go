package benchmark

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/Noofbiz/molprep/convert"
)

// Feature layout of a molecule descriptor vector. Counts are log1p scaled.
//
//	[0, len(elementBuckets))  heavy atom counts per element
//	other                     heavy atoms of any other element
//	single..aromatic          bond counts by order
//	aromaticAtoms             aromatic atom count
//	hydrogens                 total attached hydrogens
//	charge                    sum of |formal charge|
//	atoms, bonds, rings       graph size and cycle rank
var elementBuckets = []int{6, 7, 8, 9, 15, 16, 17, 35, 53} // C N O F P S Cl Br I

const (
	featOther = iota + 9
	featSingle
	featDouble
	featTriple
	featAromaticBond
	featAromaticAtoms
	featHydrogens
	featCharge
	featAtoms
	featBonds
	featRings

	// FeatureDim is the length of the vectors Featurize returns.
	FeatureDim
)

var bucketIndex = func() map[int]int {
	m := make(map[int]int, len(elementBuckets))
	for i, z := range elementBuckets {
		m[z] = i
	}
	return m
}()

// Featurize reduces a converted molecule to a fixed-width descriptor. It
// accepts the graph types produced by the convert package.
func Featurize(g any) ([]float32, error) {
	switch mol := g.(type) {
	case *convert.MolGraph:
		return featurizeMolGraph(mol), nil
	case *convert.TensorGraph:
		return featurizeTensorGraph(mol), nil
	default:
		return nil, fmt.Errorf("cannot featurize graph of type %T", g)
	}
}

func featurizeMolGraph(mg *convert.MolGraph) []float32 {
	var raw [FeatureDim]float64
	for _, a := range mg.Atoms() {
		countAtom(&raw, a.Number, a.Aromatic, a.HCount, a.Charge)
	}
	for _, b := range mg.Bonds() {
		countBond(&raw, b.Order)
	}
	raw[featRings] = float64(cycleRank(mg.Graph(), mg.NumAtoms(), mg.NumBonds()))
	return scale(raw)
}

func featurizeTensorGraph(tg *convert.TensorGraph) []float32 {
	var raw [FeatureDim]float64
	for i := range tg.NumNodes {
		row := tg.NodeFeatures[i*convert.NodeFeatureDim : (i+1)*convert.NodeFeatureDim]
		countAtom(&raw, int(row[0]), row[3] != 0, int(row[2]), int(row[1]))
	}

	g := simple.NewUndirectedGraph()
	for i := range tg.NumNodes {
		g.AddNode(simple.Node(i))
	}
	// each bond is stored in both directions; count the first of each pair
	for e := 0; e < tg.NumEdges; e += 2 {
		countBond(&raw, float64(tg.EdgeFeatures[e]))
		g.SetEdge(g.NewEdge(simple.Node(tg.EdgeSrc[e]), simple.Node(tg.EdgeDst[e])))
	}
	raw[featRings] = float64(cycleRank(g, tg.NumNodes, tg.NumEdges/2))
	return scale(raw)
}

func countAtom(raw *[FeatureDim]float64, number int, aromatic bool, h, charge int) {
	if number == 1 {
		raw[featHydrogens]++
	} else if i, ok := bucketIndex[number]; ok {
		raw[i]++
	} else {
		raw[featOther]++
	}
	if aromatic {
		raw[featAromaticAtoms]++
	}
	raw[featHydrogens] += float64(h)
	raw[featCharge] += math.Abs(float64(charge))
	raw[featAtoms]++
}

func countBond(raw *[FeatureDim]float64, order float64) {
	switch order {
	case 1:
		raw[featSingle]++
	case 2:
		raw[featDouble]++
	case 3:
		raw[featTriple]++
	case 1.5:
		raw[featAromaticBond]++
	}
	raw[featBonds]++
}

// cycleRank is the number of independent rings: E - V + components.
func cycleRank(g graph.Undirected, nodes, edges int) int {
	if nodes == 0 {
		return 0
	}
	return edges - nodes + len(topo.ConnectedComponents(g))
}

func scale(raw [FeatureDim]float64) []float32 {
	out := make([]float32, FeatureDim)
	for i, v := range raw {
		out[i] = float32(math.Log1p(v))
	}
	return out
}
