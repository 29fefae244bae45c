// Package smiles parses SMILES line notation into an explicit atom/bond
// molecule suitable for graph conversion and scaffold analysis.
//
// The parser covers the OpenSMILES grammar used by public property datasets:
// organic-subset and bracket atoms, aromatic atoms, branches, ring closures
// (including %nn), explicit bond symbols and disconnected fragments. Stereo
// markers are recorded on atoms but not interpreted.
package smiles

import "sort"

// BondKind is the kind of a bond between two atoms.
type BondKind int

const (
	Single BondKind = iota + 1
	Double
	Triple
	Quadruple
	Aromatic
)

// Order returns the numeric bond order. Aromatic bonds count as 1.5.
func (k BondKind) Order() float64 {
	switch k {
	case Double:
		return 2
	case Triple:
		return 3
	case Quadruple:
		return 4
	case Aromatic:
		return 1.5
	default:
		return 1
	}
}

func (k BondKind) String() string {
	switch k {
	case Single:
		return "-"
	case Double:
		return "="
	case Triple:
		return "#"
	case Quadruple:
		return "$"
	case Aromatic:
		return ":"
	default:
		return "?"
	}
}

// Atom is a single atom of a parsed molecule.
type Atom struct {
	// Element is the capitalized element symbol ("C", "Cl"), or "*" for a wildcard.
	Element string
	// Number is the atomic number (0 for wildcards).
	Number   int
	Aromatic bool
	Charge   int
	Isotope  int
	// Chirality holds the raw stereo marker ("@", "@@", "@TH1", ...).
	Chirality string
	// HCount is the explicit hydrogen count for bracket atoms and the
	// implicit count for organic-subset atoms.
	HCount  int
	Bracket bool
	Class   int
}

// Bond connects atoms From and To (indices into Molecule.Atoms), From < To.
type Bond struct {
	From, To int
	Kind     BondKind
}

// Molecule is a parsed molecule. Atoms appear in input order.
type Molecule struct {
	Atoms []Atom
	Bonds []Bond

	adj [][]int // atom -> bond indices
}

// NumAtoms returns the number of heavy (explicitly written) atoms.
func (m *Molecule) NumAtoms() int { return len(m.Atoms) }

// NumBonds returns the number of bonds.
func (m *Molecule) NumBonds() int { return len(m.Bonds) }

// Degree returns the number of bonds incident to atom i.
func (m *Molecule) Degree(i int) int { return len(m.adj[i]) }

// Neighbors returns the atoms bonded to atom i in ascending order.
func (m *Molecule) Neighbors(i int) []int {
	out := make([]int, 0, len(m.adj[i]))
	for _, b := range m.adj[i] {
		bond := m.Bonds[b]
		if bond.From == i {
			out = append(out, bond.To)
		} else {
			out = append(out, bond.From)
		}
	}
	sort.Ints(out)
	return out
}

// BondBetween returns the bond joining atoms a and b, if any.
func (m *Molecule) BondBetween(a, b int) (Bond, bool) {
	if a < 0 || a >= len(m.adj) {
		return Bond{}, false
	}
	for _, bi := range m.adj[a] {
		bond := m.Bonds[bi]
		if (bond.From == a && bond.To == b) || (bond.From == b && bond.To == a) {
			return bond, true
		}
	}
	return Bond{}, false
}

func (m *Molecule) addAtom(a Atom) int {
	m.Atoms = append(m.Atoms, a)
	m.adj = append(m.adj, nil)
	return len(m.Atoms) - 1
}

func (m *Molecule) addBond(a, b int, kind BondKind) {
	if a > b {
		a, b = b, a
	}
	m.Bonds = append(m.Bonds, Bond{From: a, To: b, Kind: kind})
	idx := len(m.Bonds) - 1
	m.adj[a] = append(m.adj[a], idx)
	m.adj[b] = append(m.adj[b], idx)
}

// assignImplicitHydrogens fills HCount for organic-subset atoms from their
// default valences. Aromatic atoms only consider their lowest valence.
func (m *Molecule) assignImplicitHydrogens() {
	for i := range m.Atoms {
		a := &m.Atoms[i]
		if a.Bracket {
			continue
		}
		valences, ok := organicValences[a.Element]
		if !ok {
			continue
		}
		used := 0
		for _, bi := range m.adj[i] {
			switch m.Bonds[bi].Kind {
			case Double:
				used += 2
			case Triple:
				used += 3
			case Quadruple:
				used += 4
			default:
				used++
			}
		}
		if a.Aromatic {
			used++
			valences = valences[:1]
		}
		a.HCount = 0
		for _, v := range valences {
			if v >= used {
				a.HCount = v - used
				break
			}
		}
	}
}
