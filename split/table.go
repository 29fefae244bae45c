// Package split partitions a labeled molecule table into train, validation
// and test subsets and computes where each subset lives inside their
// concatenation.
package split

// Row is one labeled entity of a raw table.
type Row struct {
	// ID is the source's entity identifier, if it has one. It is carried
	// along for export and never used for partitioning.
	ID             string
	Representation string
	Label          float64
}

// Table is an ordered sequence of rows in source order.
type Table []Row

// Len returns the number of rows.
func (t Table) Len() int { return len(t) }

// Append returns a new table holding t followed by other. Neither input is modified.
func (t Table) Append(other Table) Table {
	out := make(Table, 0, len(t)+len(other))
	out = append(out, t...)
	return append(out, other...)
}

// Representations returns the representation column in row order.
func (t Table) Representations() []string {
	out := make([]string, len(t))
	for i, r := range t {
		out[i] = r.Representation
	}
	return out
}

// Labels returns the label column in row order.
func (t Table) Labels() []float64 {
	out := make([]float64, len(t))
	for i, r := range t {
		out[i] = r.Label
	}
	return out
}

// Partition is a split of a table. Field order is the concatenation order:
// train, then valid, then test.
type Partition struct {
	Train Table
	Valid Table
	Test  Table
}

// Len returns the total number of rows across the three subsets.
func (p Partition) Len() int { return len(p.Train) + len(p.Valid) + len(p.Test) }

// Concat returns train ++ valid ++ test, each keeping its internal order.
func (p Partition) Concat() Table {
	return p.Train.Append(p.Valid).Append(p.Test)
}
