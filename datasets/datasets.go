package datasets

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/Noofbiz/molprep/convert"
	"github.com/Noofbiz/molprep/split"
)

// This file holds the assembled dataset handed to graph model training.
//
// Layout and intended usage:
//
// Dataset
//   - Entries are in concatenation order: train rows, then valid, then test.
//   - TrainIdx/ValidIdx/TestIdx are positions into Entries.
//   - Each Entry carries the converted graph and its label wrapped in a
//     one-element float32 gomlx tensor.
//   - Source names the graph format the converter produced.
//
// A Dataset is built once by Assemble and treated as read-only afterwards;
// accessors hand out copies of the index slices.

// Entry pairs one converted graph with its label.
type Entry struct {
	Graph any
	// Label is a float32 tensor of shape [1].
	Label *tensors.Tensor
	// Y is the raw label value.
	Y float64
	// Representation is the string the graph was converted from.
	Representation string
	ID             string
}

// Dataset is the joined, indexed output of the pipeline.
type Dataset struct {
	Entries []Entry

	TrainIdx []int
	ValidIdx []int
	TestIdx  []int

	// Source is the provenance tag of the graph format.
	Source string
}

// Assemble concatenates p, converts every row in position order, wraps the
// labels and attaches the subset index ranges. On any conversion failure it
// returns no dataset.
func Assemble(p split.Partition, conv convert.Converter) (*Dataset, error) {
	if conv == nil {
		return nil, fmt.Errorf("converter is nil")
	}

	rows := p.Concat()
	entries := make([]Entry, len(rows))
	for i, r := range rows {
		g, err := conv.Convert(r.Representation)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		entries[i] = Entry{
			Graph:          g,
			Label:          LabelTensor(r.Label),
			Y:              r.Label,
			Representation: r.Representation,
			ID:             r.ID,
		}
	}

	ix := split.AssignIndices(p)
	ds := &Dataset{
		Entries:  entries,
		TrainIdx: ix.Train,
		ValidIdx: ix.Valid,
		TestIdx:  ix.Test,
		Source:   conv.Source(),
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Len returns the number of entries.
func (d *Dataset) Len() int { return len(d.Entries) }

// Indices returns copies of the three index ranges.
func (d *Dataset) Indices() split.Indices {
	return split.Indices{
		Train: append([]int(nil), d.TrainIdx...),
		Valid: append([]int(nil), d.ValidIdx...),
		Test:  append([]int(nil), d.TestIdx...),
	}
}

// Validate checks the index ranges partition the entries in order.
func (d *Dataset) Validate() error {
	ix := split.Indices{Train: d.TrainIdx, Valid: d.ValidIdx, Test: d.TestIdx}
	if err := ix.Validate(len(d.Entries)); err != nil {
		return fmt.Errorf("dataset %q: %w", d.Source, err)
	}
	return nil
}

// Example returns the entry at idx.
func (d *Dataset) Example(idx int) (Entry, error) {
	if idx < 0 || idx >= len(d.Entries) {
		return Entry{}, fmt.Errorf("index %d out of range [0, %d)", idx, len(d.Entries))
	}
	return d.Entries[idx], nil
}

// Subset returns the entries at the given positions, in that order.
func (d *Dataset) Subset(indices []int) ([]Entry, error) {
	out := make([]Entry, len(indices))
	for i, idx := range indices {
		e, err := d.Example(idx)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// Labels returns the raw labels at the given positions.
func (d *Dataset) Labels(indices []int) ([]float64, error) {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		e, err := d.Example(idx)
		if err != nil {
			return nil, err
		}
		out[i] = e.Y
	}
	return out, nil
}

// LabelTensor gathers the labels at the given positions into a [len, 1]
// gomlx tensor.
func (d *Dataset) LabelTensor(indices []int) (*tensors.Tensor, error) {
	ys, err := d.Labels(indices)
	if err != nil {
		return nil, err
	}
	labels := make([][]float32, len(ys))
	for i, y := range ys {
		labels[i] = []float32{float32(y)}
	}
	batch, err := MakeLabelBatchFlat(labels)
	if err != nil {
		return nil, err
	}
	return batch.ToGomlxTensor(), nil
}
