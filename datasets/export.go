package datasets

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Noofbiz/molprep/split"
)

// Rows returns the source rows of the entries at the given positions.
func (d *Dataset) Rows(indices []int) (split.Table, error) {
	entries, err := d.Subset(indices)
	if err != nil {
		return nil, err
	}
	out := make(split.Table, len(entries))
	for i, e := range entries {
		out[i] = split.Row{ID: e.ID, Representation: e.Representation, Label: e.Y}
	}
	return out, nil
}

// indexFile is the JSON layout written by Export.
type indexFile struct {
	Source   string `json:"source"`
	Total    int    `json:"total"`
	TrainIdx []int  `json:"train_idx"`
	ValidIdx []int  `json:"valid_idx"`
	TestIdx  []int  `json:"test_idx"`
}

// Export writes train.csv, valid.csv, test.csv and indices.json into dir.
func (d *Dataset) Export(dir string, cols Columns) error {
	subsets := []struct {
		name string
		idx  []int
	}{
		{"train", d.TrainIdx},
		{"valid", d.ValidIdx},
		{"test", d.TestIdx},
	}
	for _, s := range subsets {
		rows, err := d.Rows(s.idx)
		if err != nil {
			return fmt.Errorf("export %s: %w", s.name, err)
		}
		if err := WriteTable(filepath.Join(dir, s.name+".csv"), rows, cols); err != nil {
			return fmt.Errorf("export %s: %w", s.name, err)
		}
	}

	data, err := json.MarshalIndent(indexFile{
		Source:   d.Source,
		Total:    d.Len(),
		TrainIdx: nonNil(d.TrainIdx),
		ValidIdx: nonNil(d.ValidIdx),
		TestIdx:  nonNil(d.TestIdx),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode indices: %w", err)
	}
	return WriteFileAtomic(filepath.Join(dir, "indices.json"), func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// ReadIndices loads the index ranges written by Export.
func ReadIndices(path string) (split.Indices, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return split.Indices{}, err
	}
	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return split.Indices{}, fmt.Errorf("decode %s: %w", path, err)
	}
	ix := split.Indices{Train: f.TrainIdx, Valid: f.ValidIdx, Test: f.TestIdx}
	if err := ix.Validate(f.Total); err != nil {
		return split.Indices{}, fmt.Errorf("%s: %w", path, err)
	}
	return ix, nil
}

func nonNil(idx []int) []int {
	if idx == nil {
		return []int{}
	}
	return idx
}
