package datasets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Noofbiz/molprep/split"
)

func TestExport(t *testing.T) {
	p := split.Partition{
		Train: split.Table{{ID: "a", Representation: "CCO", Label: 1}, {ID: "b", Representation: "CCN", Label: 0}},
		Test:  split.Table{{ID: "c", Representation: "c1ccccc1", Label: 1}},
	}
	ds, err := Assemble(p, &recordingConverter{})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "export")
	if err := ds.Export(dir, DefaultColumns); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	train, err := ReadTable(filepath.Join(dir, "train.csv"), DefaultColumns)
	if err != nil {
		t.Fatalf("ReadTable(train) failed: %v", err)
	}
	if len(train) != 2 || train[1] != p.Train[1] {
		t.Fatalf("unexpected exported train rows: %+v", train)
	}
	valid, err := ReadTable(filepath.Join(dir, "valid.csv"), DefaultColumns)
	if err != nil {
		t.Fatalf("ReadTable(valid) failed: %v", err)
	}
	if len(valid) != 0 {
		t.Fatalf("expected empty valid export, got %d rows", len(valid))
	}

	ix, err := ReadIndices(filepath.Join(dir, "indices.json"))
	if err != nil {
		t.Fatalf("ReadIndices failed: %v", err)
	}
	if len(ix.Train) != 2 || len(ix.Valid) != 0 || len(ix.Test) != 1 || ix.Test[0] != 2 {
		t.Fatalf("unexpected indices: %+v", ix)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 exported files, got %d", len(entries))
	}
}

func TestReadIndices_RejectsBrokenRanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indices.json")
	body := `{"source":"gonum","total":3,"train_idx":[0],"valid_idx":[2],"test_idx":[1]}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadIndices(path); err == nil {
		t.Fatalf("expected validation error")
	}
}
