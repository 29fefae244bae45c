package datasets

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Noofbiz/molprep/split"
)

// writeTable writes a delimited file with the given header and rows to path.
func writeTable(t *testing.T, path, header string, rows []string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create table %s: %v", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(header + "\n"); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	for _, r := range rows {
		if _, err := f.WriteString(r + "\n"); err != nil {
			t.Fatalf("failed to write row: %v", err)
		}
	}
}

func TestReadTable_TabSeparated(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "bbb_martins.tab")
	writeTable(t, path, "Drug_ID\tDrug\tY", []string{
		"Propanolol\tCC(C)NCC(O)COc1cccc2ccccc12\t1",
		"Terbutylchlorambucil\tCC(C)(C)OC(=O)CCCc1ccc(N(CCCl)CCCl)cc1\t1",
		"40730\tc1ccccc1\t0",
	})

	table, err := ReadTable(path, DefaultColumns)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if len(table) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(table))
	}
	if table[0].ID != "Propanolol" || table[0].Label != 1 {
		t.Fatalf("unexpected first row: %+v", table[0])
	}
	if table[2].Representation != "c1ccccc1" || table[2].Label != 0 {
		t.Fatalf("unexpected last row: %+v", table[2])
	}
}

func TestReadTable_CommaSeparatedCaseInsensitive(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "custom.csv")
	writeTable(t, path, "smiles,LABEL", []string{"CCO,0.5", "CCN,-1.25"})

	table, err := ReadTable(path, Columns{Representation: "SMILES", Label: "label"})
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if len(table) != 2 || table[1].Label != -1.25 || table[1].ID != "" {
		t.Fatalf("unexpected table: %+v", table)
	}
}

func TestReadTable_Errors(t *testing.T) {
	tmp := t.TempDir()

	missing := filepath.Join(tmp, "missing.csv")
	writeTable(t, missing, "Drug,Other", []string{"CCO,1"})
	if _, err := ReadTable(missing, DefaultColumns); err == nil || !strings.Contains(err.Error(), `"Y"`) {
		t.Fatalf("expected missing column error, got %v", err)
	}

	badLabel := filepath.Join(tmp, "bad.csv")
	writeTable(t, badLabel, "Drug,Y", []string{"CCO,1", "CCN,yes"})
	_, err := ReadTable(badLabel, DefaultColumns)
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("expected parse error naming line 3, got %v", err)
	}

	if _, err := ReadTable(filepath.Join(tmp, "nope.csv"), DefaultColumns); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestWriteTable_RoundTripsThroughReadTable(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "out", "train.csv")
	in := split.Table{
		{ID: "a", Representation: "CCO", Label: 1},
		{ID: "b", Representation: "C(=O)O", Label: 0.25},
	}
	if err := WriteTable(path, in, DefaultColumns); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	out, err := ReadTable(path, DefaultColumns)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("row count %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("row %d: got %+v want %+v", i, out[i], in[i])
		}
	}

	// no temp files left behind
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("expected only the written table, found %d entries", len(entries))
	}
}

func TestFindTable(t *testing.T) {
	tmp := t.TempDir()
	writeTable(t, filepath.Join(tmp, "bbb_martins.tab"), "Drug\tY", nil)
	writeTable(t, filepath.Join(tmp, "other.csv"), "Drug,Y", nil)

	path, err := FindTable(tmp, "BBB_Martins")
	if err != nil {
		t.Fatalf("FindTable failed: %v", err)
	}
	if filepath.Base(path) != "bbb_martins.tab" {
		t.Fatalf("unexpected match %s", path)
	}
	if _, err := FindTable(tmp, "caco2_wang"); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestWriteFileAtomic_FailedWriteKeepsTarget(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", "cache.bin")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "first")
		return err
	})
	if err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	boom := errors.New("disk full")
	err = WriteFileAtomic(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected write error to be returned, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "first" {
		t.Fatalf("target overwritten by failed write: %q", data)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("expected temp file to be removed, found %d entries", len(entries))
	}
}
