package datasets

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Noofbiz/molprep/split"
)

// Columns names the role columns of a raw table. Matching is
// case-insensitive. ID is optional.
type Columns struct {
	ID             string
	Representation string
	Label          string
}

// DefaultColumns matches the layout of the public ADME tables.
var DefaultColumns = Columns{ID: "Drug_ID", Representation: "Drug", Label: "Y"}

// ReadTable loads a delimited table (tab-separated for .tab/.tsv, comma
// otherwise) with a header row into a split.Table in file order.
func ReadTable(path string, cols Columns) (split.Table, error) {
	n, err := countRows(path)
	if err != nil {
		return nil, fmt.Errorf("failed to count rows in %s: %w", path, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table %s: %w", path, err)
	}
	defer file.Close()

	return readTable(file, delimiterFor(path), cols, n)
}

func readTable(r io.Reader, delim rune, cols Columns, sizeHint int) (split.Table, error) {
	reader := newReader(r, delim)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(strings.ToLower(col))] = i
	}

	repIdx, ok := colIndex[strings.ToLower(cols.Representation)]
	if !ok {
		return nil, fmt.Errorf("required column %q not found in header %v", cols.Representation, header)
	}
	labelIdx, ok := colIndex[strings.ToLower(cols.Label)]
	if !ok {
		return nil, fmt.Errorf("required column %q not found in header %v", cols.Label, header)
	}
	idIdx := -1
	if cols.ID != "" {
		if i, ok := colIndex[strings.ToLower(cols.ID)]; ok {
			idIdx = i
		}
	}

	table := make(split.Table, 0, sizeHint)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read row at line %d: %w", line, err)
		}
		if repIdx >= len(record) || labelIdx >= len(record) {
			return nil, fmt.Errorf("line %d has %d fields, want at least %d", line, len(record), max(repIdx, labelIdx)+1)
		}

		y, err := parseLabel(record[labelIdx])
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s at line %d: %w", cols.Label, line, err)
		}
		row := split.Row{
			Representation: strings.TrimSpace(record[repIdx]),
			Label:          y,
		}
		if idIdx >= 0 && idIdx < len(record) {
			row.ID = record[idIdx]
		}
		table = append(table, row)
	}

	return table, nil
}

// WriteTable writes t as a delimited table with the given column names. The
// delimiter follows the extension of path. The file is written to a temp
// file in the same directory and renamed into place.
func WriteTable(path string, t split.Table, cols Columns) error {
	return WriteFileAtomic(path, func(out io.Writer) error {
		w := newWriter(out, delimiterFor(path))
		if err := w.Write([]string{cols.ID, cols.Representation, cols.Label}); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for _, r := range t {
			rec := []string{r.ID, r.Representation, strconv.FormatFloat(r.Label, 'g', -1, 64)}
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
		w.Flush()
		return w.Error()
	})
}
