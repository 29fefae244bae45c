package datasets

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func parseLabel(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	return strconv.ParseFloat(s, 64)
}

// delimiterFor picks the field separator from a file extension.
func delimiterFor(path string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tab", ".tsv":
		return '\t'
	default:
		return ','
	}
}

func newReader(r io.Reader, delim rune) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.LazyQuotes = true
	return reader
}

func newWriter(w io.Writer, delim rune) *csv.Writer {
	writer := csv.NewWriter(w)
	writer.Comma = delim
	return writer
}

// countRows counts the number of data rows in a delimited file (excluding header)
func countRows(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	reader := newReader(file, delimiterFor(path))

	// Skip header
	if _, err := reader.Read(); err != nil {
		return 0, err
	}

	count := 0
	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		count++
	}

	return count, nil
}

// FindTable returns the first file in dir whose base name, without extension,
// equals name case-insensitively and whose extension is a supported table
// format.
func FindTable(dir, name string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, ext := range []string{".tab", ".tsv", ".csv"} {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			base := e.Name()
			if strings.EqualFold(filepath.Ext(base), ext) &&
				strings.EqualFold(strings.TrimSuffix(base, filepath.Ext(base)), name) {
				return filepath.Join(dir, base), nil
			}
		}
	}
	return "", fmt.Errorf("no table named %q found in %s", name, dir)
}

// WriteFileAtomic creates path's directory, streams write into a temp file
// next to path and renames it into place once write succeeds. On any error
// the temp file is removed and path is left untouched.
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		if _, statErr := os.Stat(tmpName); statErr == nil {
			os.Remove(tmpName)
		}
	}()

	if err := write(tmpFile); err != nil {
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpName, path, err)
	}
	return nil
}
