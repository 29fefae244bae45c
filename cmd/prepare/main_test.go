package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Noofbiz/molprep/datasets"
)

func writeCache(t *testing.T, dir string, rows []string) {
	t.Helper()
	body := "Drug_ID\tDrug\tY\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bbb_martins.tab"), []byte(body), 0644))
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"MOLPREP_CACHE_DIR", "MOLPREP_SEED", "MOLPREP_FORMAT", "MOLPREP_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestRun_ExportsSplit(t *testing.T) {
	clearEnv(t)
	cache := t.TempDir()
	rows := make([]string, 20)
	for i := range rows {
		rows[i] = fmt.Sprintf("m%d\tC1CC1%sC2CC2\t%d", i, strings.Repeat("C", i), i%2)
	}
	writeCache(t, cache, rows)
	out := filepath.Join(t.TempDir(), "export")

	code := run([]string{"-cache-dir", cache, "-seed", "0", "-out", out})
	require.Equal(t, 0, code)

	ix, err := datasets.ReadIndices(filepath.Join(out, "indices.json"))
	require.NoError(t, err)
	require.Equal(t, 20, ix.Total())
	require.FileExists(t, filepath.Join(out, "train.csv"))
}

func TestRun_FailureReturnsExitCode(t *testing.T) {
	clearEnv(t)
	cache := t.TempDir()
	writeCache(t, cache, []string{"m0\tCCO\tyes"})

	require.Equal(t, 1, run([]string{"-cache-dir", cache}))
	require.Equal(t, 1, run([]string{"-cache-dir", cache, "-format", "dgl"}))
	require.Equal(t, 2, run([]string{"-no-such-flag"}))
}
