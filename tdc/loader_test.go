package tdc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Noofbiz/molprep/convert"
	"github.com/Noofbiz/molprep/registry"
	"github.com/Noofbiz/molprep/split"
)

// fixtureTable builds a small tab-separated table with n distinct ring
// frameworks, each row labelled by parity.
func fixtureTable(n int) string {
	var b strings.Builder
	b.WriteString("Drug_ID\tDrug\tY\n")
	for i := range n {
		b.WriteString("mol")
		b.WriteString(strings.Repeat("x", i%3))
		b.WriteString("\tC1CC1")
		b.WriteString(strings.Repeat("C", i))
		b.WriteString("C2CC2\t")
		if i%2 == 0 {
			b.WriteString("1\n")
		} else {
			b.WriteString("0\n")
		}
	}
	return b.String()
}

func newServer(t *testing.T, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/4259566" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoad_DownloadsThenUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, fixtureTable(20), &hits)
	dir := t.TempDir()
	loader := &Loader{CacheDir: dir, BaseURL: srv.URL, Client: srv.Client(), Logger: zaptest.NewLogger(t)}

	task, err := loader.Load("BBB_Martins")
	require.NoError(t, err)
	require.Len(t, task.Table, 20)
	require.Equal(t, filepath.Join(dir, "bbb_martins.tab"), task.Path)
	require.Equal(t, int32(1), hits.Load())

	again, err := loader.Load("bbb_martins")
	require.NoError(t, err)
	require.Equal(t, task.Table, again.Table)
	require.Equal(t, int32(1), hits.Load(), "second load must come from the cache")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestLoad_CachedCSVWithoutNetwork(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "my_task.csv"), []byte("Drug,Y\nCCO,0.5\n"), 0644))

	loader := &Loader{CacheDir: dir}
	task, err := loader.Load("MY_TASK")
	require.NoError(t, err)
	require.Equal(t, split.Table{{Representation: "CCO", Label: 0.5}}, task.Table)
}

func TestLoad_UnknownTask(t *testing.T) {
	loader := &Loader{CacheDir: t.TempDir()}
	_, err := loader.Load("Caco2_Wang")
	require.ErrorIs(t, err, ErrUnknownTask)
}

func TestLoad_HTTPErrorLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	dir := t.TempDir()
	loader := &Loader{CacheDir: dir, BaseURL: srv.URL}
	_, err := loader.Load("BBB_Martins")
	require.Error(t, err)
	require.Contains(t, err.Error(), "410")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestLoad_ExtraTasksAndCancelledContext(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, fixtureTable(4), &hits)
	loader := &Loader{
		CacheDir: t.TempDir(),
		BaseURL:  srv.URL,
		Tasks:    map[string]TaskInfo{"Custom": {FileID: "4259566"}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := loader.LoadContext(ctx, "custom")
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)

	task, err := loader.Load("custom")
	require.NoError(t, err)
	require.Len(t, task.Table, 4)
}

func TestTaskGetSplit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bbb_martins.tab"), []byte(fixtureTable(100)), 0644))
	task, err := (&Loader{CacheDir: dir}).Load("BBB_Martins")
	require.NoError(t, err)

	p, err := task.GetSplit("scaffold", 42, split.DefaultFractions)
	require.NoError(t, err)
	require.Equal(t, 70, len(p.Train))
	require.Equal(t, 10, len(p.Valid))
	require.Equal(t, 20, len(p.Test))

	_, err = task.GetSplit("cold_drug", 42, split.DefaultFractions)
	require.ErrorIs(t, err, split.ErrUnsupportedMethod)
}

func TestRegisterDataset(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, fixtureTable(100), &hits)
	loader := &Loader{CacheDir: t.TempDir(), BaseURL: srv.URL, Logger: zaptest.NewLogger(t)}
	reg := registry.New()

	require.NoError(t, RegisterDataset(reg, loader, Options{Name: "BBB_Martins"}))
	require.Equal(t, int32(0), hits.Load(), "registration is lazy")

	ds, err := reg.Get("BBB_Martins")
	require.NoError(t, err)
	require.Equal(t, convert.FormatGonum, ds.Source)
	require.Equal(t, 100, ds.Len())
	require.Equal(t, split.IndicesForSizes(70, 10, 20), ds.Indices())
	_, ok := ds.Entries[0].Graph.(*convert.MolGraph)
	require.True(t, ok)

	err = RegisterDataset(reg, loader, Options{Name: "BBB_Martins", Format: convert.FormatTensor})
	require.ErrorIs(t, err, registry.ErrDuplicateRegistration)

	same, err := reg.Get("BBB_Martins")
	require.NoError(t, err)
	require.Same(t, ds, same)
}

func TestRegisterDataset_RejectsBadOptions(t *testing.T) {
	loader := &Loader{CacheDir: t.TempDir()}
	reg := registry.New()

	require.ErrorIs(t, RegisterDataset(reg, loader, Options{Name: "a", Format: "dgl"}), convert.ErrUnsupportedFormat)
	require.ErrorIs(t, RegisterDataset(reg, loader, Options{Name: "b", Method: "cold_drug"}), split.ErrUnsupportedMethod)
	require.ErrorIs(t, RegisterDataset(reg, loader, Options{Name: "c", Frac: split.Fractions{0.5, 0.5, 0.5}}), split.ErrConfiguration)
	require.Empty(t, reg.Keys())
}

func TestBuild_TensorFormat(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bbb_martins.tab"), []byte(fixtureTable(10)), 0644))
	ds, err := Build(context.Background(), &Loader{CacheDir: dir}, Options{Name: "BBB_Martins", Format: "tensor", Method: "random", Seed: Seed(3)})
	require.NoError(t, err)
	require.Equal(t, convert.FormatTensor, ds.Source)
	_, ok := ds.Entries[0].Graph.(*convert.TensorGraph)
	require.True(t, ok)
}

func TestBuild_SeedZeroIsNotDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bbb_martins.tab"), []byte(fixtureTable(100)), 0644))
	loader := &Loader{CacheDir: dir}
	build := func(seed *int64) []string {
		ds, err := Build(context.Background(), loader, Options{Name: "BBB_Martins", Seed: seed})
		require.NoError(t, err)
		reps := make([]string, ds.Len())
		for i, e := range ds.Entries {
			reps[i] = e.Representation
		}
		return reps
	}

	zero := build(Seed(0))
	fortyTwo := build(Seed(DefaultSeed))
	require.NotEqual(t, fortyTwo, zero)
	require.Equal(t, fortyTwo, build(nil))
	require.Equal(t, zero, build(Seed(0)))
}
