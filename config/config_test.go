package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/Noofbiz/molprep/split"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"MOLPREP_CACHE_DIR", "MOLPREP_SEED", "MOLPREP_FORMAT", "MOLPREP_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	opts, err := cfg.DatasetOptions()
	require.NoError(t, err)
	require.Equal(t, "BBB_Martins", opts.Name)
	require.Equal(t, int64(42), *opts.Seed)
	require.Equal(t, split.DefaultFractions, opts.Frac)
	require.Equal(t, "gonum", opts.Format)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "molprep.yaml")
	writeFile(t, path, `
cache_dir: /tmp/tables
dataset:
  name: Caco2_Wang
  method: random
  seed: 7
  fractions: [0.8, 0.1, 0.1]
  format: tensor
log:
  level: debug
tasks:
  Caco2_Wang:
    file_id: "4259569"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/tables", cfg.CacheDir)
	require.Equal(t, "random", cfg.Dataset.Method)
	require.Equal(t, int64(7), cfg.Dataset.Seed)
	require.Equal(t, "tensor", cfg.Dataset.Format)
	// unset sections keep their defaults
	require.Equal(t, []int64{1, 2, 3, 4, 5}, cfg.Benchmark.Seeds)

	t.Setenv("MOLPREP_SEED", "99")
	t.Setenv("MOLPREP_FORMAT", "gonum")
	t.Setenv("MOLPREP_CACHE_DIR", "/var/cache/molprep")
	cfg, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(99), cfg.Dataset.Seed)
	require.Equal(t, "gonum", cfg.Dataset.Format)
	require.Equal(t, "/var/cache/molprep", cfg.CacheDir)

	loader := cfg.Loader(nil)
	require.Equal(t, "/var/cache/molprep", loader.CacheDir)
	require.Equal(t, "4259569", loader.Tasks["Caco2_Wang"].FileID)
	require.Equal(t, "Drug", loader.Tasks["Caco2_Wang"].Columns.Representation)
}

func TestLoad_SeedZeroOverride(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("MOLPREP_SEED", "0")

	cfg, err := Load("")
	require.NoError(t, err)
	opts, err := cfg.DatasetOptions()
	require.NoError(t, err)
	require.NotNil(t, opts.Seed)
	require.Equal(t, int64(0), *opts.Seed)
}

func TestLoad_DiscoversFileWalkingUp(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".molprep.yaml"), "dataset:\n  seed: 5\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	t.Chdir(nested)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, int64(5), cfg.Dataset.Seed)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "dataset: [unclosed\n")
	_, err = Load(bad)
	require.Error(t, err)

	fracs := filepath.Join(dir, "fracs.yaml")
	writeFile(t, fracs, "dataset:\n  fractions: [0.5, 0.5, 0.5]\n")
	_, err = Load(fracs)
	require.ErrorIs(t, err, split.ErrConfiguration)

	short := filepath.Join(dir, "short.yaml")
	writeFile(t, short, "dataset:\n  fractions: [0.5, 0.5]\n")
	_, err = Load(short)
	require.Error(t, err)

	method := filepath.Join(dir, "method.yaml")
	writeFile(t, method, "dataset:\n  method: cold_drug\n")
	_, err = Load(method)
	require.ErrorIs(t, err, split.ErrUnsupportedMethod)

	t.Setenv("MOLPREP_SEED", "forty-two")
	_, err = Load(method)
	require.Error(t, err)
}

func TestValidate_LogLevelAndFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = "loud"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Dataset.Format = "dgl"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Tasks = map[string]TaskConfig{"x": {}}
	require.Error(t, cfg.Validate())
}

func TestNewLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = "warn"
	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	require.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	cfg.Log.Development = true
	_, err = cfg.NewLogger()
	require.NoError(t, err)
}
