// Package config loads molprep settings from defaults, an optional YAML
// file and MOLPREP_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/Noofbiz/molprep/convert"
	"github.com/Noofbiz/molprep/datasets"
	"github.com/Noofbiz/molprep/split"
	"github.com/Noofbiz/molprep/tdc"
)

// Config is the complete molprep configuration.
type Config struct {
	// CacheDir holds downloaded task tables.
	CacheDir  string                `yaml:"cache_dir"`
	Dataset   DatasetConfig         `yaml:"dataset"`
	Benchmark BenchmarkConfig       `yaml:"benchmark"`
	Log       LogConfig             `yaml:"log"`
	Tasks     map[string]TaskConfig `yaml:"tasks"`
}

// DatasetConfig describes the dataset the prepare command builds.
type DatasetConfig struct {
	Name      string    `yaml:"name"`
	Method    string    `yaml:"method"`
	Seed      int64     `yaml:"seed"`
	Fractions []float64 `yaml:"fractions"`
	Format    string    `yaml:"format"`
}

// BenchmarkConfig drives the seed loop.
type BenchmarkConfig struct {
	Names        []string `yaml:"names"`
	Seeds        []int64  `yaml:"seeds"`
	SplitType    string   `yaml:"split_type"`
	HiddenSizes  []int    `yaml:"hidden_sizes"`
	Epochs       int      `yaml:"epochs"`
	BatchSize    int      `yaml:"batch_size"`
	LearningRate float64  `yaml:"learning_rate"`
	Optimizer    string   `yaml:"optimizer"`
	ClipNorm     float32  `yaml:"clip_norm"`
	Workers      int      `yaml:"workers"`
	FeatureCache string   `yaml:"feature_cache"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// TaskConfig registers an additional downloadable task.
type TaskConfig struct {
	FileID         string `yaml:"file_id"`
	IDColumn       string `yaml:"id_column"`
	Representation string `yaml:"representation_column"`
	Label          string `yaml:"label_column"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CacheDir: "data",
		Dataset: DatasetConfig{
			Name:      "BBB_Martins",
			Method:    string(split.Scaffold),
			Seed:      42,
			Fractions: append([]float64(nil), split.DefaultFractions[:]...),
			Format:    convert.FormatGonum,
		},
		Benchmark: BenchmarkConfig{
			Names:        []string{"BBB_Martins"},
			Seeds:        []int64{1, 2, 3, 4, 5},
			SplitType:    "default",
			HiddenSizes:  []int{64, 32},
			Epochs:       30,
			BatchSize:    32,
			LearningRate: 0.005,
			Optimizer:    "adam",
			ClipNorm:     5,
		},
		Log: LogConfig{Level: "info"},
	}
}

// FileNames are searched for, from the working directory upwards, when Load
// is given no explicit path.
var FileNames = []string{".molprep.yaml", ".molprep.yml"}

// Load builds the configuration. An explicit path must exist; otherwise the
// first discovered file is used, if any.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("MOLPREP_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("MOLPREP_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MOLPREP_SEED: %w", err)
		}
		cfg.Dataset.Seed = n
	}
	if v := os.Getenv("MOLPREP_FORMAT"); v != "" {
		cfg.Dataset.Format = v
	}
	if v := os.Getenv("MOLPREP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate checks values that would otherwise fail deep inside the pipeline.
func (c *Config) Validate() error {
	if c.Dataset.Name == "" {
		return fmt.Errorf("dataset.name is required")
	}
	if _, err := split.ParseMethod(c.Dataset.Method); err != nil {
		return fmt.Errorf("dataset.method: %w", err)
	}
	frac, err := c.Fractions()
	if err != nil {
		return err
	}
	if err := frac.Validate(); err != nil {
		return fmt.Errorf("dataset.fractions: %w", err)
	}
	if _, err := convert.NewConverter(convert.FormatSMILES, c.Dataset.Format); err != nil {
		return fmt.Errorf("dataset.format: %w", err)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Benchmark.SplitType) {
	case "", "default", string(split.Scaffold), string(split.Random):
	default:
		return fmt.Errorf("benchmark.split_type: unknown value %q", c.Benchmark.SplitType)
	}
	for name, t := range c.Tasks {
		if t.FileID == "" {
			return fmt.Errorf("tasks.%s.file_id is required", name)
		}
	}
	return nil
}

// Fractions returns dataset.fractions as split.Fractions.
func (c *Config) Fractions() (split.Fractions, error) {
	var f split.Fractions
	if len(c.Dataset.Fractions) != len(f) {
		return f, fmt.Errorf("dataset.fractions: want 3 values, got %d", len(c.Dataset.Fractions))
	}
	copy(f[:], c.Dataset.Fractions)
	return f, nil
}

// DatasetOptions returns the registration options for the configured dataset.
func (c *Config) DatasetOptions() (tdc.Options, error) {
	frac, err := c.Fractions()
	if err != nil {
		return tdc.Options{}, err
	}
	return tdc.Options{
		Name:   c.Dataset.Name,
		Method: c.Dataset.Method,
		Seed:   tdc.Seed(c.Dataset.Seed),
		Frac:   frac,
		Format: c.Dataset.Format,
	}, nil
}

// Loader returns a task loader for the configured cache and extra tasks.
func (c *Config) Loader(logger *zap.Logger) *tdc.Loader {
	l := &tdc.Loader{CacheDir: c.CacheDir, Logger: logger}
	if len(c.Tasks) > 0 {
		l.Tasks = make(map[string]tdc.TaskInfo, len(c.Tasks))
		for name, t := range c.Tasks {
			cols := datasets.DefaultColumns
			if t.IDColumn != "" {
				cols.ID = t.IDColumn
			}
			if t.Representation != "" {
				cols.Representation = t.Representation
			}
			if t.Label != "" {
				cols.Label = t.Label
			}
			l.Tasks[name] = tdc.TaskInfo{FileID: t.FileID, Columns: cols}
		}
	}
	return l
}

// NewLogger builds a zap logger at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
