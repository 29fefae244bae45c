// Package benchmark runs the multi-seed evaluation loop over a group of
// property-prediction benchmarks and aggregates their scores.
package benchmark

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Noofbiz/molprep/split"
	"github.com/Noofbiz/molprep/tdc"
)

// Benchmark is one task with a fixed held-out test set.
type Benchmark struct {
	Name     string
	TrainVal split.Table
	Test     split.Table
}

// Group hands out benchmark splits and scores runs against the fixed test
// sets.
type Group interface {
	Get(name string) (*Benchmark, error)
	// GetTrainValidSplit re-splits the benchmark's train_val table for one
	// seed. splitType is "default", "scaffold" or "random".
	GetTrainValidSplit(name, splitType string, seed int64) (train, valid split.Table, err error)
	// EvaluateMany scores one prediction map per run and returns, per
	// benchmark, the mean and standard deviation across runs.
	EvaluateMany(preds []map[string][]float64) (map[string][2]float64, error)
}

// Seeds and fractions used to carve out the fixed test sets and the per-seed
// validation sets.
const TestSplitSeed = 1

var (
	TestFractions       = split.Fractions{0.8, 0, 0.2}
	TrainValidFractions = split.Fractions{0.875, 0.125, 0}
)

// DefaultSeeds is the seed list of the standard five-run protocol.
var DefaultSeeds = []int64{1, 2, 3, 4, 5}

// ADMETBenchmarks names the tasks in the ADMET group.
var ADMETBenchmarks = []string{"BBB_Martins"}

// LocalGroup builds benchmarks from task tables obtained through a Loader.
// Benchmarks are loaded on first use and kept.
type LocalGroup struct {
	Loader *tdc.Loader
	Logger *zap.Logger

	mu         sync.Mutex
	benchmarks map[string]*Benchmark
}

// NewLocalGroup returns a group reading tasks through loader.
func NewLocalGroup(loader *tdc.Loader, logger *zap.Logger) *LocalGroup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalGroup{Loader: loader, Logger: logger, benchmarks: make(map[string]*Benchmark)}
}

func normalize(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Get loads the named benchmark. Its test set is a scaffold split of the
// task table at TestSplitSeed with TestFractions; everything else is
// train_val.
func (g *LocalGroup) Get(name string) (*Benchmark, error) {
	key := normalize(name)
	g.mu.Lock()
	defer g.mu.Unlock()
	if b, ok := g.benchmarks[key]; ok {
		return b, nil
	}

	task, err := g.Loader.LoadContext(context.Background(), name)
	if err != nil {
		return nil, err
	}
	p, err := task.GetSplit(string(split.Scaffold), TestSplitSeed, TestFractions)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", name, err)
	}
	b := &Benchmark{
		Name:     name,
		TrainVal: p.Train.Append(p.Valid),
		Test:     p.Test,
	}
	g.benchmarks[key] = b
	g.Logger.Info("loaded benchmark",
		zap.String("benchmark", name),
		zap.Int("train_val", len(b.TrainVal)),
		zap.Int("test", len(b.Test)))
	return b, nil
}

// GetTrainValidSplit splits train_val into train and valid with
// TrainValidFractions. Framework groups that fit neither subset are added to
// valid so no row is dropped.
func (g *LocalGroup) GetTrainValidSplit(name, splitType string, seed int64) (split.Table, split.Table, error) {
	b, err := g.Get(name)
	if err != nil {
		return nil, nil, err
	}
	method := normalize(splitType)
	if method == "default" || method == "" {
		method = string(split.Scaffold)
	}
	p, err := split.Split(b.TrainVal, method, seed, TrainValidFractions)
	if err != nil {
		return nil, nil, fmt.Errorf("benchmark %s: %w", name, err)
	}
	return p.Train, p.Valid.Append(p.Test), nil
}

// EvaluateMany scores each run. Every map must name the same benchmarks and
// each prediction slice must align row for row with that benchmark's test
// set.
func (g *LocalGroup) EvaluateMany(preds []map[string][]float64) (map[string][2]float64, error) {
	if len(preds) == 0 {
		return nil, fmt.Errorf("no runs to evaluate")
	}

	names := make([]string, 0, len(preds[0]))
	for name := range preds[0] {
		names = append(names, name)
	}
	sort.Strings(names)

	scores := make(map[string][]float64, len(names))
	for run, m := range preds {
		if len(m) != len(names) {
			return nil, fmt.Errorf("run %d has %d benchmarks, want %d", run, len(m), len(names))
		}
		for _, name := range names {
			yPred, ok := m[name]
			if !ok {
				return nil, fmt.Errorf("run %d is missing benchmark %s", run, name)
			}
			s, err := g.Evaluate(name, yPred)
			if err != nil {
				return nil, fmt.Errorf("run %d: %w", run, err)
			}
			scores[name] = append(scores[name], s)
		}
	}

	out := make(map[string][2]float64, len(names))
	for _, name := range names {
		out[name] = summarize(scores[name])
	}
	return out, nil
}

// Evaluate scores one prediction slice against a benchmark's test set with
// the benchmark's metric.
func (g *LocalGroup) Evaluate(name string, yPred []float64) (float64, error) {
	b, err := g.Get(name)
	if err != nil {
		return 0, err
	}
	_, metric := MetricFor(name)
	s, err := metric(b.Test.Labels(), yPred)
	if err != nil {
		return 0, fmt.Errorf("benchmark %s: %w", name, err)
	}
	return s, nil
}
