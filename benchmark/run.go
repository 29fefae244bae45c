package benchmark

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Noofbiz/molprep/split"
)

// Trainer fits a model on train (with valid for model selection) and returns
// one prediction per row of test, in order.
type Trainer func(train, valid, test split.Table, seed int64) ([]float64, error)

// RunOptions configures Run. Zero values use DefaultSeeds, "default" splits
// and a no-op logger.
type RunOptions struct {
	Seeds     []int64
	SplitType string
	Logger    *zap.Logger
}

// Run trains once per seed and benchmark and aggregates the scores with
// EvaluateMany. Prediction slices are checked against the test sets before
// evaluation.
func Run(group Group, names []string, trainer Trainer, opts RunOptions) (map[string][2]float64, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no benchmarks to run")
	}
	seeds := opts.Seeds
	if len(seeds) == 0 {
		seeds = DefaultSeeds
	}
	splitType := opts.SplitType
	if splitType == "" {
		splitType = "default"
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	runs := make([]map[string][]float64, 0, len(seeds))
	for _, seed := range seeds {
		preds := make(map[string][]float64, len(names))
		for _, name := range names {
			b, err := group.Get(name)
			if err != nil {
				return nil, err
			}
			train, valid, err := group.GetTrainValidSplit(name, splitType, seed)
			if err != nil {
				return nil, err
			}

			start := time.Now()
			yPred, err := trainer(train, valid, b.Test, seed)
			if err != nil {
				return nil, fmt.Errorf("train %s seed %d: %w", name, seed, err)
			}
			if len(yPred) != len(b.Test) {
				return nil, fmt.Errorf("%w: %s seed %d: got %d predictions for %d test rows",
					ErrPredictionLength, name, seed, len(yPred), len(b.Test))
			}
			preds[b.Name] = yPred
			log.Info("finished run",
				zap.String("benchmark", b.Name),
				zap.Int64("seed", seed),
				zap.Int("train", len(train)),
				zap.Int("valid", len(valid)),
				zap.Duration("elapsed", time.Since(start)))
		}
		runs = append(runs, preds)
	}

	return group.EvaluateMany(runs)
}
