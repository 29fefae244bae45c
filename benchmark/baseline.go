package benchmark

import (
	"fmt"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/Noofbiz/molprep/convert"
	"github.com/Noofbiz/molprep/simple"
	"github.com/Noofbiz/molprep/split"
)

// BaselineOptions configures the descriptor MLP baseline.
type BaselineOptions struct {
	Model     simple.Config
	Featurize FeaturizeOptions
	// CacheDir, when set, stores featurized tables as gob files keyed by
	// TableKey.
	CacheDir string
	Logger   *zap.Logger
}

// BaselineTrainer returns a Trainer that featurizes molecules converted by
// conv and fits a simple.Model per seed. The model's seed is the run seed.
func BaselineTrainer(conv convert.Converter, opts BaselineOptions) Trainer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Featurize.Logger == nil {
		opts.Featurize.Logger = log
	}

	return func(train, valid, test split.Table, seed int64) ([]float64, error) {
		// train on train ++ valid; the baseline has no early stopping
		fit, err := featurizeCached(train.Append(valid), conv, opts, log)
		if err != nil {
			return nil, fmt.Errorf("featurize train: %w", err)
		}
		eval, err := featurizeCached(test, conv, opts, log)
		if err != nil {
			return nil, fmt.Errorf("featurize test: %w", err)
		}

		cfg := opts.Model
		cfg.InputDim = FeatureDim
		cfg.OutputDim = 1
		cfg.Seed = seed
		model, err := simple.NewModel(cfg)
		if err != nil {
			return nil, err
		}
		if err := model.TrainWithDataset(fit); err != nil {
			return nil, err
		}
		return model.Predict(eval.Inputs)
	}
}

func featurizeCached(t split.Table, conv convert.Converter, opts BaselineOptions, log *zap.Logger) (*FeatureSet, error) {
	if opts.CacheDir == "" {
		return FeaturizeTable(t, conv, opts.Featurize)
	}
	key := TableKey(t, conv.Source())
	path := filepath.Join(opts.CacheDir, strconv.FormatUint(key, 16)+".gob")
	if fs, err := LoadFeatureCache(path, key); err == nil {
		log.Debug("feature cache hit", zap.String("path", path), zap.Int("rows", fs.Len()))
		return fs, nil
	}
	fs, err := FeaturizeTable(t, conv, opts.Featurize)
	if err != nil {
		return nil, err
	}
	if err := fs.SaveCache(path, key); err != nil {
		log.Warn("failed to write feature cache", zap.String("path", path), zap.Error(err))
	}
	return fs, nil
}
