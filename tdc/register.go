package tdc

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Noofbiz/molprep/convert"
	"github.com/Noofbiz/molprep/datasets"
	"github.com/Noofbiz/molprep/registry"
	"github.com/Noofbiz/molprep/split"
)

// DefaultSeed is the split seed used when Options.Seed is nil.
const DefaultSeed int64 = 42

// Options configures one registered dataset. Zero fields take the defaults:
// scaffold split, seed DefaultSeed, fractions 0.7/0.1/0.2 and gonum graphs.
type Options struct {
	// Name is both the task name and the registry key.
	Name   string
	Method string
	// Seed is nil for DefaultSeed; any other value, zero included, is used as is.
	Seed *int64
	// Frac is ignored when all three entries are zero.
	Frac   split.Fractions
	Format string
}

// Seed returns a pointer to v for Options.Seed.
func Seed(v int64) *int64 { return &v }

func (o Options) withDefaults() Options {
	if o.Method == "" {
		o.Method = string(split.Scaffold)
	}
	seed := DefaultSeed
	if o.Seed != nil {
		seed = *o.Seed
	}
	o.Seed = &seed
	if o.Frac == (split.Fractions{}) {
		o.Frac = split.DefaultFractions
	}
	if o.Format == "" {
		o.Format = convert.FormatGonum
	}
	return o
}

// Build loads, splits, converts and assembles the dataset described by opts.
func Build(ctx context.Context, loader *Loader, opts Options) (*datasets.Dataset, error) {
	opts = opts.withDefaults()
	log := loader.logger().With(zap.String("task", opts.Name))

	task, err := loader.LoadContext(ctx, opts.Name)
	if err != nil {
		return nil, err
	}
	p, err := task.GetSplit(opts.Method, *opts.Seed, opts.Frac)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", opts.Name, err)
	}
	log.Info("split task",
		zap.String("method", opts.Method),
		zap.Int64("seed", *opts.Seed),
		zap.Int("train", len(p.Train)),
		zap.Int("valid", len(p.Valid)),
		zap.Int("test", len(p.Test)))

	conv, err := convert.NewConverter(convert.FormatSMILES, opts.Format)
	if err != nil {
		return nil, err
	}
	ds, err := datasets.Assemble(p, conv)
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", opts.Name, err)
	}
	log.Info("assembled dataset", zap.Int("entries", ds.Len()), zap.String("source", ds.Source))
	return ds, nil
}

// RegisterDataset registers a factory under opts.Name that builds the
// dataset on first Get. Option and format errors surface at registration
// time; loading happens lazily.
func RegisterDataset(reg *registry.Registry, loader *Loader, opts Options) error {
	if reg == nil || loader == nil {
		return fmt.Errorf("register %q: registry and loader are required", opts.Name)
	}
	opts = opts.withDefaults()
	if _, err := split.ParseMethod(opts.Method); err != nil {
		return fmt.Errorf("register %q: %w", opts.Name, err)
	}
	if err := opts.Frac.Validate(); err != nil {
		return fmt.Errorf("register %q: %w", opts.Name, err)
	}
	if _, err := convert.NewConverter(convert.FormatSMILES, opts.Format); err != nil {
		return fmt.Errorf("register %q: %w", opts.Name, err)
	}

	return reg.Register(opts.Name, func() (*datasets.Dataset, error) {
		return Build(context.Background(), loader, opts)
	})
}
