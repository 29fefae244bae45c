// Command prepare builds a split, graph-converted dataset for one task,
// registers it, prints a summary and optionally exports the subsets.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/Noofbiz/molprep/config"
	"github.com/Noofbiz/molprep/datasets"
	"github.com/Noofbiz/molprep/registry"
	"github.com/Noofbiz/molprep/tdc"
)

func startProfiling(profileType string) func() {
	switch profileType {
	case "cpu":
		return profile.Start(profile.CPUProfile).Stop
	case "mem":
		return profile.Start(profile.MemProfile).Stop
	case "block":
		return profile.Start(profile.BlockProfile).Stop
	case "trace":
		return profile.Start(profile.TraceProfile).Stop
	default:
		errExit("unexpected -profile value: " + profileType)
		return nil
	}
}

func errExit(message string) {
	os.Exit(errCode(message))
}

// errCode prints message and returns the exit status, letting deferred
// profile and logger flushes run before the process exits.
func errCode(message string) int {
	fmt.Fprintln(os.Stderr, message)
	return 1
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("prepare", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file (default: discover .molprep.yaml)")
	name := fs.String("name", "", "task name and registry key (overrides config)")
	method := fs.String("method", "", "split method: scaffold or random (overrides config)")
	seed := fs.Int64("seed", 0, "split seed (overrides config)")
	format := fs.String("format", "", "graph format: gonum or tensor (overrides config)")
	cacheDir := fs.String("cache-dir", "", "directory holding downloaded task tables (overrides config)")
	outDir := fs.String("out", "", "if set, export train/valid/test CSVs and indices.json to this directory")
	profileType := fs.String("profile", "", "options are (cpu,mem,block,trace)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *profileType != "" {
		defer startProfiling(*profileType)()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return errCode(err.Error())
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			cfg.Dataset.Name = *name
		case "method":
			cfg.Dataset.Method = *method
		case "seed":
			cfg.Dataset.Seed = *seed
		case "format":
			cfg.Dataset.Format = *format
		case "cache-dir":
			cfg.CacheDir = *cacheDir
		}
	})
	if err := cfg.Validate(); err != nil {
		return errCode(err.Error())
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return errCode(err.Error())
	}
	defer logger.Sync()

	opts, err := cfg.DatasetOptions()
	if err != nil {
		return errCode(err.Error())
	}

	reg := registry.New()
	if err := tdc.RegisterDataset(reg, cfg.Loader(logger), opts); err != nil {
		logger.Error("failed to register dataset", zap.Error(err))
		return 1
	}

	start := time.Now()
	ds, err := reg.Get(opts.Name)
	if err != nil {
		logger.Error("failed to build dataset", zap.String("name", opts.Name), zap.Error(err))
		return 1
	}
	logger.Info("dataset ready", zap.String("name", opts.Name), zap.Duration("elapsed", time.Since(start)))

	fmt.Printf("dataset:  %s\n", opts.Name)
	fmt.Printf("split:    %s (seed %d, fractions %v)\n", opts.Method, *opts.Seed, opts.Frac)
	fmt.Printf("format:   %s\n", ds.Source)
	fmt.Printf("entries:  %d\n", ds.Len())
	fmt.Printf("train:    %d %s\n", len(ds.TrainIdx), span(ds.TrainIdx))
	fmt.Printf("valid:    %d %s\n", len(ds.ValidIdx), span(ds.ValidIdx))
	fmt.Printf("test:     %d %s\n", len(ds.TestIdx), span(ds.TestIdx))

	if *outDir != "" {
		if err := ds.Export(*outDir, datasets.DefaultColumns); err != nil {
			logger.Error("failed to export dataset", zap.String("dir", *outDir), zap.Error(err))
			return 1
		}
		logger.Info("exported dataset", zap.String("dir", *outDir))
	}
	return 0
}

func span(idx []int) string {
	if len(idx) == 0 {
		return "[]"
	}
	return fmt.Sprintf("[%d..%d]", idx[0], idx[len(idx)-1])
}
