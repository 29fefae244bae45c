// Command benchmark trains the descriptor baseline once per seed on each
// benchmark of the group and prints mean and standard deviation of the
// scores.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/Noofbiz/molprep/benchmark"
	"github.com/Noofbiz/molprep/config"
	"github.com/Noofbiz/molprep/convert"
	"github.com/Noofbiz/molprep/simple"
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

func parseSeeds(s string) ([]int64, error) {
	var seeds []int64
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q: %w", tok, err)
		}
		seeds = append(seeds, n)
	}
	return seeds, nil
}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a YAML config file (default: discover .molprep.yaml)")
	names := flag.String("benchmarks", "", "comma-separated benchmark names (overrides config)")
	seedsFlag := flag.String("seeds", "", "comma-separated seeds (overrides config)")
	splitType := flag.String("split", "", "train/valid split: default, scaffold or random (overrides config)")
	format := flag.String("format", "", "graph format used for featurization: gonum or tensor (overrides config)")
	epochs := flag.Int("epochs", 0, "training epochs (overrides config)")
	profileType := flag.String("profile", "", "options are (cpu,mem,block,trace)")
	flag.Parse()

	if *profileType != "" {
		defer startProfiling(*profileType)()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return errCode(err.Error())
	}
	bc := &cfg.Benchmark
	if *names != "" {
		bc.Names = strings.Split(*names, ",")
	}
	if *seedsFlag != "" {
		if bc.Seeds, err = parseSeeds(*seedsFlag); err != nil {
			return errCode(err.Error())
		}
	}
	if *splitType != "" {
		bc.SplitType = *splitType
	}
	if *format != "" {
		cfg.Dataset.Format = *format
	}
	if *epochs > 0 {
		bc.Epochs = *epochs
	}
	if err := cfg.Validate(); err != nil {
		return errCode(err.Error())
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return errCode(err.Error())
	}
	defer logger.Sync()

	conv, err := convert.NewConverter(convert.FormatSMILES, cfg.Dataset.Format)
	if err != nil {
		return errCode(err.Error())
	}
	trainer := benchmark.BaselineTrainer(conv, benchmark.BaselineOptions{
		Model: simple.Config{
			HiddenSizes:  bc.HiddenSizes,
			Epochs:       bc.Epochs,
			BatchSize:    bc.BatchSize,
			LearningRate: bc.LearningRate,
			Optimizer:    bc.Optimizer,
			ClipNorm:     bc.ClipNorm,
		},
		Featurize: benchmark.FeaturizeOptions{Workers: bc.Workers},
		CacheDir:  bc.FeatureCache,
		Logger:    logger,
	})

	group := benchmark.NewLocalGroup(cfg.Loader(logger), logger)
	results, err := benchmark.Run(group, bc.Names, trainer, benchmark.RunOptions{
		Seeds:     bc.Seeds,
		SplitType: bc.SplitType,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("benchmark failed", zap.Error(err))
		return 1
	}

	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		metric, _ := benchmark.MetricFor(k)
		r := results[k]
		fmt.Printf("%-24s %-8s %.3f ± %.3f\n", k, metric, r[0], r[1])
	}
	return 0
}
