package benchmark

import (
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/Noofbiz/molprep/convert"
	"github.com/Noofbiz/molprep/datasets"
	"github.com/Noofbiz/molprep/split"
)

// FeatureSet holds descriptor vectors and single-target labels for a table.
// It satisfies simple.Dataset.
type FeatureSet struct {
	Inputs [][]float32
	Labels [][]float32
}

func (f *FeatureSet) Len() int { return len(f.Inputs) }

// Batch returns the inputs and labels at the given positions.
func (f *FeatureSet) Batch(indices []int) ([][]float32, [][]float32, error) {
	in := make([][]float32, len(indices))
	la := make([][]float32, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(f.Inputs) {
			return nil, nil, fmt.Errorf("index %d out of range [0, %d)", idx, len(f.Inputs))
		}
		in[i] = f.Inputs[idx]
		la[i] = f.Labels[idx]
	}
	return in, la, nil
}

// FeaturizeOptions controls the featurization worker pool.
type FeaturizeOptions struct {
	// Workers defaults to runtime.NumCPU().
	Workers int
	// ProgressInterval between progress logs. Zero disables them.
	ProgressInterval time.Duration
	Logger           *zap.Logger
}

// FeaturizeTable converts and featurizes every row of t with a pool of
// workers. Results keep row order. The first failure is returned.
func FeaturizeTable(t split.Table, conv convert.Converter, opts FeaturizeOptions) (*FeatureSet, error) {
	n := len(t)
	fs := &FeatureSet{
		Inputs: make([][]float32, n),
		Labels: make([][]float32, n),
	}
	if n == 0 {
		return fs, nil
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = max(1, min(workers, n))

	jobs := make(chan int, n)
	errCh := make(chan error, workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	var done atomic.Int64
	stopProgress := make(chan struct{})
	var progressWG sync.WaitGroup
	if opts.ProgressInterval > 0 {
		progressWG.Add(1)
		go func() {
			defer progressWG.Done()
			ticker := time.NewTicker(opts.ProgressInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					d := done.Load()
					log.Info("featurize progress",
						zap.Int64("done", d),
						zap.Int("total", n),
						zap.Float64("percent", float64(d)/float64(n)*100))
				case <-stopProgress:
					return
				}
			}
		}()
	}

	for range workers {
		go func() {
			defer wg.Done()
			for pos := range jobs {
				g, err := conv.Convert(t[pos].Representation)
				if err != nil {
					errCh <- fmt.Errorf("row %d: %w", pos, err)
					return
				}
				x, err := Featurize(g)
				if err != nil {
					errCh <- fmt.Errorf("row %d: %w", pos, err)
					return
				}
				fs.Inputs[pos] = x
				fs.Labels[pos] = []float32{float32(t[pos].Label)}
				done.Add(1)
			}
		}()
	}

	for i := range n {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(stopProgress)
	progressWG.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}
	log.Debug("featurized table", zap.Int("rows", n), zap.Int("workers", workers))
	return fs, nil
}

// TableKey fingerprints a table together with the converter's format tag.
// Any change to a representation, a label or the row order changes the key.
func TableKey(t split.Table, source string) uint64 {
	h := xxhash.New()
	h.WriteString(source)
	var buf [8]byte
	for _, r := range t {
		h.WriteString("\x00")
		h.WriteString(r.Representation)
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(r.Label))
		h.Write(buf[:])
	}
	return h.Sum64()
}

const featureCacheVersion = 1

// featureCache is the on-disk gob layout of a FeatureSet.
type featureCache struct {
	Version   int
	Key       uint64
	Dim       int
	CreatedAt int64
	Inputs    [][]float32
	Labels    [][]float32
}

// SaveCache writes the feature set to path with encoding/gob, via a temp file
// in the same directory and a rename.
func (f *FeatureSet) SaveCache(path string, key uint64) error {
	if path == "" {
		return fmt.Errorf("empty cache path")
	}
	fc := featureCache{
		Version:   featureCacheVersion,
		Key:       key,
		Dim:       FeatureDim,
		CreatedAt: time.Now().Unix(),
		Inputs:    f.Inputs,
		Labels:    f.Labels,
	}
	return datasets.WriteFileAtomic(path, func(w io.Writer) error {
		return gob.NewEncoder(w).Encode(&fc)
	})
}

// LoadFeatureCache reads a feature set written by SaveCache. The stored key,
// version and feature width must match.
func LoadFeatureCache(path string, key uint64) (*FeatureSet, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cache file %s: %w", path, err)
	}
	defer fh.Close()

	var fc featureCache
	if err := gob.NewDecoder(fh).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", path, err)
	}
	if fc.Version != featureCacheVersion {
		return nil, fmt.Errorf("cache version mismatch: cache=%d expected=%d", fc.Version, featureCacheVersion)
	}
	if fc.Key != key {
		return nil, fmt.Errorf("cache key mismatch: cache=%x expected=%x", fc.Key, key)
	}
	if fc.Dim != FeatureDim {
		return nil, fmt.Errorf("cache feature width mismatch: cache=%d expected=%d", fc.Dim, FeatureDim)
	}
	if len(fc.Inputs) != len(fc.Labels) {
		return nil, fmt.Errorf("cache size mismatch: inputs=%d labels=%d", len(fc.Inputs), len(fc.Labels))
	}
	return &FeatureSet{Inputs: fc.Inputs, Labels: fc.Labels}, nil
}
