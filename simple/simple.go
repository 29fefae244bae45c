package simple

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Config holds configurable hyperparameters for the MLP model and training.
type Config struct {
	// HiddenSizes is the list of hidden layer sizes. Example: []int{64, 32}
	// If empty, a single hidden layer of size 64 will be used.
	HiddenSizes []int

	// InputDim is the length of the molecule feature vector. Required.
	InputDim int

	// OutputDim is the number of predicted targets. Defaults to 1.
	OutputDim int

	LearningRate float64

	// Epochs to train for (default if 0 will be set by NewModel to 10).
	Epochs int

	// BatchSize for mini-batch updates (default if 0 will be set by NewModel to 8).
	BatchSize int

	// Seed controls RNG for weight init and shuffling. If zero, time-based seed is used.
	Seed int64

	// Optimizer selects the optimizer to use: "adam" or "sgd". Default: "adam".
	Optimizer string

	// Adam hyperparameters (defaults below if zero).
	Beta1   float64
	Beta2   float64
	Epsilon float64

	// ClipNorm bounds the L2 norm of each layer's averaged gradient. Zero
	// disables clipping.
	ClipNorm float32
}

// Dataset is the minimal interface the trainer needs: fixed-width feature
// vectors with OutputDim-wide targets.
type Dataset interface {
	Len() int
	// Batch returns inputs and labels for the given positions.
	Batch(indices []int) ([][]float32, [][]float32, error)
}

// Model is a small fully connected regressor over pooled molecule features.
// Hidden layers use ReLU; the output layer is linear and trained with mean
// squared error.
type Model struct {
	Config Config

	// layerSizes includes input size, hidden sizes, then output size.
	layerSizes []int

	// weights[l] is a matrix of shape [out][in] for layer l -> l+1
	weights [][][]float32
	biases  [][]float32

	// Adam moments, same shapes as weights / biases.
	mW [][][]float32
	vW [][][]float32
	mB [][]float32
	vB [][]float32
	t  int

	rng *rand.Rand
}

// NewModel creates a new Model instance with the provided configuration.
func NewModel(cfg Config) (*Model, error) {
	if cfg.InputDim <= 0 {
		return nil, fmt.Errorf("input dimension must be positive, got %d", cfg.InputDim)
	}
	if len(cfg.HiddenSizes) == 0 {
		cfg.HiddenSizes = []int{64}
	}
	for i, h := range cfg.HiddenSizes {
		if h <= 0 {
			return nil, fmt.Errorf("hidden layer %d has non-positive size %d", i, h)
		}
	}
	if cfg.OutputDim == 0 {
		cfg.OutputDim = 1
	}
	if cfg.LearningRate == 0 {
		cfg.LearningRate = 0.001
	}
	if cfg.Epochs == 0 {
		cfg.Epochs = 10
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 8
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	cfg.Optimizer = strings.ToLower(cfg.Optimizer)
	switch cfg.Optimizer {
	case "":
		cfg.Optimizer = "adam"
	case "adam", "sgd":
	default:
		return nil, fmt.Errorf("unknown optimizer %q", cfg.Optimizer)
	}
	if cfg.Beta1 == 0 {
		cfg.Beta1 = 0.9
	}
	if cfg.Beta2 == 0 {
		cfg.Beta2 = 0.999
	}
	if cfg.Epsilon == 0 {
		cfg.Epsilon = 1e-8
	}

	m := &Model{
		Config: cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}

	sizes := make([]int, 0, 2+len(cfg.HiddenSizes))
	sizes = append(sizes, cfg.InputDim)
	sizes = append(sizes, cfg.HiddenSizes...)
	sizes = append(sizes, cfg.OutputDim)
	m.layerSizes = sizes

	L := len(sizes) - 1
	m.weights = make([][][]float32, L)
	m.biases = make([][]float32, L)
	for l := range L {
		in, out := sizes[l], sizes[l+1]
		// Glorot uniform
		limit := float32(math.Sqrt(6.0 / float64(in+out)))
		m.weights[l] = newMatrix(out, in)
		for j := range out {
			for i := range in {
				m.weights[l][j][i] = (m.rng.Float32()*2.0 - 1.0) * limit
			}
		}
		m.biases[l] = make([]float32, out)
	}
	if cfg.Optimizer == "adam" {
		m.mW, m.vW = zerosLikeW(m.weights), zerosLikeW(m.weights)
		m.mB, m.vB = zerosLikeB(m.biases), zerosLikeB(m.biases)
	}

	return m, nil
}

func newMatrix(rows, cols int) [][]float32 {
	mat := make([][]float32, rows)
	for j := range mat {
		mat[j] = make([]float32, cols)
	}
	return mat
}

func zerosLikeW(w [][][]float32) [][][]float32 {
	out := make([][][]float32, len(w))
	for l := range w {
		out[l] = newMatrix(len(w[l]), len(w[l][0]))
	}
	return out
}

func zerosLikeB(b [][]float32) [][]float32 {
	out := make([][]float32, len(b))
	for l := range b {
		out[l] = make([]float32, len(b[l]))
	}
	return out
}

func relu(x []float32) {
	for i := range x {
		if x[i] < 0 {
			x[i] = 0
		}
	}
}

// forward returns pre-activations per layer and activations per layer, with
// acts[0] the input.
func (m *Model) forward(input []float32) (preActs, acts [][]float32, err error) {
	if len(input) != m.layerSizes[0] {
		return nil, nil, fmt.Errorf("input has dimension %d, want %d", len(input), m.layerSizes[0])
	}
	L := len(m.weights)
	acts = make([][]float32, L+1)
	acts[0] = append([]float32(nil), input...)
	preActs = make([][]float32, L)
	for l := range L {
		W, b := m.weights[l], m.biases[l]
		pre := make([]float32, len(b))
		for j := range pre {
			sum := b[j]
			for i, x := range acts[l] {
				sum += W[j][i] * x
			}
			pre[j] = sum
		}
		preActs[l] = pre

		act := append([]float32(nil), pre...)
		if l < L-1 {
			relu(act)
		}
		acts[l+1] = act
	}
	return preActs, acts, nil
}

// PredictBatch runs a forward pass for each input. The result has shape
// [batch][OutputDim].
func (m *Model) PredictBatch(inputs [][]float32) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		_, acts, err := m.forward(in)
		if err != nil {
			return nil, fmt.Errorf("example %d: %w", i, err)
		}
		out[i] = acts[len(acts)-1]
	}
	return out, nil
}

// Predict returns the first output for each input; convenient for
// single-target models.
func (m *Model) Predict(inputs [][]float32) ([]float64, error) {
	preds, err := m.PredictBatch(inputs)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(preds))
	for i, p := range preds {
		out[i] = float64(p[0])
	}
	return out, nil
}

// TrainWithDataset runs mini-batch training with MSE loss for the configured
// number of epochs. Examples are reshuffled each epoch with the model RNG.
func (m *Model) TrainWithDataset(ds Dataset) error {
	if ds == nil {
		return errors.New("dataset is nil")
	}
	n := ds.Len()
	if n == 0 {
		return errors.New("dataset has no examples")
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	L := len(m.weights)
	gradW := zerosLikeW(m.weights)
	gradB := zerosLikeB(m.biases)

	for range m.Config.Epochs {
		m.rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		for bstart := 0; bstart < n; bstart += m.Config.BatchSize {
			bend := min(bstart+m.Config.BatchSize, n)
			inputs, labels, err := ds.Batch(indices[bstart:bend])
			if err != nil {
				return err
			}
			batchN := len(inputs)
			if batchN == 0 {
				continue
			}
			if len(labels) != batchN {
				return fmt.Errorf("batch has %d inputs but %d labels", batchN, len(labels))
			}

			for l := range L {
				for j := range gradW[l] {
					clear(gradW[l][j])
				}
				clear(gradB[l])
			}

			for ex := range batchN {
				if err := m.accumulate(inputs[ex], labels[ex], gradW, gradB); err != nil {
					return err
				}
			}

			scale := float32(1.0 / float64(batchN))
			for l := range L {
				for j := range gradW[l] {
					for i := range gradW[l][j] {
						gradW[l][j][i] *= scale
					}
					gradB[l][j] *= scale
				}
				if m.Config.ClipNorm > 0 {
					clipLayer(gradW[l], gradB[l], m.Config.ClipNorm)
				}
			}
			m.step(gradW, gradB)
		}
	}

	return nil
}

// accumulate backpropagates one example and adds its gradients.
func (m *Model) accumulate(in, label []float32, gradW [][][]float32, gradB [][]float32) error {
	if len(label) != m.Config.OutputDim {
		return fmt.Errorf("label has dimension %d, want %d", len(label), m.Config.OutputDim)
	}
	preacts, acts, err := m.forward(in)
	if err != nil {
		return err
	}

	// dLoss/dOutput = 2*(pred - label)
	out := acts[len(acts)-1]
	delta := make([]float32, len(out))
	for j := range out {
		delta[j] = 2.0 * (out[j] - label[j])
	}

	for l := len(m.weights) - 1; l >= 0; l-- {
		inAct := acts[l]
		for j := range delta {
			gradB[l][j] += delta[j]
			for i, x := range inAct {
				gradW[l][j][i] += delta[j] * x
			}
		}
		if l == 0 {
			break
		}
		prev := make([]float32, len(inAct))
		for i := range prev {
			if preacts[l-1][i] <= 0 {
				continue
			}
			var sum float32
			for j := range delta {
				sum += m.weights[l][j][i] * delta[j]
			}
			prev[i] = sum
		}
		delta = prev
	}
	return nil
}

func clipLayer(gw [][]float32, gb []float32, maxNorm float32) {
	var sq float64
	for j := range gw {
		for _, g := range gw[j] {
			sq += float64(g) * float64(g)
		}
		sq += float64(gb[j]) * float64(gb[j])
	}
	norm := math.Sqrt(sq)
	if norm <= float64(maxNorm) || norm == 0 {
		return
	}
	s := float32(float64(maxNorm) / norm)
	for j := range gw {
		for i := range gw[j] {
			gw[j][i] *= s
		}
		gb[j] *= s
	}
}

// step applies one optimizer update from averaged gradients.
func (m *Model) step(gradW [][][]float32, gradB [][]float32) {
	lr := m.Config.LearningRate
	if m.Config.Optimizer == "sgd" {
		for l := range m.weights {
			for j := range m.weights[l] {
				for i := range m.weights[l][j] {
					m.weights[l][j][i] -= float32(lr) * gradW[l][j][i]
				}
				m.biases[l][j] -= float32(lr) * gradB[l][j]
			}
		}
		return
	}

	m.t++
	b1, b2, eps := m.Config.Beta1, m.Config.Beta2, m.Config.Epsilon
	c1 := 1 - math.Pow(b1, float64(m.t))
	c2 := 1 - math.Pow(b2, float64(m.t))
	adam := func(p, mom, vel *float32, g float32) {
		*mom = float32(b1)*(*mom) + float32(1-b1)*g
		*vel = float32(b2)*(*vel) + float32(1-b2)*g*g
		mHat := float64(*mom) / c1
		vHat := float64(*vel) / c2
		*p -= float32(lr * mHat / (math.Sqrt(vHat) + eps))
	}
	for l := range m.weights {
		for j := range m.weights[l] {
			for i := range m.weights[l][j] {
				adam(&m.weights[l][j][i], &m.mW[l][j][i], &m.vW[l][j][i], gradW[l][j][i])
			}
			adam(&m.biases[l][j], &m.mB[l][j], &m.vB[l][j], gradB[l][j])
		}
	}
}
