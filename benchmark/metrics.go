package benchmark

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

var ErrPredictionLength = errors.New("benchmark: prediction length does not match test set")

// Metric scores predictions against true labels.
type Metric func(yTrue, yPred []float64) (float64, error)

// Metric names.
const (
	MetricMAE      = "mae"
	MetricROCAUC   = "roc-auc"
	MetricSpearman = "spearman"
)

// MetricFor returns the metric a benchmark is scored with.
func MetricFor(name string) (string, Metric) {
	if m, ok := benchmarkMetrics[normalize(name)]; ok {
		return m, metrics[m]
	}
	return MetricMAE, metrics[MetricMAE]
}

var metrics = map[string]Metric{
	MetricMAE:      MAE,
	MetricROCAUC:   ROCAUC,
	MetricSpearman: Spearman,
}

// benchmarkMetrics lists benchmarks not scored by MAE.
var benchmarkMetrics = map[string]string{
	"bbb_martins":             MetricROCAUC,
	"hia_hou":                 MetricROCAUC,
	"pgp_broccatelli":         MetricROCAUC,
	"bioavailability_ma":      MetricROCAUC,
	"herg":                    MetricROCAUC,
	"ames":                    MetricROCAUC,
	"dili":                    MetricROCAUC,
	"vdss_lombardo":           MetricSpearman,
	"half_life_obach":         MetricSpearman,
	"clearance_hepatocyte_az": MetricSpearman,
	"clearance_microsome_az":  MetricSpearman,
}

func checkLengths(yTrue, yPred []float64) error {
	if len(yTrue) != len(yPred) {
		return fmt.Errorf("%w: got %d predictions for %d labels", ErrPredictionLength, len(yPred), len(yTrue))
	}
	if len(yTrue) == 0 {
		return errors.New("no labels to score")
	}
	return nil
}

// MAE is the mean absolute error.
func MAE(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths(yTrue, yPred); err != nil {
		return 0, err
	}
	return floats.Distance(yTrue, yPred, 1) / float64(len(yTrue)), nil
}

// ROCAUC is the area under the ROC curve. Labels >= 0.5 are positives and
// predictions are scores; both classes must be present.
func ROCAUC(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths(yTrue, yPred); err != nil {
		return 0, err
	}
	y := append([]float64(nil), yPred...)
	classes := make([]bool, len(yTrue))
	var pos int
	for i, v := range yTrue {
		classes[i] = v >= 0.5
		if classes[i] {
			pos++
		}
	}
	if pos == 0 || pos == len(classes) {
		return 0, errors.New("roc-auc needs both positive and negative labels")
	}
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// Spearman is the rank correlation between labels and predictions, with
// ties given their average rank.
func Spearman(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths(yTrue, yPred); err != nil {
		return 0, err
	}
	c := stat.Correlation(ranks(yTrue), ranks(yPred), nil)
	if math.IsNaN(c) {
		return 0, errors.New("spearman undefined for constant input")
	}
	return c, nil
}

func ranks(x []float64) []float64 {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	r := make([]float64, len(x))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && x[idx[j+1]] == x[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			r[idx[k]] = avg
		}
		i = j + 1
	}
	return r
}

// summarize returns the mean and population standard deviation of scores,
// each rounded half to even at three decimals.
func summarize(scores []float64) [2]float64 {
	mean, variance := stat.PopMeanVariance(scores, nil)
	return [2]float64{scalar.RoundEven(mean, 3), scalar.RoundEven(math.Sqrt(variance), 3)}
}
