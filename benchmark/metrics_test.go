package benchmark

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMAE(t *testing.T) {
	got, err := MAE([]float64{1, 2, 3, 4}, []float64{1.5, 2, 2, 4})
	require.NoError(t, err)
	require.InDelta(t, 0.375, got, 1e-12)

	_, err = MAE([]float64{1, 2}, []float64{1})
	require.ErrorIs(t, err, ErrPredictionLength)
	_, err = MAE(nil, nil)
	require.Error(t, err)
}

func TestROCAUC(t *testing.T) {
	// positives score {3, 6, 7.5, 8}, negatives {0, 5}: 7 of 8 pairs ordered
	yTrue := []float64{1, 0, 1, 1, 0, 1}
	yPred := []float64{6, 0, 7.5, 3, 5, 8}
	got, err := ROCAUC(yTrue, yPred)
	require.NoError(t, err)
	require.InDelta(t, 0.875, got, 1e-12)

	perfect, err := ROCAUC([]float64{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9})
	require.NoError(t, err)
	require.InDelta(t, 1.0, perfect, 1e-12)

	tied, err := ROCAUC([]float64{0, 1, 0, 1}, []float64{0.5, 0.5, 0.5, 0.5})
	require.NoError(t, err)
	require.InDelta(t, 0.5, tied, 1e-12)

	// input slices are left untouched
	require.Equal(t, []float64{6, 0, 7.5, 3, 5, 8}, yPred)

	_, err = ROCAUC([]float64{1, 1}, []float64{0.3, 0.4})
	require.Error(t, err)
}

func TestSpearman(t *testing.T) {
	got, err := Spearman([]float64{1, 2, 3, 4}, []float64{10, 20, 30, 400})
	require.NoError(t, err)
	require.InDelta(t, 1.0, got, 1e-12)

	got, err = Spearman([]float64{1, 2, 3, 4}, []float64{4, 3, 2, 1})
	require.NoError(t, err)
	require.InDelta(t, -1.0, got, 1e-12)

	_, err = Spearman([]float64{1, 2, 3}, []float64{5, 5, 5})
	require.Error(t, err)
}

func TestRanksAverageTies(t *testing.T) {
	require.Equal(t, []float64{1, 2.5, 2.5, 4}, ranks([]float64{1, 5, 5, 9}))
	require.Equal(t, []float64{3, 1, 2}, ranks([]float64{0.9, 0.1, 0.5}))
}

func TestMetricFor(t *testing.T) {
	name, _ := MetricFor("BBB_Martins")
	require.Equal(t, MetricROCAUC, name)
	name, _ = MetricFor("Half_Life_Obach")
	require.Equal(t, MetricSpearman, name)
	name, _ = MetricFor("Caco2_Wang")
	require.Equal(t, MetricMAE, name)
}

func TestSummarize(t *testing.T) {
	got := summarize([]float64{0.8, 0.9, 1.0, 0.9, 0.8})
	require.InDelta(t, 0.88, got[0], 1e-12)
	require.InDelta(t, 0.075, got[1], 1e-12)

	same := summarize([]float64{0.5, 0.5})
	require.Equal(t, [2]float64{0.5, 0}, same)
}
