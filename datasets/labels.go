package datasets

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// LabelTensor wraps a scalar label in a float32 tensor of shape [1].
func LabelTensor(y float64) *tensors.Tensor {
	return tensors.FromAnyValue([]float32{float32(y)})
}

// LabelBatchFlat stores a batch of label vectors in one contiguous buffer.
type LabelBatchFlat struct {
	Labels    []float32
	BatchSize int
	LabelDim  int
}

// MakeLabelBatchFlat flattens a batch of label vectors. All vectors must
// have the same length.
func MakeLabelBatchFlat(labels [][]float32) (*LabelBatchFlat, error) {
	if len(labels) == 0 {
		return &LabelBatchFlat{}, nil
	}

	batchSize := len(labels)
	labelDim := len(labels[0])
	flat := make([]float32, batchSize*labelDim)

	for i := range batchSize {
		if len(labels[i]) != labelDim {
			return nil, fmt.Errorf("inconsistent label dimensions at example %d: expected %d, got %d",
				i, labelDim, len(labels[i]))
		}
		copy(flat[i*labelDim:], labels[i])
	}

	return &LabelBatchFlat{
		Labels:    flat,
		BatchSize: batchSize,
		LabelDim:  labelDim,
	}, nil
}

// ToGomlxTensor converts the batch to a [BatchSize, LabelDim] gomlx tensor.
// An empty batch yields a [0, LabelDim] tensor, with LabelDim at least 1.
func (b *LabelBatchFlat) ToGomlxTensor() *tensors.Tensor {
	if b.BatchSize == 0 {
		return tensors.FromFlatDataAndDimensions([]float32{}, 0, max(b.LabelDim, 1))
	}
	return tensors.FromFlatDataAndDimensions(b.Labels, b.BatchSize, b.LabelDim)
}
