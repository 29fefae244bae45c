package tdc

import (
	"github.com/Noofbiz/molprep/split"
)

// Task is one loaded property table.
type Task struct {
	Name  string
	Path  string
	Table split.Table
}

// GetSplit partitions the task table. method is "scaffold" or "random".
func (t *Task) GetSplit(method string, seed int64, frac split.Fractions) (split.Partition, error) {
	return split.Split(t.Table, method, seed, frac)
}
