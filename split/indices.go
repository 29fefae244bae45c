package split

import "fmt"

// Indices locates each subset of a Partition inside Partition.Concat().
type Indices struct {
	Train []int
	Valid []int
	Test  []int
}

// AssignIndices computes the index ranges of p from its subset lengths only.
func AssignIndices(p Partition) Indices {
	return IndicesForSizes(len(p.Train), len(p.Valid), len(p.Test))
}

// IndicesForSizes returns [0,nTrain), [nTrain,nTrain+nValid) and
// [nTrain+nValid, total).
func IndicesForSizes(nTrain, nValid, nTest int) Indices {
	return Indices{
		Train: arange(0, nTrain),
		Valid: arange(nTrain, nValid),
		Test:  arange(nTrain+nValid, nTest),
	}
}

// Total returns the number of indices over all three ranges.
func (ix Indices) Total() int { return len(ix.Train) + len(ix.Valid) + len(ix.Test) }

// Validate checks that the three ranges partition [0,total) in order with no
// gaps or overlaps.
func (ix Indices) Validate(total int) error {
	if ix.Total() != total {
		return fmt.Errorf("index ranges cover %d positions, want %d", ix.Total(), total)
	}
	next := 0
	for _, r := range []struct {
		name string
		idx  []int
	}{{"train", ix.Train}, {"valid", ix.Valid}, {"test", ix.Test}} {
		for _, i := range r.idx {
			if i != next {
				return fmt.Errorf("%s index %d out of sequence, want %d", r.name, i, next)
			}
			next++
		}
	}
	return nil
}

func arange(start, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}
