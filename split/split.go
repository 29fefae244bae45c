package split

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/Noofbiz/molprep/convert"
	"github.com/Noofbiz/molprep/scaffold"
)

var (
	// ErrConfiguration is returned for empty tables and invalid fractions.
	ErrConfiguration = errors.New("split: invalid configuration")

	// ErrUnsupportedMethod is returned for an unknown split method.
	ErrUnsupportedMethod = errors.New("split: unsupported method")
)

// fractionTolerance is how far the fractions may sum from 1.
const fractionTolerance = 1e-6

// capacitySlack absorbs float error in frac*N so that 0.7*100 holds 70 rows.
const capacitySlack = 1e-9

// Method names a partition strategy.
type Method string

const (
	// Scaffold groups molecules by Murcko framework so that each framework
	// lands in exactly one subset.
	Scaffold Method = "scaffold"
	// Random assigns rows independently of structure.
	Random Method = "random"
)

// ParseMethod resolves a method name, case-insensitively.
func ParseMethod(name string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(name))); m {
	case Scaffold, Random:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, name)
}

// Fractions are the train, valid and test proportions.
type Fractions [3]float64

// DefaultFractions is the 70/10/20 split.
var DefaultFractions = Fractions{0.7, 0.1, 0.2}

// Validate checks the fractions are finite, non-negative and sum to 1.
func (f Fractions) Validate() error {
	sum := 0.0
	for i, v := range f {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: fraction %d is %v", ErrConfiguration, i, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > fractionTolerance {
		return fmt.Errorf("%w: fractions %v sum to %v, want 1", ErrConfiguration, f, sum)
	}
	return nil
}

// Split partitions t using the named method. The same inputs always produce
// the same partition.
//
// Scaffold split: rows are grouped by framework key; groups bigger than half
// the validation or half the test capacity are shuffled first, the rest after
// them, and each group is placed greedily into train, else valid, else test.
// Capacities are frac*N without rounding, so test absorbs the remainder.
//
// Random split: valid and test sizes are frac*N rounded to nearest and train
// takes the rest. Subsets keep source order.
func Split(t Table, method string, seed int64, frac Fractions) (Partition, error) {
	m, err := ParseMethod(method)
	if err != nil {
		return Partition{}, err
	}
	if len(t) == 0 {
		return Partition{}, fmt.Errorf("%w: empty table", ErrConfiguration)
	}
	if err := frac.Validate(); err != nil {
		return Partition{}, err
	}

	switch m {
	case Random:
		return randomSplit(t, seed, frac), nil
	default:
		keys := make([]string, len(t))
		for i, r := range t {
			k, err := scaffold.KeyOf(r.Representation)
			if err != nil {
				return Partition{}, fmt.Errorf("%w: scaffold for row %d: %w", convert.ErrConversion, i, err)
			}
			keys[i] = k
		}
		return groupSplit(t, keys, seed, frac), nil
	}
}

// groupSplit is the balanced group split over precomputed group keys.
func groupSplit(t Table, keys []string, seed int64, frac Fractions) Partition {
	n := float64(len(t))
	trainCap := frac[0]*n + capacitySlack
	validCap := frac[1]*n + capacitySlack
	testCap := frac[2]*n + capacitySlack

	order := make([]string, 0)
	groups := make(map[string][]int)
	for i, k := range keys {
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	var big, small [][]int
	for _, k := range order {
		g := groups[k]
		if float64(len(g)) > validCap/2 || float64(len(g)) > testCap/2 {
			big = append(big, g)
		} else {
			small = append(small, g)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(big), func(i, j int) { big[i], big[j] = big[j], big[i] })
	rng.Shuffle(len(small), func(i, j int) { small[i], small[j] = small[j], small[i] })

	sets := append(big, small...)
	var train, valid, test []int
	for _, g := range sets {
		switch {
		case float64(len(train)+len(g)) <= trainCap:
			train = append(train, g...)
		case float64(len(valid)+len(g)) <= validCap:
			valid = append(valid, g...)
		default:
			test = append(test, g...)
		}
	}

	return Partition{
		Train: pick(t, train),
		Valid: pick(t, valid),
		Test:  pick(t, test),
	}
}

func randomSplit(t Table, seed int64, frac Fractions) Partition {
	n := len(t)
	nTest := int(math.Round(frac[2] * float64(n)))
	nValid := int(math.Round(frac[1] * float64(n)))
	if nTest+nValid > n {
		nValid = n - nTest
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	test := sorted(perm[:nTest])
	valid := sorted(perm[nTest : nTest+nValid])
	train := sorted(perm[nTest+nValid:])

	return Partition{
		Train: pick(t, train),
		Valid: pick(t, valid),
		Test:  pick(t, test),
	}
}

func pick(t Table, idx []int) Table {
	out := make(Table, len(idx))
	for i, j := range idx {
		out[i] = t[j]
	}
	return out
}

func sorted(idx []int) []int {
	out := append([]int(nil), idx...)
	sort.Ints(out)
	return out
}
