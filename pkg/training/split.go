package training

import (
	"math"
	"math/rand"
)

const (
	DefaultSeed         = 42
	DefaultTestFraction = 0.2
)

// Split partitions n indices into train and test sets with a seeded permutation. The test set
// holds ceil(n*testFraction) indices, at least one, and the train set at least one. Identical
// inputs always produce identical partitions.
func Split(n int, testFraction float64, seed int64) (train, test []int) {
	if n == 0 {
		return nil, nil
	}
	testSize := int(math.Ceil(float64(n)*testFraction - 1e-9))
	if testSize < 1 {
		testSize = 1
	}
	if testSize > n-1 {
		testSize = n - 1
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n) //nolint:gosec
	return perm[testSize:], perm[:testSize]
}
