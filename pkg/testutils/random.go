package testutils

import (
	"math/rand/v2"
	"os"
	"strconv"
	"testing"
	"time"
)

// NewRand returns a generator for randomized tests. The seed comes from TEST_SEED when it's set and
// is logged so a failing run can be replayed.
func NewRand(t *testing.T) *rand.Rand {
	t.Helper()

	seed := uint64(time.Now().UnixNano()) //nolint:gosec // positive
	if env := os.Getenv("TEST_SEED"); env != "" {
		if parsed, err := strconv.ParseUint(env, 0, 64); err == nil {
			seed = parsed
		}
	}
	t.Logf("to reproduce: TEST_SEED=0x%x", seed)
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // tests only
}

// RandMapKey picks a key of a non-empty map.
func RandMapKey[K comparable, V any](r *rand.Rand, m map[K]V) K {
	skip := r.IntN(len(m))
	for k := range m {
		if skip == 0 {
			return k
		}
		skip--
	}
	panic("empty map")
}

// WeightedOp is an operation enum whose values double as selection weights.
type WeightedOp interface {
	~uint8 | ~uint16 | ~uint32 | ~int
}

// RandWeightedOp picks one of ops with probability proportional to its value.
func RandWeightedOp[T WeightedOp](r *rand.Rand, ops []T) T {
	var total int
	for _, op := range ops {
		total += int(op)
	}

	pick := r.IntN(total)
	for _, op := range ops {
		if pick < int(op) {
			return op
		}
		pick -= int(op)
	}
	panic("ops have no weight")
}
