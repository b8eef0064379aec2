package ecs

import (
	"testing"

	"github.com/argus-labs/scene-engine/pkg/testutils"
	"github.com/stretchr/testify/assert"
)

// Compares sparseSet against a map model under random set/get/remove sequences.
func TestSparseSet_ModelBasedFuzz(t *testing.T) {
	t.Parallel()
	prng := testutils.NewRand(t)

	impl := newSparseSet()
	model := make(map[EntityID]int, sparseCapacity)

	const (
		opsMax = 1 << 14
		maxKey = 5_000
	)

	for range opsMax {
		key := EntityID(prng.IntN(maxKey))

		switch testutils.RandWeightedOp(prng, sparseSetOps) {
		case opSet:
			value := prng.IntN(1 << 20)
			impl.set(key, value)
			model[key] = value

			got, ok := impl.get(key)
			assert.True(t, ok, "set(%d) then get should exist", key)
			assert.Equal(t, value, got)

		case opGet:
			if len(model) > 0 && prng.Float64() < 0.8 {
				key = testutils.RandMapKey(prng, model)
			}
			got, ok := impl.get(key)
			want, wantOk := model[key]
			assert.Equal(t, wantOk, ok, "get(%d) existence mismatch", key)
			if ok {
				assert.Equal(t, want, got)
			}

		case opRemove:
			ok := impl.remove(key)
			_, wantOk := model[key]
			delete(model, key)
			assert.Equal(t, wantOk, ok, "remove(%d) existence mismatch", key)

			_, ok = impl.get(key)
			assert.False(t, ok)
		}
	}

	for key, want := range model {
		got, ok := impl.get(key)
		assert.True(t, ok, "key %d should exist", key)
		assert.Equal(t, want, got)
	}
}

type sparseSetOp uint8

const (
	opSet    sparseSetOp = 55
	opRemove sparseSetOp = 35
	opGet    sparseSetOp = 10
)

var sparseSetOps = []sparseSetOp{opSet, opRemove, opGet} //nolint:gochecknoglobals // test table
