package batchgcd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct{ i, j int }

func TestResolveOverlapsRecoversFactors(t *testing.T) {
	// 6 = 2·3, 10 = 2·5, 15 = 3·5: every pair shares a factor, so every
	// leaf finalizes as a full overlap rather than with concrete factors.
	xs := ints(6, 10, 15)
	results := classifySet(t, xs)
	for _, r := range results {
		require.Equal(t, Duplicate, r.Class, "leaf %d", r.Index)
	}

	overlaps := ResolveOverlaps(results, xs, 2)
	require.Len(t, overlaps, 6)

	want := map[pair]int64{
		{0, 1}: 2, {1, 0}: 2,
		{0, 2}: 3, {2, 0}: 3,
		{1, 2}: 5, {2, 1}: 5,
	}
	for _, o := range overlaps {
		require.NotNil(t, o.P, "pair (%d,%d)", o.I, o.J)
		assert.EqualValues(t, want[pair{o.I, o.J}], o.P.Int64(), "pair (%d,%d)", o.I, o.J)
		// Q is the cofactor of modulus I.
		prod := o.P.Int64() * o.Q.Int64()
		assert.EqualValues(t, xs[o.I].Int64(), prod)
	}
}

func TestResolveOverlapsIdenticalModuli(t *testing.T) {
	xs := ints(91, 91)
	results := classifySet(t, xs)

	overlaps := ResolveOverlaps(results, xs, 4)
	require.Len(t, overlaps, 1)
	assert.Equal(t, 0, overlaps[0].I)
	assert.Equal(t, 1, overlaps[0].J)
	assert.Nil(t, overlaps[0].P)
}

func TestResolveOverlapsNothingFlagged(t *testing.T) {
	xs := ints(35, 11)
	results := classifySet(t, xs)
	assert.Empty(t, ResolveOverlaps(results, xs, 1))
}
