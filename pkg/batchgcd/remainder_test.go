package batchgcd

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// naiveRemainders computes Z mod Xᵢ² directly, as the O(n²)-ish reference.
func naiveRemainders(xs []*big.Int) []*big.Int {
	z := product(xs)
	rems := make([]*big.Int, len(xs))
	for i, x := range xs {
		sq := new(big.Int).Mul(x, x)
		rems[i] = new(big.Int).Rem(z, sq)
	}
	return rems
}

func TestLeafRemaindersMatchNaive(t *testing.T) {
	r := rand.New(rand.NewSource(10))
	for _, n := range []int{2, 3, 4, 7, 12, 21} {
		st := testStore(t)
		xs := randomSet(t, r, n)
		want := naiveRemainders(xs)

		height, err := BuildProductTree(nil, st, xs)
		require.NoError(t, err)
		got, err := PropagateRemainders(nil, st, height)
		require.NoError(t, err)

		require.Len(t, got, n)
		for i := range want {
			assert.Zero(t, want[i].Cmp(got[i]), "leaf %d remainder, n=%d", i, n)
		}
	}
}

func TestRemaindersOddSet(t *testing.T) {
	st := testStore(t)
	xs := ints(6, 10, 15)
	want := naiveRemainders(xs)

	height, err := BuildProductTree(nil, st, xs)
	require.NoError(t, err)
	got, err := PropagateRemainders(nil, st, height)
	require.NoError(t, err)

	require.Len(t, got, 3)
	for i := range want {
		assert.Zero(t, want[i].Cmp(got[i]), "leaf %d", i)
	}
}

func TestRemainderHeightZeroSeedsWithRoot(t *testing.T) {
	st := testStore(t)
	height, err := BuildProductTree(nil, st, ints(91))
	require.NoError(t, err)
	require.Equal(t, 0, height)

	rems, err := PropagateRemainders(nil, st, height)
	require.NoError(t, err)
	require.Len(t, rems, 1)
	// The root remainder is the seed value Z itself, here the lone modulus.
	assert.EqualValues(t, 91, rems[0].Int64())
}

func TestRemaindersMissingLevelAborts(t *testing.T) {
	st := testStore(t)
	_, err := PropagateRemainders(nil, st, 3)
	assert.Error(t, err)
}

func TestRemaindersWithPool(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	st := testStore(t)
	pl := poolOf(t, 3)
	xs := randomSet(t, r, 19)
	want := naiveRemainders(xs)

	height, err := BuildProductTree(pl, st, xs)
	require.NoError(t, err)
	got, err := PropagateRemainders(pl, st, height)
	require.NoError(t, err)

	for i := range want {
		assert.Zero(t, want[i].Cmp(got[i]), "leaf %d", i)
	}
}
