package batchgcd

import (
	"math/big"

	log "github.com/sirupsen/logrus"

	"github.com/fvial/batchgcd/pkg/pool"
	"github.com/fvial/batchgcd/pkg/store"
)

// BuildProductTree builds the product tree over xs bottom-up, persisting
// every level (the leaves included) through st, and returns the tree height:
// the index of the single-entry root level.
//
// Level L+1 entry j is the product of level L entries 2j and 2j+1; an
// unpaired final entry is carried forward unchanged. Multiplications within
// a level run on the pool; each level is fully persisted before the next is
// started, and the in-memory predecessor is released as soon as its
// successor exists.
//
// The builder takes ownership of xs: after a successful return the caller
// must re-read the leaves from st rather than assume xs is still intact.
func BuildProductTree(pl *pool.Pool, st *store.Store, xs []*big.Int) (int, error) {
	if len(xs) == 0 {
		return 0, ErrEmptyInput
	}

	if err := st.PersistLevel(0, xs); err != nil {
		return 0, err
	}
	log.Debugf("product tree: persisted %d leaves", len(xs))

	height := 0
	cur := xs
	for len(cur) > 1 {
		next := make([]*big.Int, (len(cur)+1)/2)
		level := cur
		pl.Parallelize(len(cur)/2, func(i int) interface{} {
			next[i] = new(big.Int).Mul(level[2*i], level[2*i+1])
			return nil
		})
		if len(cur)&1 == 1 {
			// Odd count: the last entry has no partner this level.
			next[len(next)-1] = new(big.Int).Set(cur[len(cur)-1])
		}

		height++
		if err := st.PersistLevel(height, next); err != nil {
			return 0, err
		}
		log.Debugf("product tree: level %d has %d entries (%d bits at [0])",
			height, len(next), next[0].BitLen())

		// Dropping cur here is what keeps only one level resident.
		cur = next
	}
	return height, nil
}

// LevelWidth returns the entry count of a level, computable from the leaf
// count alone: ⌈n / 2^level⌉.
func LevelWidth(n, level int) int {
	for ; level > 0 && n > 1; level-- {
		n = (n + 1) / 2
	}
	return n
}
