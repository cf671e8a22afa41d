package batchgcd

import (
	"math/big"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/fvial/batchgcd/pkg/pool"
	"github.com/fvial/batchgcd/pkg/store"
)

// PropagateRemainders walks the persisted tree top-down and returns, for
// every leaf i, the value Z mod Xᵢ², where Z is the product of all leaves.
//
// The running value is seeded with the root itself. Descending one level,
// each child's remainder is its parent's remainder reduced modulo the square
// of the child's own stored value; a carried-forward child has the same
// value as its parent, so the reduction propagates the parent's remainder
// unchanged. Reductions within a level are independent and run on the pool;
// a level's remainders are complete before the next descent step begins.
//
// Only the previous level's remainders and the current level's stored values
// are resident at any point.
func PropagateRemainders(pl *pool.Pool, st *store.Store, height int) ([]*big.Int, error) {
	root, err := st.LoadLevel(height)
	if err != nil {
		return nil, err
	}
	if len(root) != 1 {
		return nil, errors.Errorf("batchgcd: level %d has %d entries, want 1 (root)", height, len(root))
	}

	rem := root
	for level := height; level > 0; level-- {
		children, err := st.LoadLevel(level - 1)
		if err != nil {
			return nil, err
		}

		parents := rem
		next := make([]*big.Int, len(children))
		pl.Parallelize(len(children), func(i int) interface{} {
			sq := new(big.Int).Mul(children[i], children[i])
			next[i] = new(big.Int).Rem(parents[i/2], sq)
			return nil
		})
		log.Debugf("remainder tree: level %d reduced (%d nodes)", level-1, len(next))

		rem = next
	}
	return rem, nil
}
