package batchgcd

import (
	"math/big"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Overlap is one resolved pair from a pairwise refinement scan: moduli I and
// J share the factor P (with Q the cofactor of modulus I), or are identical
// when P is nil.
type Overlap struct {
	I, J int
	P, Q *big.Int
}

// ResolveOverlaps pairwise-scans every leaf that finalized as Duplicate
// against the rest of the set. A Duplicate verdict only says gcd(Q, X) = X:
// either the modulus appears twice, or it shares distinct factors with two
// or more other moduli. The O(k·n) scan (k flagged leaves) recovers which,
// and the concrete factors.
//
// xs is the full leaf sequence in input order; workers bounds concurrency.
func ResolveOverlaps(results []Result, xs []*big.Int, workers int) []Overlap {
	if workers < 1 {
		workers = 1
	}

	var (
		mu  sync.Mutex
		out []Overlap
	)
	var g errgroup.Group
	g.SetLimit(workers)

	for _, res := range results {
		if res.Class != Duplicate {
			continue
		}
		i := res.Index
		g.Go(func() error {
			gcd := new(big.Int)
			for j := range xs {
				if j == i {
					continue
				}
				if xs[i].Cmp(xs[j]) == 0 {
					// Report identical pairs once, from the lower index.
					if i < j {
						mu.Lock()
						out = append(out, Overlap{I: i, J: j})
						mu.Unlock()
					}
					continue
				}
				if gcd.GCD(nil, nil, xs[i], xs[j]).Cmp(oneInt) > 0 {
					o := Overlap{
						I: i,
						J: j,
						P: new(big.Int).Set(gcd),
					}
					o.Q = new(big.Int).Quo(xs[i], o.P)
					mu.Lock()
					out = append(out, o)
					mu.Unlock()
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
