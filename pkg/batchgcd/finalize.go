package batchgcd

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/fvial/batchgcd/pkg/pool"
	"github.com/fvial/batchgcd/pkg/store"
)

// Finalize turns leaf remainders into per-leaf classifications.
//
// The leaf moduli are re-read from st: the builder owns (and may have freed)
// the original sequence. For each leaf it computes Qᵢ = Rᵢ/Xᵢ, which must
// divide exactly, then Dᵢ = gcd(Qᵢ, Xᵢ):
//
//	Dᵢ = 1     clean
//	Dᵢ = Xᵢ    duplicate (full overlap)
//	otherwise  compromised, factors Dᵢ and Xᵢ/Dᵢ
//
// A division remainder or a zero gcd violates the algorithm's exactness
// guarantee and yields an Anomaly result instead.
func Finalize(pl *pool.Pool, st *store.Store, rems []*big.Int) ([]Result, error) {
	xs, err := st.LoadLevel(0)
	if err != nil {
		return nil, err
	}
	if len(xs) != len(rems) {
		return nil, errors.Errorf("batchgcd: %d remainders for %d leaves", len(rems), len(xs))
	}

	results := make([]Result, len(xs))
	pl.Parallelize(len(xs), func(i int) interface{} {
		results[i] = classify(i, xs[i], rems[i])
		return nil
	})
	return results, nil
}

func classify(i int, x, r *big.Int) Result {
	res := Result{Index: i, Modulus: x}

	q, m := new(big.Int).QuoRem(r, x, new(big.Int))
	if m.Sign() != 0 {
		res.Class = Anomaly
		res.Err = &ExactnessViolation{Index: i}
		return res
	}

	// gcd(0, x) = x: Z is divisible by Xᵢ², so the whole modulus overlaps.
	// math/big's GCD would return 0 here, which the table reserves for
	// genuine anomalies.
	d := new(big.Int)
	if q.Sign() == 0 {
		d.Set(x)
	} else {
		d.GCD(nil, nil, q, x)
	}

	switch {
	case d.Sign() == 0:
		res.Class = Anomaly
		res.Err = &ExactnessViolation{Index: i}
	case d.Cmp(oneInt) == 0:
		res.Class = Clean
	case d.Cmp(x) == 0:
		res.Class = Duplicate
	default:
		res.Class = Compromised
		res.P = d
		res.Q = new(big.Int).Quo(x, d)
	}
	return res
}

var oneInt = big.NewInt(1)
