// Package batchgcd finds shared prime factors across a set of RSA moduli
// using Bernstein's batch-GCD algorithm: a bottom-up product tree over the
// inputs followed by a top-down remainder tree, costing O(n log n)
// big-integer operations instead of O(n²) pairwise GCDs.
//
// Tree levels are persisted through a store as they are produced, so peak
// memory stays near the size of one level rather than the whole tree.
package batchgcd

import (
	"fmt"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/pkg/errors"
)

// ErrEmptyInput is returned when the input set has no moduli.
var ErrEmptyInput = errors.New("batchgcd: empty input set")

// ExactnessViolation reports a leaf whose remainder is not divisible by its
// own modulus. The algorithm guarantees exact divisibility, so a violation
// means a propagation defect or corrupted storage; it is surfaced per leaf,
// never silently corrected.
type ExactnessViolation struct {
	Index int
}

func (e *ExactnessViolation) Error() string {
	return fmt.Sprintf("batchgcd: leaf %d remainder not divisible by its modulus", e.Index)
}

// Class is the outcome of finalizing one leaf.
type Class int

const (
	// Clean means no factor shared with any other modulus in the set.
	Clean Class = iota
	// Duplicate means the gcd equals the whole modulus: the value appears
	// more than once in the set, or shares factors with several others.
	// ResolveOverlaps distinguishes the two.
	Duplicate
	// Compromised means a proper factor is shared with another modulus.
	Compromised
	// Anomaly means the exactness invariant failed for this leaf.
	Anomaly
)

func (c Class) String() string {
	switch c {
	case Clean:
		return "clean"
	case Duplicate:
		return "duplicate"
	case Compromised:
		return "compromised"
	case Anomaly:
		return "anomaly"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Result is the classification of one input modulus.
type Result struct {
	Index   int
	Class   Class
	Modulus *big.Int

	// P and Q are the recovered factors, set only for Compromised.
	P, Q *big.Int

	// Err describes the invariant failure for an Anomaly result.
	Err error
}

// Verify checks that the recovered factors multiply back to the modulus.
// Results other than Compromised are trivially consistent.
func (r *Result) Verify() bool {
	if r.Class != Compromised {
		return true
	}
	if r.P == nil || r.Q == nil {
		return false
	}
	p := new(saferith.Nat).SetBytes(r.P.Bytes())
	q := new(saferith.Nat).SetBytes(r.Q.Bytes())
	n := new(saferith.Nat).SetBytes(r.Modulus.Bytes())
	return p.Mul(p, q, -1).Eq(n) == 1
}
