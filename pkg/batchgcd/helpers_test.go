package batchgcd

import (
	"testing"

	"github.com/fvial/batchgcd/pkg/pool"
)

func poolOf(t *testing.T, n int) *pool.Pool {
	t.Helper()
	pl := pool.New(n)
	t.Cleanup(pl.TearDown)
	return pl
}
