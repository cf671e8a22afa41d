package batchgcd

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/fvial/batchgcd/pkg/moduli"
	"github.com/fvial/batchgcd/pkg/pool"
	"github.com/fvial/batchgcd/pkg/store"
)

// Config carries the engine's external control parameters. There is no
// process-wide state: the worker count is passed here explicitly.
type Config struct {
	// Workers is the fixed worker-pool size shared by all phases. Must be
	// at least 1.
	Workers int
	// StorePath is the directory backing the level store for this run.
	StorePath string
}

// Report is the complete outcome of one run: a classification for every
// input leaf plus aggregate counts. Anomalies counts leaves that failed the
// exactness invariant; it is diagnostic and expected to be zero.
type Report struct {
	Moduli  []moduli.Modulus
	Results []Result
	Height  int

	Clean       int
	Duplicates  int
	Compromised int
	Anomalies   int
}

// Run executes the three phases over the input set: product tree (A),
// remainder tree (B) and finalization (C). Storage and invariant failures
// abort the run with an error naming the failed phase and level; per-leaf
// anomalies do not, and are tallied in the report instead.
func Run(cfg Config, ms []moduli.Modulus) (*Report, error) {
	if len(ms) == 0 {
		return nil, ErrEmptyInput
	}
	if cfg.Workers < 1 {
		return nil, errors.Errorf("batchgcd: worker count %d, want >= 1", cfg.Workers)
	}
	if len(ms) == 1 {
		log.Warn("single modulus: batch comparison is ineffective, expect a clean result")
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	pl := pool.New(cfg.Workers)
	defer pl.TearDown()

	start := time.Now()
	height, err := BuildProductTree(pl, st, moduli.Values(ms))
	if err != nil {
		return nil, errors.WithMessage(err, "product tree phase")
	}
	log.Infof("product tree: height %d over %d moduli in %v", height, len(ms), time.Since(start))

	start = time.Now()
	rems, err := PropagateRemainders(pl, st, height)
	if err != nil {
		return nil, errors.WithMessage(err, "remainder tree phase")
	}
	log.Infof("remainder tree: %d leaf remainders in %v", len(rems), time.Since(start))

	start = time.Now()
	results, err := Finalize(pl, st, rems)
	if err != nil {
		return nil, errors.WithMessage(err, "finalize phase")
	}
	log.Infof("finalize: %d leaves classified in %v", len(results), time.Since(start))

	rep := &Report{Moduli: ms, Results: results, Height: height}
	for i := range results {
		// A compromised result whose factors fail to multiply back is as
		// much a defect as a failed division.
		if !results[i].Verify() {
			results[i] = Result{
				Index:   results[i].Index,
				Class:   Anomaly,
				Modulus: results[i].Modulus,
				Err:     &ExactnessViolation{Index: results[i].Index},
			}
		}
		switch results[i].Class {
		case Clean:
			rep.Clean++
		case Duplicate:
			rep.Duplicates++
		case Compromised:
			rep.Compromised++
		case Anomaly:
			rep.Anomalies++
		}
	}
	if rep.Anomalies > 0 {
		log.Warnf("%d leaves failed the exactness invariant", rep.Anomalies)
	}
	return rep, nil
}
