// Package report writes the human-facing outputs of a run: compromised.csv
// with the recovered factors, duplicates.csv with the full-overlap
// identifiers, and a logged summary.
package report

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/fvial/batchgcd/pkg/batchgcd"
)

const (
	CompromisedFile = "compromised.csv"
	DuplicatesFile  = "duplicates.csv"
)

// WriteFiles writes the result files under dir, creating it if needed.
// compromised.csv rows are `id,p,q` with decimal factors; duplicates.csv
// rows are `id,fingerprint`, the fingerprint grouping identical values that
// carry different identifiers.
func WriteFiles(dir string, rep *batchgcd.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create output dir %q", dir)
	}

	err := writeLines(filepath.Join(dir, CompromisedFile), func(w *bufio.Writer) error {
		for _, r := range rep.Results {
			if r.Class != batchgcd.Compromised {
				continue
			}
			id := rep.Moduli[r.Index].ID
			if _, err := fmt.Fprintf(w, "%s,%s,%s\n", id, r.P.Text(10), r.Q.Text(10)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return writeLines(filepath.Join(dir, DuplicatesFile), func(w *bufio.Writer) error {
		for _, r := range rep.Results {
			if r.Class != batchgcd.Duplicate {
				continue
			}
			m := rep.Moduli[r.Index]
			fp := hex.EncodeToString(m.Fingerprint[:])
			if _, err := fmt.Fprintf(w, "%s,%s\n", m.ID, fp); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeLines(path string, fill func(*bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %q", path)
	}
	w := bufio.NewWriter(f)
	if err := fill(w); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "write %q", path)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "write %q", path)
	}
	return errors.Wrapf(f.Close(), "close %q", path)
}

// LogSummary logs the aggregate counts of a run.
func LogSummary(rep *batchgcd.Report) {
	log.Infof("target moduli:      %d", len(rep.Results))
	log.Infof("clean:              %d", rep.Clean)
	log.Infof("duplicates:         %d", rep.Duplicates)
	log.Infof("compromised:        %d", rep.Compromised)
	log.Infof("anomalies:          %d", rep.Anomalies)
	if rep.Duplicates > 0 {
		log.Info("duplicates either repeat a value in the input or share factors " +
			"with several moduli; resolve them with a pairwise scan or filter " +
			"the input and rerun")
	}
	if rep.Anomalies > 0 {
		log.Warn("anomalies indicate a propagation defect or corrupted level storage")
	}
}
