// Command batchgcd scans a CSV of (ID, modulus) pairs for RSA moduli that
// share prime factors, using a disk-backed batch-GCD engine.
//
//	batchgcd [--base10] [--workers N] moduli.csv
//
// Results land in compromised.csv (`id,p,q`) and duplicates.csv.
package main

import (
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fvial/batchgcd/pkg/batchgcd"
	"github.com/fvial/batchgcd/pkg/moduli"
	"github.com/fvial/batchgcd/pkg/report"
)

var (
	settingsPath string
	flagSettings = defaultSettings()
)

var rootCmd = &cobra.Command{
	Use:   "batchgcd <moduli.csv>",
	Short: "Find shared prime factors across a set of RSA moduli",
	Long: `Reads <ID>,<modulus> lines (modulus in base 16, or base 10 with --base10)
and classifies every modulus as clean, duplicate or compromised using
Bernstein's batch-GCD algorithm. Product-tree levels are staged on disk, so
sets far larger than memory are fine.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runScan,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&settingsPath, "config", "", "TOML settings file")
	f.IntVar(&flagSettings.Workers, "workers", flagSettings.Workers, "worker pool size")
	f.BoolVar(&flagSettings.Base10, "base10", false, "parse moduli in base 10 instead of 16")
	f.StringVar(&flagSettings.Store, "store", "", "level store directory (default: temporary)")
	f.StringVar(&flagSettings.Out, "out", flagSettings.Out, "output directory for result files")
	f.BoolVar(&flagSettings.KeepStore, "keep-store", false, "keep persisted tree levels after the run")
	f.BoolVar(&flagSettings.Resolve, "resolve-overlaps", false, "pairwise-resolve full-overlap moduli")
	f.BoolVar(&flagSettings.Verbose, "verbose", false, "per-level debug logging")
}

// mergeSettings applies file settings, then any flag the user actually set.
func mergeSettings(cmd *cobra.Command) (Settings, error) {
	s, err := loadSettings(settingsPath)
	if err != nil {
		return s, err
	}
	f := cmd.Flags()
	if f.Changed("workers") {
		s.Workers = flagSettings.Workers
	}
	if f.Changed("base10") {
		s.Base10 = flagSettings.Base10
	}
	if f.Changed("store") {
		s.Store = flagSettings.Store
	}
	if f.Changed("out") {
		s.Out = flagSettings.Out
	}
	if f.Changed("keep-store") {
		s.KeepStore = flagSettings.KeepStore
	}
	if f.Changed("resolve-overlaps") {
		s.Resolve = flagSettings.Resolve
	}
	if f.Changed("verbose") {
		s.Verbose = flagSettings.Verbose
	}
	return s, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	s, err := mergeSettings(cmd)
	if err != nil {
		return err
	}
	if s.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	ms, err := moduli.ReadFile(args[0], s.base())
	if err != nil {
		return err
	}
	log.Infof("loaded %d moduli from %s", len(ms), args[0])

	storePath := s.Store
	if storePath == "" {
		dir, err := os.MkdirTemp("", "batchgcd-levels-")
		if err != nil {
			return err
		}
		storePath = filepath.Join(dir, "levels")
		if !s.KeepStore {
			defer os.RemoveAll(dir)
		}
	}

	rep, err := batchgcd.Run(batchgcd.Config{Workers: s.Workers, StorePath: storePath}, ms)
	if err != nil {
		return err
	}

	if s.Resolve && rep.Duplicates > 0 {
		logOverlaps(rep, s.Workers)
	}

	if err := report.WriteFiles(s.Out, rep); err != nil {
		return err
	}
	report.LogSummary(rep)
	log.Infof("results written to %s and %s",
		filepath.Join(s.Out, report.CompromisedFile),
		filepath.Join(s.Out, report.DuplicatesFile))
	return nil
}

func logOverlaps(rep *batchgcd.Report, workers int) {
	xs := moduli.Values(rep.Moduli)
	for _, o := range batchgcd.ResolveOverlaps(rep.Results, xs, workers) {
		if o.P == nil {
			log.Infof("overlap: %s and %s are identical",
				rep.Moduli[o.I].ID, rep.Moduli[o.J].ID)
			continue
		}
		log.Infof("overlap: %s shares factor %s with %s (cofactor %s)",
			rep.Moduli[o.I].ID, o.P.Text(10), rep.Moduli[o.J].ID, o.Q.Text(10))
	}
}

func main() {
	log.SetOutput(os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
