package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/impurity-sim/impurity-sim/qmc"
)

// WriteGTau writes the normalized Green's function as one CSV with columns
// block, orb_ann, orb_cre, tau, g.
func WriteGTau(path string, res *qmc.Results) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"block", "orb_ann", "orb_cre", "tau", "g"}); err != nil {
		return err
	}
	dtau := res.Beta / float64(res.NTauBins)
	for block, g := range res.GTau {
		for oa := range g {
			for oc := range g[oa] {
				for k, v := range g[oa][oc] {
					tau := (float64(k) + 0.5) * dtau
					rec := []string{
						block,
						strconv.Itoa(oa),
						strconv.Itoa(oc),
						strconv.FormatFloat(tau, 'g', 12, 64),
						strconv.FormatFloat(v, 'g', 12, 64),
					}
					if err := w.Write(rec); err != nil {
						return err
					}
				}
			}
		}
	}
	return w.Error()
}

// WritePertOrderTables writes one labeled count table per block,
// histo_pert_order_<block>.dat, with "order count" lines.
func WritePertOrderTables(dir string, res *qmc.Results) error {
	for block, hist := range res.PertOrder {
		path := filepath.Join(dir, "histo_pert_order_"+block+".dat")
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		for order, count := range hist.Bins {
			if _, err := fmt.Fprintf(f, "%d %g\n", order, count); err != nil {
				f.Close()
				return err
			}
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

// PrintSummary logs the run diagnostics: acceptance rates per move and the
// mean perturbation order per block when measured.
func PrintSummary(res *qmc.Results) {
	logrus.Infof("total steps: %d, measurement cycles: %d", res.TotalSteps, res.TotalCycles)
	for name, r := range res.AcceptanceRate {
		logrus.Infof("%s: acceptance rate %.4f", name, r)
	}
	for block, hist := range res.PertOrder {
		logrus.Infof("block %s: mean perturbation order %.2f", block, hist.MeanIndex())
	}
}
