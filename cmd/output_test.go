package cmd

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impurity-sim/impurity-sim/qmc"
)

func sampleResults() *qmc.Results {
	return &qmc.Results{
		Beta:     2.0,
		NTauBins: 4,
		GTau: map[string][][][]float64{
			"up": {{{-0.5, -0.25, -0.25, -0.5}}},
		},
		PertOrder: map[string]*qmc.Histogram{
			"up": {Bins: []float64{10, 5, 1}, Samples: 16},
		},
		AverageSign: 1,
	}
}

func TestWriteGTau(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g_tau.csv")
	require.NoError(t, WriteGTau(path, sampleResults()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5, "header plus one row per bin")
	assert.Equal(t, []string{"block", "orb_ann", "orb_cre", "tau", "g"}, rows[0])

	// Bin centers: dtau = 0.5 puts the first row at tau = 0.25.
	assert.Equal(t, "up", rows[1][0])
	tau, err := strconv.ParseFloat(rows[1][3], 64)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, tau, 1e-12)
	g, err := strconv.ParseFloat(rows[1][4], 64)
	require.NoError(t, err)
	assert.InDelta(t, -0.5, g, 1e-12)
}

func TestWritePertOrderTables(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WritePertOrderTables(dir, sampleResults()))

	data, err := os.ReadFile(filepath.Join(dir, "histo_pert_order_up.dat"))
	require.NoError(t, err)
	assert.Equal(t, "0 10\n1 5\n2 1\n", string(data))
}

func TestWriteGTau_BadPath(t *testing.T) {
	err := WriteGTau(filepath.Join(t.TempDir(), "no", "such", "dir.csv"), sampleResults())
	assert.Error(t, err)
}
