package qmc

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSolver(t *testing.T, beta, u, deltaAmp float64) *Solver {
	t.Helper()
	hloc := twoFlavorHamiltonian(t, -u/2, -u/2, u)
	delta, err := NewHybridization(beta, testStructure(), 256, func(b, i, j int, tau float64) float64 {
		return -deltaAmp * math.Exp(-0.5*tau) / (1 + math.Exp(-0.5*beta))
	})
	require.NoError(t, err)
	s, err := NewSolver(beta, testStructure(), hloc, delta)
	require.NoError(t, err)
	return s
}

func TestNewSolver_Validation(t *testing.T) {
	beta := 2.0
	hloc := twoFlavorHamiltonian(t, 0, 0, 1)
	delta, err := NewHybridization(beta, testStructure(), 64, func(b, i, j int, tau float64) float64 { return -0.1 })
	require.NoError(t, err)

	_, err = NewSolver(-1, testStructure(), hloc, delta)
	assert.Error(t, err, "negative beta")

	_, err = NewSolver(3.0, testStructure(), hloc, delta)
	assert.Error(t, err, "beta mismatch with hybridization")

	oneBlock := BlockStructure{{Name: "up", NOrbital: 1}}
	_, err = NewSolver(beta, oneBlock, hloc, delta)
	assert.Error(t, err, "block count mismatch")
}

func TestSolver_SolveEndToEnd(t *testing.T) {
	s := testSolver(t, 4.0, 2.0, 1.0)
	p := RunParameters{
		NCycles:          200,
		LengthCycle:      20,
		NWarmupCycles:    100,
		RandomSeed:       1234,
		Verbosity:        0,
		MeasureGTau:      true,
		MeasurePertOrder: true,
		NTauBins:         40,
		CheckCycle:       50,
	}

	res, err := s.Solve(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, int64(200), res.TotalCycles)
	assert.Equal(t, int64((100+200)*20), res.TotalSteps)
	assert.False(t, res.StoppedEarly)
	assert.InDelta(t, 1.0, res.AverageSign, 1e-12)

	require.Len(t, res.GTau, 2)
	for _, desc := range testStructure() {
		g := res.GTau[desc.Name]
		require.Len(t, g, 1)
		require.Len(t, g[0], 1)
		require.Len(t, g[0][0], 40)

		h := res.PertOrder[desc.Name]
		require.NotNil(t, h)
		assert.Equal(t, int64(200), h.Samples)

		assert.Contains(t, res.AcceptanceRate, "Insert Delta_"+desc.Name)
		assert.Contains(t, res.AcceptanceRate, "Remove Delta_"+desc.Name)
	}

	// The impurity is coupled: G must not vanish identically and the
	// estimator convention gives G(τ) <= 0 on (0, β).
	g := res.GTau["up"][0][0]
	sum := 0.0
	for _, v := range g {
		sum += v
	}
	assert.NotZero(t, sum)
	assert.Negative(t, sum)

	require.NotNil(t, res.Raw)
	assert.Equal(t, res.TotalCycles, res.Raw.Cycles)
}

func TestSolver_SolveMultiWorker(t *testing.T) {
	s := testSolver(t, 2.0, 1.0, 0.5)
	p := RunParameters{
		NCycles:          50,
		LengthCycle:      10,
		NWarmupCycles:    20,
		Verbosity:        0,
		NWorkers:         3,
		MeasureGTau:      true,
		MeasurePertOrder: true,
		NTauBins:         10,
	}

	res, err := s.Solve(context.Background(), p)
	require.NoError(t, err)

	// Three chains of 50 cycles each reduce into one total.
	assert.Equal(t, int64(3*50), res.TotalCycles)
	assert.Equal(t, int64(3*(20+50)*10), res.TotalSteps)
	for _, desc := range testStructure() {
		assert.Equal(t, int64(3*50), res.PertOrder[desc.Name].Samples)
	}
}

func TestSolver_SolveBudgetExhausted(t *testing.T) {
	s := testSolver(t, 2.0, 1.0, 0.5)
	p := RunParameters{
		NCycles:     1 << 40, // far beyond any budget
		LengthCycle: 10,
		Verbosity:   0,
		MaxTime:     0,
	}

	res, err := s.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, res.StoppedEarly)
	assert.Zero(t, res.TotalCycles)
	assert.Zero(t, res.AverageSign)
}

func TestSolver_SolveRejectsBadParameters(t *testing.T) {
	s := testSolver(t, 2.0, 1.0, 0.5)

	_, err := s.Solve(context.Background(), RunParameters{})
	require.Error(t, err)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "n_cycles", cfgErr.Field)
}

func TestWorkerSeed(t *testing.T) {
	p := RunParameters{}
	assert.Equal(t, DefaultSeed(0), workerSeed(p, 0))
	assert.Equal(t, DefaultSeed(3), workerSeed(p, 3))

	p.RandomSeed = 777
	assert.Equal(t, int64(777), workerSeed(p, 0))
	assert.Equal(t, int64(777+2*928374), workerSeed(p, 2))
}
