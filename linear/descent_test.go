package linear

import (
	"bytes"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gdreg/pkg/errors"
	"github.com/YuminosukeSato/gdreg/pkg/log"
)

// captureWarnings routes the global logger into a buffer for the duration of the test.
func captureWarnings(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetProvider(log.NewZerologProvider(&buf, log.LevelWarn))
	t.Cleanup(func() { log.SetProvider(log.NewZerologProvider(os.Stderr, log.LevelInfo)) })
	return &buf
}

func TestDescend_ConvergesOnLine(t *testing.T) {
	X, y := lineData()
	w0 := mat.NewVecDense(1, nil)

	res, err := Descend(X, y, w0, 0, Hyperparams{Lambda: 0, Alpha: 0.1, Iterations: 1000})
	require.NoError(t, err)

	assert.InDelta(t, 2.0, res.Weights.AtVec(0), 1e-3)
	assert.InDelta(t, 0.0, res.Bias, 1e-3)
	assert.Equal(t, 1000, res.Iterations)
	require.Len(t, res.CostHistory, 1000)
	for i := 1; i < len(res.CostHistory); i++ {
		require.Less(t, res.CostHistory[i], res.CostHistory[i-1], "cost must strictly decrease at iteration %d", i)
	}
	assert.False(t, res.Unstable)
	assert.Equal(t, -1, res.FirstNonFinite)
	assert.Equal(t, res.CostHistory[999], res.FinalCost())
}

func TestDescend_MatchesClosedForm(t *testing.T) {
	X, y := randomData(60, 3, 31)
	lambda := 2.0

	lr := NewLinearRegression(lambda)
	require.NoError(t, lr.Fit(X, y))

	res, err := Descend(X, y, mat.NewVecDense(3, nil), 0, Hyperparams{Lambda: lambda, Alpha: 0.5, Iterations: 5000})
	require.NoError(t, err)

	assert.InDeltaSlice(t, lr.Weights(), res.Weights.RawVector().Data, 1e-6)
	assert.InDelta(t, lr.Intercept(), res.Bias, 1e-6)
}

func TestDescend_StrongRegularizationShrinksWeights(t *testing.T) {
	X, y := lineData()
	run := func(lambda float64) float64 {
		res, err := Descend(X, y, mat.NewVecDense(1, nil), 0, Hyperparams{Lambda: lambda, Alpha: 0.001, Iterations: 5000})
		require.NoError(t, err)
		return math.Abs(res.Weights.AtVec(0))
	}

	free := run(0)
	shrunk := run(1000)
	assert.Less(t, shrunk, free)
	assert.Less(t, shrunk, 0.05)
}

func TestDescend_DoesNotMutateInputs(t *testing.T) {
	X, y := randomData(10, 2, 41)
	w0 := mat.NewVecDense(2, []float64{0.5, 0.5})
	XCopy, yCopy, w0Copy := mat.DenseCopyOf(X), mat.VecDenseCopyOf(y), mat.VecDenseCopyOf(w0)

	res, err := Descend(X, y, w0, 0, Hyperparams{Lambda: 1, Alpha: 0.1, Iterations: 50})
	require.NoError(t, err)

	assert.True(t, mat.Equal(XCopy, X))
	assert.True(t, mat.Equal(yCopy, y))
	assert.True(t, mat.Equal(w0Copy, w0))
	assert.False(t, mat.Equal(w0, res.Weights))
}

func TestDescend_Deterministic(t *testing.T) {
	X, y := randomData(3000, 3, 43)
	hp := Hyperparams{Lambda: 0.5, Alpha: 0.2, Iterations: 30}

	a, err := Descend(X, y, mat.NewVecDense(3, nil), 0, hp)
	require.NoError(t, err)
	b, err := Descend(X, y, mat.NewVecDense(3, nil), 0, hp)
	require.NoError(t, err)

	assert.Equal(t, a.CostHistory, b.CostHistory)
	assert.Equal(t, a.Weights.RawVector().Data, b.Weights.RawVector().Data)
	assert.Equal(t, a.Bias, b.Bias)
}

func TestDescend_HistoryEvery(t *testing.T) {
	X, y := lineData()
	full, err := Descend(X, y, mat.NewVecDense(1, nil), 0, Hyperparams{Alpha: 0.1, Iterations: 10})
	require.NoError(t, err)

	sampled, err := Descend(X, y, mat.NewVecDense(1, nil), 0, Hyperparams{Alpha: 0.1, Iterations: 10}, WithHistoryEvery(3))
	require.NoError(t, err)

	// iterations 3, 6, 9 and the final one
	assert.Equal(t, []float64{full.CostHistory[2], full.CostHistory[5], full.CostHistory[8], full.CostHistory[9]}, sampled.CostHistory)
	assert.Equal(t, full.Weights.AtVec(0), sampled.Weights.AtVec(0))

	_, err = Descend(X, y, mat.NewVecDense(1, nil), 0, Hyperparams{Alpha: 0.1, Iterations: 10}, WithHistoryEvery(0))
	var hpErr *errors.InvalidHyperparameterError
	require.True(t, errors.As(err, &hpErr))
	assert.Equal(t, "history_interval", hpErr.Param)
}

func TestDescend_Progress(t *testing.T) {
	X, y := lineData()
	logger, _ := log.NewTestLogger(log.LevelDebug)

	var seen []Progress
	res, err := Descend(X, y, mat.NewVecDense(1, nil), 0, Hyperparams{Alpha: 0.1, Iterations: 25},
		WithProgress(func(p Progress) { seen = append(seen, p) }),
		WithDescentLogger(logger),
	)
	require.NoError(t, err)

	// ceil(25/10) = 3: iterations 0, 3, ..., 24
	require.Len(t, seen, 9)
	for k, p := range seen {
		assert.Equal(t, 3*k, p.Iteration)
		assert.Equal(t, res.CostHistory[p.Iteration], p.Cost)
		require.Len(t, p.Weights, 1)
	}
	assert.Len(t, logger.EntriesWithMessage("Descent progress"), 9)
	assert.True(t, logger.ContainsMessage("Descent completed"))
	assert.True(t, logger.ContainsField(log.OperationKey, log.OperationDescend))
}

func TestDescend_DivergenceIsReportedNotFailed(t *testing.T) {
	buf := captureWarnings(t)
	X, y := lineData()

	res, err := Descend(X, y, mat.NewVecDense(1, nil), 0, Hyperparams{Alpha: 10, Iterations: 500})
	require.NoError(t, err)

	assert.Len(t, res.CostHistory, 500)
	assert.True(t, res.Unstable)
	assert.GreaterOrEqual(t, res.FirstNonFinite, 0)
	c := res.CostHistory[res.FirstNonFinite]
	assert.True(t, math.IsNaN(c) || math.IsInf(c, 0))
	assert.Contains(t, buf.String(), "NumericalInstabilityError")
}

func TestDescend_RisingCostWarns(t *testing.T) {
	buf := captureWarnings(t)
	X, y := lineData()

	res, err := Descend(X, y, mat.NewVecDense(1, nil), 0, Hyperparams{Alpha: 0.5, Iterations: 20})
	require.NoError(t, err)

	assert.False(t, res.Unstable)
	assert.Greater(t, res.FinalCost(), res.CostHistory[0])
	assert.Contains(t, buf.String(), "ConvergenceWarning")
}

func TestDescend_InvalidHyperparams(t *testing.T) {
	X, y := lineData()
	w0 := mat.NewVecDense(1, nil)

	tests := []struct {
		name  string
		hp    Hyperparams
		param string
	}{
		{"zero alpha", Hyperparams{Alpha: 0, Iterations: 10}, "alpha"},
		{"negative alpha", Hyperparams{Alpha: -0.1, Iterations: 10}, "alpha"},
		{"NaN alpha", Hyperparams{Alpha: math.NaN(), Iterations: 10}, "alpha"},
		{"infinite alpha", Hyperparams{Alpha: math.Inf(1), Iterations: 10}, "alpha"},
		{"zero iterations", Hyperparams{Alpha: 0.1, Iterations: 0}, "iterations"},
		{"negative iterations", Hyperparams{Alpha: 0.1, Iterations: -5}, "iterations"},
		{"negative lambda", Hyperparams{Alpha: 0.1, Iterations: 10, Lambda: -1}, "lambda"},
		{"NaN lambda", Hyperparams{Alpha: 0.1, Iterations: 10, Lambda: math.NaN()}, "lambda"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Descend(X, y, w0, 0, tt.hp)
			assert.Nil(t, res)
			var hpErr *errors.InvalidHyperparameterError
			require.True(t, errors.As(err, &hpErr))
			assert.Equal(t, tt.param, hpErr.Param)
		})
	}
}

func TestDescend_DimensionMismatch(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewVecDense(2, []float64{2, 4})

	res, err := Descend(X, y, mat.NewVecDense(1, nil), 0, DefaultHyperparams())
	assert.Nil(t, res)
	var dim *errors.DimensionError
	require.True(t, errors.As(err, &dim))
	assert.Equal(t, 0, dim.Axis)
	assert.Equal(t, 3, dim.Expected)
	assert.Equal(t, 2, dim.Got)

	_, err = Descend(X, mat.NewVecDense(3, nil), mat.NewVecDense(2, nil), 0, DefaultHyperparams())
	require.True(t, errors.As(err, &dim))
	assert.Equal(t, 1, dim.Axis)
}

func TestDescend_EmptyData(t *testing.T) {
	_, err := Descend(&mat.Dense{}, &mat.VecDense{}, &mat.VecDense{}, 0, DefaultHyperparams())
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}
