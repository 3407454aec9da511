package linear

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gdreg/core/parallel"
	"github.com/YuminosukeSato/gdreg/metrics"
	"github.com/YuminosukeSato/gdreg/pkg/errors"
)

// lineData は y = 2x の3点データ
func lineData() (*mat.Dense, *mat.VecDense) {
	return mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewVecDense(3, []float64{2, 4, 6})
}

// randomData は y = X·trueW + 1 + ノイズ のデータを生成する
func randomData(rows, cols int, seed uint64) (*mat.Dense, *mat.VecDense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		sum := 1.0
		for j := 0; j < cols; j++ {
			v := rng.Float64()*2 - 1
			X.Set(i, j, v)
			sum += v * float64(j+1) * 0.5
		}
		y.SetVec(i, sum+(rng.Float64()-0.5)*0.1)
	}
	return X, y
}

func TestCost_KnownValues(t *testing.T) {
	X, y := lineData()
	w := mat.NewVecDense(1, []float64{1})

	// residuals -1, -2, -3
	cost, err := Cost(X, y, w, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 14.0/6.0, cost, 1e-12)

	// + lambda/(2m) * w² = 3/6
	cost, err = Cost(X, y, w, 0, 3)
	require.NoError(t, err)
	assert.InDelta(t, 14.0/6.0+0.5, cost, 1e-12)

	cost, err = Cost(X, y, mat.NewVecDense(1, []float64{2}), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cost)
}

func TestCost_ZeroLambdaIsHalfMSE(t *testing.T) {
	X, y := randomData(40, 3, 7)
	w := mat.NewVecDense(3, []float64{0.3, -0.2, 1.1})
	b := 0.4

	cost, err := Cost(X, y, w, b, 0)
	require.NoError(t, err)

	pred := mat.NewVecDense(40, nil)
	pred.MulVec(X, w)
	for i := 0; i < 40; i++ {
		pred.SetVec(i, pred.AtVec(i)+b)
	}
	mse, err := metrics.MSE(y, pred)
	require.NoError(t, err)
	assert.InDelta(t, mse/2, cost, 1e-12)
}

func TestCost_LargerLambdaRaisesCost(t *testing.T) {
	X, y := randomData(20, 2, 3)
	w := mat.NewVecDense(2, []float64{0.5, -0.5})

	prev := -1.0
	for _, lambda := range []float64{0, 0.1, 1, 10, 1000} {
		cost, err := Cost(X, y, w, 0, lambda)
		require.NoError(t, err)
		assert.Greater(t, cost, prev, "lambda=%v", lambda)
		prev = cost
	}
}

func TestCost_BiasIsNotRegularized(t *testing.T) {
	X, y := lineData()
	w := mat.NewVecDense(1, []float64{2})

	c0, err := Cost(X, y, w, 1, 0)
	require.NoError(t, err)
	c1, err := Cost(X, y, w, 1, 100)
	require.NoError(t, err)
	// only w contributes: 100/(2*3) * 4
	assert.InDelta(t, 400.0/6.0, c1-c0, 1e-9)
}

func TestCost_IdempotentAndPure(t *testing.T) {
	X, y := randomData(15, 2, 11)
	w := mat.NewVecDense(2, []float64{1, 2})
	XCopy, yCopy, wCopy := mat.DenseCopyOf(X), mat.VecDenseCopyOf(y), mat.VecDenseCopyOf(w)

	c1, err := Cost(X, y, w, 0.5, 2)
	require.NoError(t, err)
	c2, err := Cost(X, y, w, 0.5, 2)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)

	assert.True(t, mat.Equal(XCopy, X))
	assert.True(t, mat.Equal(yCopy, y))
	assert.True(t, mat.Equal(wCopy, w))
}

func TestCost_ParallelPathMatchesGenericPath(t *testing.T) {
	rows := parallel.DefaultThreshold*2 + 5
	X, y := randomData(rows, 4, 99)
	w := mat.NewVecDense(4, []float64{0.1, 0.2, 0.3, 0.4})

	dense, err := Cost(X, y, w, 0.7, 1.5)
	require.NoError(t, err)

	// mat.Transpose does not expose raw data, forcing the At-based path
	generic, err := Cost(mat.Transpose{Matrix: X.T()}, y, w, 0.7, 1.5)
	require.NoError(t, err)
	assert.InDelta(t, dense, generic, 1e-12)

	again, err := Cost(X, y, w, 0.7, 1.5)
	require.NoError(t, err)
	assert.Equal(t, dense, again, "parallel evaluation must be deterministic")
}

func TestGradient_KnownValues(t *testing.T) {
	X, y := lineData()

	// residuals -1, -2, -3: db = -2, dw = (-1-4-9)/3 = -14/3
	dw, db, err := Gradient(X, y, mat.NewVecDense(1, []float64{1}), 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, -2.0, db, 1e-12)
	assert.InDelta(t, -14.0/3.0, dw.AtVec(0), 1e-12)

	// lambda term: + 3/3 * 1
	dw, db, err = Gradient(X, y, mat.NewVecDense(1, []float64{1}), 0, 3)
	require.NoError(t, err)
	assert.InDelta(t, -2.0, db, 1e-12)
	assert.InDelta(t, -14.0/3.0+1, dw.AtVec(0), 1e-12)
}

func TestGradient_ZeroAtExactMinimizer(t *testing.T) {
	X, y := lineData()
	dw, db, err := Gradient(X, y, mat.NewVecDense(1, []float64{2}), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, db)
	assert.Equal(t, 0.0, dw.AtVec(0))
}

func TestGradient_ZeroAtRidgeSolution(t *testing.T) {
	X, y := randomData(50, 3, 5)
	for _, lambda := range []float64{0, 2, 50} {
		lr := NewLinearRegression(lambda)
		require.NoError(t, lr.Fit(X, y))

		w := mat.NewVecDense(3, lr.Weights())
		dw, db, err := Gradient(X, y, w, lr.Intercept(), lambda)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, db, 1e-9, "lambda=%v", lambda)
		assert.InDelta(t, 0.0, mat.Norm(dw, 2), 1e-9, "lambda=%v", lambda)
	}
}

func TestGradient_MatchesFiniteDifferences(t *testing.T) {
	X, y := randomData(25, 3, 17)
	w := mat.NewVecDense(3, []float64{0.2, -0.4, 0.9})
	b, lambda, h := 0.3, 1.7, 1e-6

	dw, db, err := Gradient(X, y, w, b, lambda)
	require.NoError(t, err)

	for j := 0; j < 3; j++ {
		plus, minus := mat.VecDenseCopyOf(w), mat.VecDenseCopyOf(w)
		plus.SetVec(j, w.AtVec(j)+h)
		minus.SetVec(j, w.AtVec(j)-h)
		cp, err := Cost(X, y, plus, b, lambda)
		require.NoError(t, err)
		cm, err := Cost(X, y, minus, b, lambda)
		require.NoError(t, err)
		assert.InDelta(t, (cp-cm)/(2*h), dw.AtVec(j), 1e-6, "dw[%d]", j)
	}

	cp, err := Cost(X, y, w, b+h, lambda)
	require.NoError(t, err)
	cm, err := Cost(X, y, w, b-h, lambda)
	require.NoError(t, err)
	assert.InDelta(t, (cp-cm)/(2*h), db, 1e-6)
}

func TestGradient_IdempotentAndFresh(t *testing.T) {
	X, y := randomData(10, 2, 23)
	w := mat.NewVecDense(2, []float64{1, -1})
	wCopy := mat.VecDenseCopyOf(w)

	dw1, db1, err := Gradient(X, y, w, 0.2, 1)
	require.NoError(t, err)
	dw2, db2, err := Gradient(X, y, w, 0.2, 1)
	require.NoError(t, err)

	assert.Equal(t, db1, db2)
	assert.True(t, mat.Equal(dw1, dw2))
	assert.NotSame(t, dw1, dw2)
	assert.True(t, mat.Equal(wCopy, w))
}

func TestCostGradient_InputErrors(t *testing.T) {
	X3 := mat.NewDense(3, 1, []float64{1, 2, 3})
	y2 := mat.NewVecDense(2, []float64{1, 2})
	y3 := mat.NewVecDense(3, []float64{1, 2, 3})
	w1 := mat.NewVecDense(1, []float64{1})
	w2 := mat.NewVecDense(2, []float64{1, 1})

	tests := []struct {
		name string
		X    mat.Matrix
		y    mat.Vector
		w    mat.Vector
		axis int
	}{
		{"rows of X differ from len(y)", X3, y2, w1, 0},
		{"cols of X differ from len(w)", X3, y3, w2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dim *errors.DimensionError

			_, err := Cost(tt.X, tt.y, tt.w, 0, 0)
			require.True(t, errors.As(err, &dim))
			assert.Equal(t, tt.axis, dim.Axis)

			dw, _, err := Gradient(tt.X, tt.y, tt.w, 0, 0)
			assert.Nil(t, dw)
			require.True(t, errors.As(err, &dim))
			assert.Equal(t, tt.axis, dim.Axis)
			assert.Equal(t, "Gradient", dim.Op)
		})
	}

	_, err := Cost(X3, y3, w1, 0, -1)
	var hpErr *errors.InvalidHyperparameterError
	require.True(t, errors.As(err, &hpErr))
	assert.Equal(t, "lambda", hpErr.Param)

	_, _, err = Gradient(&mat.Dense{}, &mat.VecDense{}, &mat.VecDense{}, 0, 0)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}
