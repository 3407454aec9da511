package linear

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gdreg/core/model"
	"github.com/YuminosukeSato/gdreg/core/parallel"
	"github.com/YuminosukeSato/gdreg/metrics"
	"github.com/YuminosukeSato/gdreg/pkg/errors"
	"github.com/YuminosukeSato/gdreg/pkg/log"
)

var _ model.Regressor = (*LinearRegression)(nil)

// LinearRegression は Cost と同じ目的関数を正規方程式で直接解く線形回帰モデル。
// 勾配降下法の収束先を確認するための参照実装として使う。
type LinearRegression struct {
	state *model.StateManager

	lambda    float64
	weights   *mat.VecDense // 重み（係数）
	intercept float64       // 切片

	logger log.Logger
}

// NewLinearRegression はL2正則化の強さlambdaを持つ線形回帰モデルを作成する。
// lambda=0 のときは通常の最小二乗法になる。
func NewLinearRegression(lambda float64) *LinearRegression {
	return &LinearRegression{
		state:  model.NewStateManager(),
		lambda: lambda,
		logger: log.GetLoggerWithName("linear").With(log.ModelNameKey, "LinearRegression"),
	}
}

// Fit はモデルを訓練データで学習させる。
//
// 切片は正則化しないため、X と y を中心化してから
// (Xcᵀ Xc + λI) w = Xcᵀ yc を解き、b = ȳ - x̄ᵀw とする。
// これは (1/2m)Σr² + (λ/2m)Σw² の最小解と一致する。
func (lr *LinearRegression) Fit(X mat.Matrix, y mat.Vector) (err error) {
	defer errors.Recover(&err, "LinearRegression.Fit")

	if err := validateLambda("LinearRegression.Fit", lr.lambda); err != nil {
		return err
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if y.Len() != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, y.Len(), 0)
	}

	yData := vectorData(y)
	yMean := floats.Sum(yData) / float64(r)
	xMean := make([]float64, c)
	for j := 0; j < c; j++ {
		xMean[j] = floats.Sum(mat.Col(nil, j, X)) / float64(r)
	}

	// 中心化した X と y を作成
	Xc := mat.NewDense(r, c, nil)
	yc := mat.NewVecDense(r, nil)
	parallel.ParallelizeWithThreshold(r, parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				Xc.Set(i, j, X.At(i, j)-xMean[j])
			}
			yc.SetVec(i, yData[i]-yMean)
		}
	})

	// A = Xcᵀ Xc + λI
	A := mat.NewSymDense(c, nil)
	A.SymOuterK(1, Xc.T())
	for j := 0; j < c; j++ {
		A.SetSym(j, j, A.At(j, j)+lr.lambda)
	}

	var rhs mat.VecDense
	rhs.MulVec(Xc.T(), yc)

	var chol mat.Cholesky
	if ok := chol.Factorize(A); !ok {
		lr.logger.Error("Normal equation is singular",
			errors.ErrSingularMatrix,
			log.OperationKey, log.OperationFit,
			log.RegularizationKey, lr.lambda,
		)
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}
	w := mat.NewVecDense(c, nil)
	if err := chol.SolveVecTo(w, &rhs); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.Wrap(errors.ErrSingularMatrix, err.Error()))
	}

	lr.weights = w
	lr.intercept = yMean - floats.Dot(xMean, w.RawVector().Data)
	lr.state.SetFitted(c, r)

	lr.logger.Debug("Normal equation solved",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.BiasKey, lr.intercept,
	)
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if err := lr.state.RequireFitted("LinearRegression", "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := lr.state.RequireFeatures("LinearRegression.Predict", c); err != nil {
		return nil, err
	}
	if r == 0 {
		return nil, errors.NewModelError("LinearRegression.Predict", "empty data", errors.ErrEmptyData)
	}

	// 予測: y = X * weights + intercept
	pred := mat.NewVecDense(r, nil)
	pred.MulVec(X, lr.weights)
	for i := 0; i < r; i++ {
		pred.SetVec(i, pred.AtVec(i)+lr.intercept)
	}
	return pred, nil
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X mat.Matrix, y mat.Vector) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(y, pred)
}

// Weights は学習された重み（係数）のコピーを返す
func (lr *LinearRegression) Weights() []float64 {
	if lr.weights == nil {
		return nil
	}
	return vectorData(lr.weights)
}

// Intercept は学習された切片を返す
func (lr *LinearRegression) Intercept() float64 {
	return lr.intercept
}
