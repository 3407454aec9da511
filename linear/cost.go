// Package linear は正則化付き線形回帰の最適化を提供します。
//
// Cost と Gradient は L2 正則化付き二乗誤差コストとその勾配を計算し、
// Descend は固定回数のフルバッチ勾配降下法を実行します。GDRegressor は
// それらを Fit/Predict 形式の推定器としてまとめ、LinearRegression は同じ
// 目的関数を正規方程式で解く参照実装です。
package linear

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gdreg/core/parallel"
	"github.com/YuminosukeSato/gdreg/pkg/errors"
)

// problem は検証済みの (X, y) の組。行数m、特徴量数nは確定している。
type problem struct {
	X mat.Matrix
	y []float64
	m int
	n int

	// dense はXが行優先の生データを公開している場合に設定される
	dense mat.RawMatrixer
}

// newProblem は X, y, w の次元を検証する。
// 行数はyの長さ(axis 0)、列数はwの長さ(axis 1)と一致しなければならない。
func newProblem(op string, X mat.Matrix, y, w mat.Vector) (*problem, []float64, error) {
	if X == nil || y == nil || w == nil {
		return nil, nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	m, n := X.Dims()
	if m == 0 || n == 0 {
		return nil, nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if y.Len() != m {
		return nil, nil, errors.NewDimensionError(op, m, y.Len(), 0)
	}
	if w.Len() != n {
		return nil, nil, errors.NewDimensionError(op, n, w.Len(), 1)
	}

	p := &problem{
		X: X,
		y: vectorData(y),
		m: m,
		n: n,
	}
	if rm, ok := X.(mat.RawMatrixer); ok {
		p.dense = rm
	}
	return p, vectorData(w), nil
}

// residuals は r_i = dot(X_i, w) + b - y_i を dst に書き込む。
// 各行は自分の要素だけに書き込むため、並列実行しても結果は逐次と同一。
func (p *problem) residuals(w []float64, b float64, dst []float64) {
	if p.dense != nil {
		raw := p.dense.RawMatrix()
		parallel.ForEachRow(p.m, func(i int) {
			row := raw.Data[i*raw.Stride : i*raw.Stride+p.n]
			dst[i] = floats.Dot(row, w) + b - p.y[i]
		})
		return
	}
	parallel.ForEachRow(p.m, func(i int) {
		s := b
		for j := 0; j < p.n; j++ {
			s += p.X.At(i, j) * w[j]
		}
		dst[i] = s - p.y[i]
	})
}

// cost は J = (1/2m)Σr² + (λ/2m)Σw² を返す。バイアスは正則化しない。
func (p *problem) cost(w []float64, b, lambda float64, r []float64) float64 {
	p.residuals(w, b, r)
	m := float64(p.m)
	return floats.Dot(r, r)/(2*m) + lambda/(2*m)*floats.Dot(w, w)
}

// Cost は正則化付き二乗誤差コストを計算する。
//
//	J(w, b) = (1/2m) Σ_i (dot(X_i, w) + b - y_i)² + (λ/2m) Σ_j w_j²
//
// 入力はいずれも変更しない。λ=0 のときは平均二乗誤差の半分に等しい。
func Cost(X mat.Matrix, y, w mat.Vector, b, lambda float64) (cost float64, err error) {
	defer errors.Recover(&err, "Cost")

	if err := validateLambda("Cost", lambda); err != nil {
		return 0, err
	}
	p, wData, err := newProblem("Cost", X, y, w)
	if err != nil {
		return 0, err
	}
	return p.cost(wData, b, lambda, make([]float64, p.m)), nil
}

func validateLambda(op string, lambda float64) error {
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		return errors.NewInvalidHyperparameterError(op, "lambda", "must be finite", lambda)
	}
	if lambda < 0 {
		return errors.NewInvalidHyperparameterError(op, "lambda", "must be non-negative", lambda)
	}
	return nil
}

// vectorData は mat.Vector の内容を新しいスライスにコピーする。
func vectorData(v mat.Vector) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
