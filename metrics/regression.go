// Package metrics は回帰モデルの評価指標を提供する。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/gdreg/pkg/errors"
)

// residuals は入力を検証し、yTrue と yPred のコピーおよび差分 yTrue - yPred を返す
func residuals(op string, yTrue, yPred mat.Vector) (t, p, diff []float64, err error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, nil, nil, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return nil, nil, nil, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}

	t = make([]float64, n)
	p = make([]float64, n)
	for i := 0; i < n; i++ {
		t[i] = yTrue.AtVec(i)
		p[i] = yPred.AtVec(i)
	}
	diff = make([]float64, n)
	floats.SubTo(diff, t, p)
	return t, p, diff, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred mat.Vector) (float64, error) {
	_, _, diff, err := residuals("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	// MSE = (1/n) * Σ(yTrue - yPred)²
	return floats.Dot(diff, diff) / float64(len(diff)), nil
}

// MSEMatrix は n×1 行列形式の入力に対してMSEを計算する
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("MSEMatrix", "empty matrix")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("MSEMatrix", rTrue, rPred, 0)
	}
	if cTrue != 1 || cPred != 1 {
		return 0, errors.NewValueError("MSEMatrix", "must be a column vector (n×1 matrix)")
	}

	return MSE(mat.NewVecDense(rTrue, mat.Col(nil, 0, yTrue)), mat.NewVecDense(rPred, mat.Col(nil, 0, yPred)))
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred mat.Vector) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred mat.Vector) (float64, error) {
	_, _, diff, err := residuals("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	// MAE = (1/n) * Σ|yTrue - yPred|
	return floats.Norm(diff, 1) / float64(len(diff)), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred mat.Vector) (float64, error) {
	t, _, diff, err := residuals("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	yMean := stat.Mean(t, nil)
	var tss float64
	for _, v := range t {
		tss += (v - yMean) * (v - yMean)
	}
	// 全変動が0の場合（すべてのyTrueが同じ値）
	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}

	// R² = 1 - RSS/TSS
	return 1 - floats.Dot(diff, diff)/tss, nil
}

// MAPE は平均絶対パーセンテージ誤差を計算する。yTrue が0のサンプルは除外する。
func MAPE(yTrue, yPred mat.Vector) (float64, error) {
	t, _, diff, err := residuals("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MAPE = (100/n) * Σ|yTrue - yPred|/|yTrue|
	var sum float64
	validCount := 0
	for i, v := range t {
		if v != 0 {
			sum += math.Abs(diff[i]) / math.Abs(v)
			validCount++
		}
	}
	if validCount == 0 {
		return 0, errors.NewValueError("MAPE", "all yTrue values are zero")
	}

	return (sum / float64(validCount)) * 100, nil
}

// ExplainedVarianceScore は説明分散スコア 1 - Var(yTrue - yPred) / Var(yTrue) を計算する
func ExplainedVarianceScore(yTrue, yPred mat.Vector) (float64, error) {
	t, _, diff, err := residuals("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	_, varYTrue := stat.PopMeanVariance(t, nil)
	if varYTrue == 0 {
		return 0, errors.NewValueError("ExplainedVarianceScore", "no variance in yTrue")
	}
	_, varDiff := stat.PopMeanVariance(diff, nil)

	return 1 - varDiff/varYTrue, nil
}
