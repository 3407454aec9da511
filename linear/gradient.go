package linear

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gdreg/pkg/errors"
)

// gradient は残差 r を計算したうえで dw を dst に書き込み、db を返す。
//
//	db   = (1/m) Σ_i r_i
//	dw_j = (1/m) Σ_i r_i X[i,j] + (λ/m) w_j
func (p *problem) gradient(w []float64, b, lambda float64, r, dst []float64) float64 {
	p.residuals(w, b, r)
	m := float64(p.m)

	dw := mat.NewVecDense(p.n, dst)
	dw.MulVec(p.X.T(), mat.NewVecDense(p.m, r))
	floats.Scale(1/m, dst)
	floats.AddScaled(dst, lambda/m, w)

	return floats.Sum(r) / m
}

// Gradient は Cost の w と b に関する偏微分を計算する。
// 戻り値の dw は新しく確保されたベクトルで、入力はいずれも変更しない。
func Gradient(X mat.Matrix, y, w mat.Vector, b, lambda float64) (dw *mat.VecDense, db float64, err error) {
	defer errors.Recover(&err, "Gradient")

	if err := validateLambda("Gradient", lambda); err != nil {
		return nil, 0, err
	}
	p, wData, err := newProblem("Gradient", X, y, w)
	if err != nil {
		return nil, 0, err
	}

	dst := make([]float64, p.n)
	db = p.gradient(wData, b, lambda, make([]float64, p.m), dst)
	return mat.NewVecDense(p.n, dst), db, nil
}
