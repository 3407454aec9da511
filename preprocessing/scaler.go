// Package preprocessing provides z-score feature normalization.
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/gdreg/core/model"
	"github.com/YuminosukeSato/gdreg/pkg/errors"
	"github.com/YuminosukeSato/gdreg/pkg/log"
)

// StandardScaler は特徴量を平均0、標準偏差1に変換する標準化スケーラー。
// 標準偏差は母標準偏差（mで割る）を用いる。
type StandardScaler struct {
	state *model.StateManager

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差
	Scale []float64

	logger log.Logger
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler()
//	XScaled, err := scaler.FitTransform(X)
//	XTestScaled, err := scaler.Transform(XTest)
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{
		state:  model.NewStateManager(),
		logger: log.GetLoggerWithName("preprocessing").With(log.ModelNameKey, "StandardScaler"),
	}
}

// NewStandardScalerFromStats は保存済みの平均・標準偏差から学習済みスケーラーを復元する
func NewStandardScalerFromStats(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 {
		return nil, errors.NewModelError("StandardScaler.FromStats", "empty data", errors.ErrEmptyData)
	}
	if len(mean) != len(scale) {
		return nil, errors.NewDimensionError("StandardScaler.FromStats", len(mean), len(scale), 1)
	}
	for j, sigma := range scale {
		if !(sigma > 0) || math.IsInf(sigma, 0) {
			return nil, errors.NewDegenerateFeatureError("StandardScaler.FromStats", j, mean[j])
		}
	}

	s := NewStandardScaler()
	s.Mean = append([]float64(nil), mean...)
	s.Scale = append([]float64(nil), scale...)
	s.state.SetFitted(len(mean), 0)
	return s, nil
}

// Normalize はXの各列を平均0、母標準偏差1に変換した新しい行列を返す。
// Xは変更しない。標準偏差がゼロの列があればDegenerateFeatureErrorを返す。
func Normalize(X mat.Matrix) (*mat.Dense, error) {
	return NewStandardScaler().FitTransform(X)
}

// IsFitted はスケーラーが学習済みかどうかを返す
func (s *StandardScaler) IsFitted() bool {
	return s.state.IsFitted()
}

// Fit は訓練データから統計情報（平均、標準偏差）を計算する
func (s *StandardScaler) Fit(X mat.Matrix) (err error) {
	defer errors.Recover(&err, "StandardScaler.Fit")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if err := errors.CheckMatrix("StandardScaler.Fit", X, r, c, 0); err != nil {
		return err
	}

	mean := make([]float64, c)
	scale := make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean[j], scale[j] = stat.PopMeanStdDev(col, nil)
		if isConstant(col, scale[j]) {
			s.logger.Error("Degenerate feature column",
				log.OperationKey, log.OperationFit,
				log.ColumnKey, j,
			)
			return errors.NewDegenerateFeatureError("StandardScaler.Fit", j, mean[j])
		}
	}

	s.Mean = mean
	s.Scale = scale
	s.state.SetFitted(c, r)

	s.logger.Debug("Scaler fitted",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhasePreprocessing,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.state.RequireFitted("StandardScaler", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.state.RequireFeatures("StandardScaler.Transform", c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.state.RequireFitted("StandardScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.state.RequireFeatures("StandardScaler.InverseTransform", c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return result, nil
}

// TransformValue は単一列スケーラーで1つの値を変換する（目的変数の標準化用）
func (s *StandardScaler) TransformValue(v float64) float64 {
	return (v - s.Mean[0]) / s.Scale[0]
}

// InverseTransformValue はTransformValueの逆変換
func (s *StandardScaler) InverseTransformValue(v float64) float64 {
	return v*s.Scale[0] + s.Mean[0]
}

// isConstant は列のすべての値が等しいかどうかを判定する。
// 定数列でも丸めで極小の標準偏差が残ることがあるため、値そのものを比較する。
func isConstant(col []float64, sigma float64) bool {
	return sigma == 0 || floats.Max(col) == floats.Min(col)
}
