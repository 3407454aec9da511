package model

import (
	"encoding/json"
	"math"

	gdErrors "github.com/YuminosukeSato/gdreg/pkg/errors"
)

// WeightsVersion is written into every exported ModelWeights.
const WeightsVersion = "1.0.0"

// ModelWeights はモデルの重みを表す構造体（シリアライゼーション用）
type ModelWeights struct {
	// ModelType はモデルの種類（GDRegressor, LinearRegression等）
	ModelType string `json:"model_type"`

	// Version はフォーマットのバージョン（互換性チェック用）
	Version string `json:"version"`

	// Coefficients は重み係数w
	Coefficients []float64 `json:"coefficients"`

	// Intercept はバイアスb
	Intercept float64 `json:"intercept"`

	// Features は特徴量の名前（オプション）
	Features []string `json:"features,omitempty"`

	// Hyperparameters は学習時のハイパーパラメータ（alpha, lambda, iterations）
	Hyperparameters map[string]interface{} `json:"hyperparameters"`

	// Metadata は追加のメタデータ（スケーラーの平均・標準偏差、最終コスト等）
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// IsFitted はモデルが学習済みかどうか
	IsFitted bool `json:"is_fitted"`
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(mw, "", "  ")
	if err != nil {
		return nil, gdErrors.Wrap(err, "failed to encode model weights")
	}
	return data, nil
}

// FromJSON はJSON形式からModelWeightsをデシリアライズし、妥当性を検証する
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return gdErrors.Wrap(err, "failed to decode model weights")
	}
	return mw.Validate()
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return gdErrors.NewValidationError("model_type", "is required", mw.ModelType)
	}
	if mw.Version == "" {
		return gdErrors.NewValidationError("version", "is required", mw.Version)
	}
	if !mw.IsFitted && len(mw.Coefficients) > 0 {
		return gdErrors.NewValidationError("coefficients", "unfitted model should not have coefficients", len(mw.Coefficients))
	}
	if mw.IsFitted && len(mw.Coefficients) == 0 {
		return gdErrors.NewValidationError("coefficients", "fitted model must have coefficients", 0)
	}
	if len(mw.Features) > 0 && len(mw.Features) != len(mw.Coefficients) {
		return gdErrors.NewDimensionError("ModelWeights.Validate", len(mw.Coefficients), len(mw.Features), 1)
	}
	for i, c := range mw.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return gdErrors.NewValidationError("coefficients", "must be finite", i)
		}
	}
	return nil
}

// MetadataFloats は数値スライスとして保存されたメタデータを取り出す。
// JSON経由では[]interface{}になるため両方を受け付ける。
func (mw *ModelWeights) MetadataFloats(key string) ([]float64, bool) {
	raw, ok := mw.Metadata[key]
	if !ok {
		return nil, false
	}
	switch v := raw.(type) {
	case []float64:
		out := make([]float64, len(v))
		copy(out, v)
		return out, true
	case []interface{}:
		out := make([]float64, len(v))
		for i, x := range v {
			f, ok := x.(float64)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	default:
		return nil, false
	}
}

// HyperparameterFloat は数値ハイパーパラメータを取り出す。
func (mw *ModelWeights) HyperparameterFloat(key string) (float64, bool) {
	switch v := mw.Hyperparameters[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		Intercept:       mw.Intercept,
		IsFitted:        mw.IsFitted,
		Coefficients:    make([]float64, len(mw.Coefficients)),
		Features:        make([]string, len(mw.Features)),
		Hyperparameters: make(map[string]interface{}, len(mw.Hyperparameters)),
		Metadata:        make(map[string]interface{}, len(mw.Metadata)),
	}

	copy(clone.Coefficients, mw.Coefficients)
	copy(clone.Features, mw.Features)

	for k, v := range mw.Hyperparameters {
		clone.Hyperparameters[k] = v
	}
	for k, v := range mw.Metadata {
		if fs, ok := v.([]float64); ok {
			cp := make([]float64, len(fs))
			copy(cp, fs)
			v = cp
		}
		clone.Metadata[k] = v
	}

	return clone
}
