package linear

import (
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gdreg/core/model"
	"github.com/YuminosukeSato/gdreg/metrics"
	"github.com/YuminosukeSato/gdreg/pkg/errors"
	"github.com/YuminosukeSato/gdreg/pkg/log"
	"github.com/YuminosukeSato/gdreg/preprocessing"
)

const gdRegressorName = "GDRegressor"

// メタデータのキー
const (
	metaScalerMean  = "scaler_mean"
	metaScalerScale = "scaler_scale"
	metaTargetMean  = "target_mean"
	metaTargetScale = "target_scale"
	metaFinalCost   = "final_cost"
	metaNSamples    = "n_samples"
)

var (
	_ model.Regressor      = (*GDRegressor)(nil)
	_ model.WeightExporter = (*GDRegressor)(nil)
)

// GDRegressor は正則化付き勾配降下法で学習する線形回帰モデル
type GDRegressor struct {
	state *model.StateManager

	// Hyperparameters
	hp              Hyperparams
	normalize       bool
	normalizeTarget bool
	randomState     int64 // 負の値ならゼロ初期化
	historyInterval int
	features        []string

	// Model parameters
	weights      *mat.VecDense
	bias         float64
	costHistory  []float64
	unstable     bool
	scaler       *preprocessing.StandardScaler
	targetScaler *preprocessing.StandardScaler

	logger log.Logger
}

// NewGDRegressor は新しいGDRegressorを作成する
//
// 使用例:
//
//	reg := linear.NewGDRegressor(
//	    linear.WithAlpha(0.1),
//	    linear.WithLambda(1.0),
//	    linear.WithIterations(1000),
//	)
//	err := reg.Fit(X, y)
//	pred, err := reg.Predict(XTest)
func NewGDRegressor(opts ...Option) *GDRegressor {
	g := &GDRegressor{
		state:           model.NewStateManager(),
		hp:              DefaultHyperparams(),
		normalize:       true,
		randomState:     -1,
		historyInterval: 1,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = log.GetLoggerWithName("linear")
	}
	g.logger = g.logger.With(log.ModelNameKey, gdRegressorName)
	return g
}

// Fit はモデルを訓練データで学習させる
func (g *GDRegressor) Fit(X mat.Matrix, y mat.Vector) (err error) {
	defer errors.Recover(&err, "GDRegressor.Fit")

	if err := g.hp.Validate("GDRegressor.Fit"); err != nil {
		return err
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("GDRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if y.Len() != r {
		return errors.NewDimensionError("GDRegressor.Fit", r, y.Len(), 0)
	}
	if len(g.features) > 0 && len(g.features) != c {
		return errors.NewDimensionError("GDRegressor.Fit", len(g.features), c, 1)
	}
	if err := errors.CheckMatrix("GDRegressor.Fit", X, r, c, 0); err != nil {
		return err
	}
	if err := errors.CheckNumericalStability("GDRegressor.Fit", vectorData(y), 0); err != nil {
		return err
	}

	g.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.LearningRateKey, g.hp.Alpha,
		log.RegularizationKey, g.hp.Lambda,
		log.IterationsKey, g.hp.Iterations,
	)
	start := time.Now()

	var scaler, targetScaler *preprocessing.StandardScaler
	XTrain := X
	if g.normalize {
		scaler = preprocessing.NewStandardScaler()
		if XTrain, err = scaler.FitTransform(X); err != nil {
			g.logger.Error("Feature normalization failed", err, log.OperationKey, log.OperationFit)
			return err
		}
	}

	yTrain := y
	if g.normalizeTarget {
		targetScaler = preprocessing.NewStandardScaler()
		yScaled, err := targetScaler.FitTransform(mat.NewDense(r, 1, vectorData(y)))
		if err != nil {
			g.logger.Error("Target normalization failed", err, log.OperationKey, log.OperationFit)
			return err
		}
		yTrain = yScaled.ColView(0)
	}

	res, err := Descend(XTrain, yTrain, g.initialWeights(c), 0, g.hp,
		WithHistoryEvery(g.historyInterval),
		WithDescentLogger(g.logger),
	)
	if err != nil {
		return err
	}

	g.weights = res.Weights
	g.bias = res.Bias
	g.costHistory = res.CostHistory
	g.unstable = res.Unstable
	g.scaler = scaler
	g.targetScaler = targetScaler
	g.state.SetFitted(c, r)

	if res.Unstable {
		g.logger.Warn("Cost became non-finite during descent",
			log.IterationKey, res.FirstNonFinite,
			log.LearningRateKey, g.hp.Alpha,
		)
	}
	g.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.FinalCostKey, res.FinalCost(),
		log.BiasKey, res.Bias,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// initialWeights はゼロ、またはrandomStateが設定されていれば[0, 1)の一様乱数を返す
func (g *GDRegressor) initialWeights(n int) *mat.VecDense {
	w0 := mat.NewVecDense(n, nil)
	if g.randomState < 0 {
		return w0
	}
	seed := uint64(g.randomState)
	rng := rand.New(rand.NewPCG(seed, seed))
	for j := 0; j < n; j++ {
		w0.SetVec(j, rng.Float64())
	}
	return w0
}

// Predict は入力データに対する予測を行う
func (g *GDRegressor) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if err := g.state.RequireFitted(gdRegressorName, "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := g.state.RequireFeatures("GDRegressor.Predict", c); err != nil {
		return nil, err
	}
	if r == 0 {
		return nil, errors.NewModelError("GDRegressor.Predict", "empty data", errors.ErrEmptyData)
	}

	Xp := X
	if g.scaler != nil {
		scaled, err := g.scaler.Transform(X)
		if err != nil {
			return nil, err
		}
		Xp = scaled
	}

	// y = X * w + b
	pred := mat.NewVecDense(r, nil)
	pred.MulVec(Xp, g.weights)
	for i := 0; i < r; i++ {
		v := pred.AtVec(i) + g.bias
		if g.targetScaler != nil {
			v = g.targetScaler.InverseTransformValue(v)
		}
		pred.SetVec(i, v)
	}

	g.logger.Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.SamplesKey, r,
	)
	return pred, nil
}

// Score はモデルの決定係数（R²）を計算する
func (g *GDRegressor) Score(X mat.Matrix, y mat.Vector) (float64, error) {
	pred, err := g.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(y, pred)
}

// Weights は学習された重みwのコピーを返す
func (g *GDRegressor) Weights() []float64 {
	if g.weights == nil {
		return nil
	}
	return vectorData(g.weights)
}

// Intercept は学習されたバイアスbを返す
func (g *GDRegressor) Intercept() float64 {
	return g.bias
}

// CostHistory は学習中に記録されたコストのコピーを返す
func (g *GDRegressor) CostHistory() []float64 {
	return append([]float64(nil), g.costHistory...)
}

// Unstable は学習中にコストがNaN/Infになったかどうかを返す
func (g *GDRegressor) Unstable() bool {
	return g.unstable
}

// Hyperparams は設定されたハイパーパラメータを返す
func (g *GDRegressor) Hyperparams() Hyperparams {
	return g.hp
}

// FeatureNames は特徴量名のコピーを返す。未設定ならnil
func (g *GDRegressor) FeatureNames() []string {
	if len(g.features) == 0 {
		return nil
	}
	return append([]string(nil), g.features...)
}

// IsFitted はモデルが学習済みかどうかを返す
func (g *GDRegressor) IsFitted() bool {
	return g.state.IsFitted()
}

// ExportWeights は学習済みの重みとスケーラーの統計量をModelWeightsとして出力する
func (g *GDRegressor) ExportWeights() (*model.ModelWeights, error) {
	if err := g.state.RequireFitted(gdRegressorName, "ExportWeights"); err != nil {
		return nil, err
	}
	_, nSamples := g.state.GetDimensions()

	w := &model.ModelWeights{
		ModelType:    gdRegressorName,
		Version:      model.WeightsVersion,
		Coefficients: g.Weights(),
		Intercept:    g.bias,
		Features:     append([]string(nil), g.features...),
		Hyperparameters: map[string]interface{}{
			"alpha":            g.hp.Alpha,
			"lambda":           g.hp.Lambda,
			"iterations":       g.hp.Iterations,
			"normalize":        g.normalize,
			"normalize_target": g.normalizeTarget,
			"random_state":     g.randomState,
			"history_interval": g.historyInterval,
		},
		Metadata: map[string]interface{}{
			metaNSamples: nSamples,
		},
		IsFitted: true,
	}
	if len(g.costHistory) > 0 {
		w.Metadata[metaFinalCost] = g.costHistory[len(g.costHistory)-1]
	}
	if g.scaler != nil {
		w.Metadata[metaScalerMean] = append([]float64(nil), g.scaler.Mean...)
		w.Metadata[metaScalerScale] = append([]float64(nil), g.scaler.Scale...)
	}
	if g.targetScaler != nil {
		w.Metadata[metaTargetMean] = append([]float64(nil), g.targetScaler.Mean...)
		w.Metadata[metaTargetScale] = append([]float64(nil), g.targetScaler.Scale...)
	}
	return w, nil
}

// ImportWeights はExportWeightsの出力から学習済みモデルを復元する
func (g *GDRegressor) ImportWeights(w *model.ModelWeights) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if err := errors.CheckScalar("GDRegressor.ImportWeights", w.Intercept, 0); err != nil {
		return err
	}
	if w.ModelType != gdRegressorName {
		return errors.NewValidationError("model_type", "expected "+gdRegressorName, w.ModelType)
	}
	if !w.IsFitted {
		return errors.NewNotFittedError(gdRegressorName, "ImportWeights")
	}

	hp := g.hp
	if v, ok := w.HyperparameterFloat("alpha"); ok {
		hp.Alpha = v
	}
	if v, ok := w.HyperparameterFloat("lambda"); ok {
		hp.Lambda = v
	}
	if v, ok := w.HyperparameterFloat("iterations"); ok {
		hp.Iterations = int(v)
	}
	if v, ok := w.HyperparameterFloat("history_interval"); ok {
		g.historyInterval = int(v)
	}
	if v, ok := w.HyperparameterFloat("random_state"); ok {
		g.randomState = int64(v)
	}

	n := len(w.Coefficients)
	scaler, err := restoreScaler(w, metaScalerMean, metaScalerScale, n)
	if err != nil {
		return err
	}
	targetScaler, err := restoreScaler(w, metaTargetMean, metaTargetScale, 1)
	if err != nil {
		return err
	}

	nSamples := 0
	if v, ok := w.Metadata[metaNSamples].(float64); ok {
		nSamples = int(v)
	} else if v, ok := w.Metadata[metaNSamples].(int); ok {
		nSamples = v
	}

	g.hp = hp
	g.weights = mat.NewVecDense(n, append([]float64(nil), w.Coefficients...))
	g.bias = w.Intercept
	g.features = append([]string(nil), w.Features...)
	g.scaler = scaler
	g.normalize = scaler != nil
	g.targetScaler = targetScaler
	g.normalizeTarget = targetScaler != nil
	g.costHistory = nil
	if v, ok := w.Metadata[metaFinalCost].(float64); ok {
		g.costHistory = []float64{v}
	}
	g.state.SetFitted(n, nSamples)

	g.logger.Debug("Weights imported",
		log.OperationKey, log.OperationLoad,
		log.FeaturesKey, n,
	)
	return nil
}

func restoreScaler(w *model.ModelWeights, meanKey, scaleKey string, n int) (*preprocessing.StandardScaler, error) {
	mean, hasMean := w.MetadataFloats(meanKey)
	scale, hasScale := w.MetadataFloats(scaleKey)
	if !hasMean && !hasScale {
		return nil, nil
	}
	if !hasMean || !hasScale {
		return nil, errors.NewValidationError(meanKey, "scaler statistics must include both mean and scale", hasMean)
	}
	if len(mean) != n {
		return nil, errors.NewDimensionError("GDRegressor.ImportWeights", n, len(mean), 1)
	}
	return preprocessing.NewStandardScalerFromStats(mean, scale)
}

// Save は学習済みモデルをJSONファイルに保存する
func (g *GDRegressor) Save(path string) error {
	w, err := g.ExportWeights()
	if err != nil {
		return err
	}
	return model.SaveWeights(w, path)
}

// LoadGDRegressor はSaveで保存したJSONファイルからモデルを読み込む
func LoadGDRegressor(path string, opts ...Option) (*GDRegressor, error) {
	w, err := model.LoadWeights(path)
	if err != nil {
		return nil, err
	}
	g := NewGDRegressor(opts...)
	if err := g.ImportWeights(w); err != nil {
		return nil, err
	}
	return g, nil
}
