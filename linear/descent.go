package linear

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gdreg/pkg/errors"
	"github.com/YuminosukeSato/gdreg/pkg/log"
)

// Hyperparams は勾配降下法のハイパーパラメータ
type Hyperparams struct {
	// Lambda はL2正則化の強さ (>= 0)
	Lambda float64
	// Alpha は学習率 (> 0)
	Alpha float64
	// Iterations は実行する反復回数 (> 0)
	Iterations int
}

// DefaultHyperparams は alpha=0.1, lambda=1.0, iterations=100 を返す
func DefaultHyperparams() Hyperparams {
	return Hyperparams{Lambda: 1.0, Alpha: 0.1, Iterations: 100}
}

// Validate は数値計算の前にハイパーパラメータを検証する
func (h Hyperparams) Validate(op string) error {
	if math.IsNaN(h.Alpha) || math.IsInf(h.Alpha, 0) {
		return errors.NewInvalidHyperparameterError(op, "alpha", "must be finite", h.Alpha)
	}
	if h.Alpha <= 0 {
		return errors.NewInvalidHyperparameterError(op, "alpha", "must be positive", h.Alpha)
	}
	if h.Iterations <= 0 {
		return errors.NewInvalidHyperparameterError(op, "iterations", "must be positive", h.Iterations)
	}
	return validateLambda(op, h.Lambda)
}

// Progress は反復の途中経過。iterations/10 (切り上げ) 回ごとに通知される。
type Progress struct {
	Iteration int
	Cost      float64
	Bias      float64
	Weights   []float64
}

// DescentResult は Descend の結果
type DescentResult struct {
	// Weights は最終的な重みw (w0とは別の領域)
	Weights *mat.VecDense
	// Bias は最終的なバイアスb
	Bias float64
	// CostHistory は各反復の更新後コスト（WithHistoryEveryで間引き可能）
	CostHistory []float64
	// Iterations は実行した反復回数
	Iterations int
	// Unstable はコストが途中でNaN/Infになった場合にtrue
	Unstable bool
	// FirstNonFinite はコストが最初にNaN/Infになった反復番号。安定なら-1
	FirstNonFinite int
}

// FinalCost は最後に記録されたコストを返す
func (r *DescentResult) FinalCost() float64 {
	if len(r.CostHistory) == 0 {
		return math.NaN()
	}
	return r.CostHistory[len(r.CostHistory)-1]
}

type descentConfig struct {
	historyEvery int
	progress     func(Progress)
	logger       log.Logger
}

// DescentOption は Descend の動作を変更する
type DescentOption func(*descentConfig)

// WithHistoryEvery はk反復ごと（および最終反復）にだけコストを記録する。
// 既定は1で、全反復を記録する。
func WithHistoryEvery(k int) DescentOption {
	return func(c *descentConfig) {
		c.historyEvery = k
	}
}

// WithProgress は途中経過を受け取るコールバックを設定する
func WithProgress(fn func(Progress)) DescentOption {
	return func(c *descentConfig) {
		c.progress = fn
	}
}

// WithDescentLogger は進捗ログの出力先を設定する
func WithDescentLogger(logger log.Logger) DescentOption {
	return func(c *descentConfig) {
		c.logger = logger
	}
}

// Descend はフルバッチ勾配降下法をちょうど hp.Iterations 回実行する。
//
// 各反復で勾配を計算し、w -= α·dw, b -= α·db と同時に更新したあと、
// 更新後のコストを履歴に追加する。早期終了はしない。w0 は複製され変更されない。
//
// コストがNaN/Infになっても反復は継続し、終了後に NumericalInstabilityError を
// 警告として通知して結果の Unstable を立てる。最終コストが初回コストを上回った
// 場合は ConvergenceWarning を通知する。
//
// 使用例:
//
//	res, err := linear.Descend(X, y, mat.NewVecDense(n, nil), 0,
//	    linear.Hyperparams{Lambda: 1, Alpha: 0.1, Iterations: 1000})
func Descend(X mat.Matrix, y, w0 mat.Vector, b0 float64, hp Hyperparams, opts ...DescentOption) (res *DescentResult, err error) {
	defer errors.Recover(&err, "Descend")

	cfg := descentConfig{historyEvery: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.GetLoggerWithName("linear")
	}

	if err := hp.Validate("Descend"); err != nil {
		return nil, err
	}
	if cfg.historyEvery < 1 {
		return nil, errors.NewInvalidHyperparameterError("Descend", "history_interval", "must be positive", cfg.historyEvery)
	}
	p, w, err := newProblem("Descend", X, y, w0)
	if err != nil {
		return nil, err
	}

	logger := cfg.logger.With(log.OperationKey, log.OperationDescend)
	logger.Debug("Descent started",
		log.SamplesKey, p.m,
		log.FeaturesKey, p.n,
		log.LearningRateKey, hp.Alpha,
		log.RegularizationKey, hp.Lambda,
		log.IterationsKey, hp.Iterations,
	)
	start := time.Now()

	b := b0
	r := make([]float64, p.m)
	dw := make([]float64, p.n)
	history := make([]float64, 0, (hp.Iterations+cfg.historyEvery-1)/cfg.historyEvery+1)
	progressEvery := (hp.Iterations + 9) / 10

	firstNonFinite := -1
	var firstCost, lastCost, badCost float64
	for t := 0; t < hp.Iterations; t++ {
		db := p.gradient(w, b, hp.Lambda, r, dw)
		for j := range w {
			w[j] -= hp.Alpha * dw[j]
		}
		b -= hp.Alpha * db

		cost := p.cost(w, b, hp.Lambda, r)
		if t == 0 {
			firstCost = cost
		}
		lastCost = cost
		if firstNonFinite < 0 && (math.IsNaN(cost) || math.IsInf(cost, 0)) {
			firstNonFinite = t
			badCost = cost
		}
		if (t+1)%cfg.historyEvery == 0 || t == hp.Iterations-1 {
			history = append(history, cost)
		}

		if t%progressEvery == 0 {
			logger.Debug("Descent progress",
				log.IterationKey, t,
				log.CostKey, cost,
				log.BiasKey, b,
			)
			if cfg.progress != nil {
				cfg.progress(Progress{
					Iteration: t,
					Cost:      cost,
					Bias:      b,
					Weights:   append([]float64(nil), w...),
				})
			}
		}
	}

	res = &DescentResult{
		Weights:        mat.NewVecDense(p.n, w),
		Bias:           b,
		CostHistory:    history,
		Iterations:     hp.Iterations,
		Unstable:       firstNonFinite >= 0,
		FirstNonFinite: firstNonFinite,
	}

	switch {
	case res.Unstable:
		errors.Warn(errors.NewNumericalInstabilityError("Descend.cost", []float64{badCost}, firstNonFinite))
	case lastCost > firstCost:
		errors.Warn(errors.NewConvergenceWarning("GradientDescent", hp.Iterations,
			"cost increased over the run. Consider lowering the learning rate"))
	}

	logger.Debug("Descent completed",
		log.FinalCostKey, lastCost,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}
