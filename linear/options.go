package linear

import "github.com/YuminosukeSato/gdreg/pkg/log"

// Option is a functional option for GDRegressor
type Option func(*GDRegressor)

// WithAlpha sets the learning rate (default 0.1)
func WithAlpha(alpha float64) Option {
	return func(g *GDRegressor) {
		g.hp.Alpha = alpha
	}
}

// WithLambda sets the L2 regularization strength (default 1.0)
func WithLambda(lambda float64) Option {
	return func(g *GDRegressor) {
		g.hp.Lambda = lambda
	}
}

// WithIterations sets the number of gradient descent steps (default 100)
func WithIterations(n int) Option {
	return func(g *GDRegressor) {
		g.hp.Iterations = n
	}
}

// WithHyperparams replaces alpha, lambda and iterations at once
func WithHyperparams(hp Hyperparams) Option {
	return func(g *GDRegressor) {
		g.hp = hp
	}
}

// WithNormalize standardizes features before descent and applies the same
// transform in Predict (default true)
func WithNormalize(normalize bool) Option {
	return func(g *GDRegressor) {
		g.normalize = normalize
	}
}

// WithNormalizeTarget standardizes y as well; predictions are mapped back to
// the original scale
func WithNormalizeTarget(normalize bool) Option {
	return func(g *GDRegressor) {
		g.normalizeTarget = normalize
	}
}

// WithRandomState draws initial weights uniformly from [0, 1) using seed.
// A negative seed keeps the zero initialization.
func WithRandomState(seed int64) Option {
	return func(g *GDRegressor) {
		g.randomState = seed
	}
}

// WithHistoryInterval records the cost every k iterations (plus the last)
func WithHistoryInterval(k int) Option {
	return func(g *GDRegressor) {
		g.historyInterval = k
	}
}

// WithFeatureNames attaches column names that are carried into exported weights
func WithFeatureNames(names []string) Option {
	return func(g *GDRegressor) {
		g.features = append([]string(nil), names...)
	}
}

// WithLogger sets the logger used for training and inference records
func WithLogger(logger log.Logger) Option {
	return func(g *GDRegressor) {
		g.logger = logger
	}
}
