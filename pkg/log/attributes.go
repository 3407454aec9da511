package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type, e.g. "GDRegressor", "StandardScaler".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "descend", "score".
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "linear", "preprocessing", "dataset".
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	// SamplesKey is the number of rows (m).
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns (n).
	FeaturesKey = "data.features"

	// ColumnKey identifies a single feature column by index.
	ColumnKey = "data.column"

	// SourceKey names where a dataset came from (file path or "stdin").
	SourceKey = "data.source"

	// DroppedRowsKey counts rows removed because of missing values.
	DroppedRowsKey = "data.dropped_rows"
)

// Training progress and results.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// IterationKey records the current gradient descent iteration.
	IterationKey = "training.iteration"

	// IterationsKey records the configured iteration count.
	IterationsKey = "training.iterations"

	// CostKey records the regularized cost after an iteration.
	CostKey = "training.cost"

	// FinalCostKey records the last cost of a run.
	FinalCostKey = "training.final_cost"

	// BiasKey records the bias term.
	BiasKey = "model.bias"

	// MSEKey and R2ScoreKey record evaluation metrics.
	MSEKey     = "metrics.mse"
	R2ScoreKey = "metrics.r2_score"
)

// Hyperparameters.
const (
	// LearningRateKey records alpha.
	LearningRateKey = "hyperparams.learning_rate"

	// RegularizationKey records lambda.
	RegularizationKey = "hyperparams.regularization"

	// HistoryIntervalKey records how often the cost history is sampled.
	HistoryIntervalKey = "hyperparams.history_interval"

	// RandomSeedKey records the seed used for weight initialization.
	RandomSeedKey = "config.random_seed"

	// RunIDKey correlates every log line of one training run.
	RunIDKey = "training.run_id"
)

// Error context.
const (
	// ErrorKey holds the error message.
	ErrorKey = "error"

	// ErrorTypeKey categorizes the error, e.g. "DimensionError".
	ErrorTypeKey = "error.type"

	// StacktraceKey contains the stack trace recorded by cockroachdb/errors.
	StacktraceKey = "error.stacktrace"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationDescend      = "descend"
	OperationScore        = "score"
	OperationLoad         = "load"

	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
)
