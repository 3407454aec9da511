// Package gdreg fits linear regression models y = Xw + b by batch gradient
// descent on the L2-regularized squared-error cost
//
//	J(w, b) = 1/(2m) Σ (x_i·w + b - y_i)² + λ/(2m) Σ w_j²
//
// The bias b is never regularized.
//
// # Packages
//
//   - linear: Cost, Gradient and Descend, the GDRegressor estimator and a
//     closed-form ridge solver (LinearRegression) for reference
//   - preprocessing: StandardScaler and Normalize (z-score normalization)
//   - dataset: CSV loading with missing-value row dropping
//   - metrics: MSE, RMSE, MAE, R2Score, MAPE, ExplainedVarianceScore
//   - diagnostics: cost history summaries and charts
//   - core/model: fitted state tracking, estimator interfaces, JSON weights
//   - core/parallel: row-parallel helpers
//   - pkg/errors, pkg/log: typed errors and structured logging
//
// # Quick Start
//
//	X := mat.NewDense(3, 1, []float64{1, 2, 3})
//	y := mat.NewVecDense(3, []float64{2, 4, 6})
//
//	res, err := linear.Descend(X, y, mat.NewVecDense(1, nil), 0, linear.Hyperparams{
//	    Lambda:     0,
//	    Alpha:      0.1,
//	    Iterations: 1000,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Weights.AtVec(0), res.Bias, res.FinalCost())
//
// The estimator wrapper normalizes features and remembers the scaler:
//
//	reg := linear.NewGDRegressor(linear.WithAlpha(0.1), linear.WithLambda(1))
//	if err := reg.Fit(X, y); err != nil {
//	    log.Fatal(err)
//	}
//	pred, err := reg.Predict(X)
//
// The gdreg command (cmd/gdreg) exposes training and prediction on CSV files.
package gdreg
