package main

import (
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gdreg/dataset"
	"github.com/YuminosukeSato/gdreg/diagnostics"
	"github.com/YuminosukeSato/gdreg/linear"
	"github.com/YuminosukeSato/gdreg/metrics"
	"github.com/YuminosukeSato/gdreg/pkg/log"
	"github.com/YuminosukeSato/gdreg/preprocessing"
)

// trainFlags trainコマンドのフラグ
type trainFlags struct {
	Data            string
	Target          string
	Drop            []string
	Alpha           float64
	Lambda          float64
	Iterations      int
	Normalize       bool
	NormalizeTarget bool
	Seed            int64
	HistoryInterval int
	Show            int
	Plot            string
	Out             string
	Compare         bool
}

func newTrainCmd() *cobra.Command {
	f := &trainFlags{}
	defaults := linear.DefaultHyperparams()

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a model on a CSV file",
		Example: `  gdreg train --data housing.csv --target median_house_value \
      --drop ocean_proximity --alpha 0.1 --lambda 1 --iterations 100 \
      --plot cost.png --out model.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd.OutOrStdout(), f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.Data, "data", "", "CSV file with a header row")
	fl.StringVar(&f.Target, "target", "", "target column")
	fl.StringSliceVar(&f.Drop, "drop", nil, "columns to ignore (repeatable)")
	fl.Float64Var(&f.Alpha, "alpha", defaults.Alpha, "learning rate")
	fl.Float64Var(&f.Lambda, "lambda", defaults.Lambda, "L2 regularization strength")
	fl.IntVar(&f.Iterations, "iterations", defaults.Iterations, "number of gradient descent steps")
	fl.BoolVar(&f.Normalize, "normalize", true, "z-score normalize features")
	fl.BoolVar(&f.NormalizeTarget, "normalize-target", false, "z-score normalize the target")
	fl.Int64Var(&f.Seed, "seed", -1, "seed for uniform [0,1) initial weights; negative means zeros")
	fl.IntVar(&f.HistoryInterval, "history-interval", 1, "record the cost every k iterations")
	fl.IntVar(&f.Show, "show", 10, "number of predictions to print")
	fl.StringVar(&f.Plot, "plot", "", "save the cost history chart (.png, .svg, .pdf)")
	fl.StringVar(&f.Out, "out", "", "save the fitted model as JSON")
	fl.BoolVar(&f.Compare, "compare", false, "also solve the same objective in closed form")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func runTrain(out io.Writer, f *trainFlags) error {
	ds, err := dataset.LoadCSVFile(f.Data, dataset.Options{Target: f.Target, Drop: f.Drop})
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	logger := log.GetLoggerWithName("linear").With(log.RunIDKey, runID, log.SourceKey, f.Data)

	reg := linear.NewGDRegressor(
		linear.WithLogger(logger),
		linear.WithHyperparams(linear.Hyperparams{Lambda: f.Lambda, Alpha: f.Alpha, Iterations: f.Iterations}),
		linear.WithNormalize(f.Normalize),
		linear.WithNormalizeTarget(f.NormalizeTarget),
		linear.WithRandomState(f.Seed),
		linear.WithHistoryInterval(f.HistoryInterval),
		linear.WithFeatureNames(ds.Features),
	)
	if err := reg.Fit(ds.X, ds.Y); err != nil {
		return err
	}

	fmt.Fprintf(out, "run: %s\n", runID)
	fmt.Fprintf(out, "samples=%d features=%d dropped_rows=%d\n", ds.Len(), len(ds.Features), ds.DroppedRows)
	if summary, err := diagnostics.Summarize(reg.CostHistory()); err == nil {
		fmt.Fprintf(out, "cost: %s\n", summary)
	}
	if reg.Unstable() {
		fmt.Fprintln(out, "warning: cost became non-finite, try a smaller --alpha")
	}
	fmt.Fprintf(out, "bias: %.6g\n", reg.Intercept())
	for i, w := range reg.Weights() {
		fmt.Fprintf(out, "w[%s]: %.6g\n", ds.Features[i], w)
	}

	pred, err := reg.Predict(ds.X)
	if err != nil {
		return err
	}
	if err := printEvaluation(out, ds.Y, pred, f.Show); err != nil {
		return err
	}

	if f.Compare {
		if err := compareClosedForm(out, ds, reg, f); err != nil {
			return err
		}
	}
	if f.Plot != "" {
		opts := diagnostics.PlotOptions{Title: "Cost history (" + f.Target + ")", Every: f.HistoryInterval, Iterations: f.Iterations}
		if err := diagnostics.SaveCostHistory(reg.CostHistory(), f.Plot, opts); err != nil {
			return err
		}
		fmt.Fprintf(out, "plot saved to %s\n", f.Plot)
	}
	if f.Out != "" {
		if err := reg.Save(f.Out); err != nil {
			return err
		}
		fmt.Fprintf(out, "model saved to %s\n", f.Out)
	}
	return nil
}

// compareClosedForm は同じ目的関数を正規方程式で解き、勾配降下法の結果と比較する
func compareClosedForm(out io.Writer, ds *dataset.Dataset, reg *linear.GDRegressor, f *trainFlags) error {
	X := mat.Matrix(ds.X)
	if f.Normalize {
		Xs, err := preprocessing.Normalize(ds.X)
		if err != nil {
			return err
		}
		X = Xs
	}
	y := mat.Vector(ds.Y)
	if f.NormalizeTarget {
		ys, err := preprocessing.Normalize(mat.NewDense(ds.Len(), 1, ds.Y.RawVector().Data))
		if err != nil {
			return err
		}
		y = ys.ColView(0)
	}

	lr := linear.NewLinearRegression(f.Lambda)
	if err := lr.Fit(X, y); err != nil {
		return err
	}
	w := lr.Weights()
	optimum, err := linear.Cost(X, y, mat.NewVecDense(len(w), w), lr.Intercept(), f.Lambda)
	if err != nil {
		return err
	}

	gdCost := math.NaN()
	if history := reg.CostHistory(); len(history) > 0 {
		gdCost = history[len(history)-1]
	}
	fmt.Fprintf(out, "closed-form cost: %.6g (gradient descent: %.6g)\n", optimum, gdCost)
	fmt.Fprintf(out, "max |w_gd - w_closed|: %.6g\n", floats.Distance(reg.Weights(), w, math.Inf(1)))
	fmt.Fprintf(out, "|b_gd - b_closed|: %.6g\n", math.Abs(reg.Intercept()-lr.Intercept()))
	return nil
}

// printEvaluation は先頭show件の予測値と評価指標を出力する
func printEvaluation(out io.Writer, y, pred mat.Vector, show int) error {
	n := pred.Len()
	if show > n {
		show = n
	}
	if show > 0 {
		fmt.Fprintln(out, "prediction\ttarget")
		for i := 0; i < show; i++ {
			fmt.Fprintf(out, "%.6g\t%.6g\n", pred.AtVec(i), y.AtVec(i))
		}
	}

	mse, err := metrics.MSE(y, pred)
	if err != nil {
		return err
	}
	rmse, err := metrics.RMSE(y, pred)
	if err != nil {
		return err
	}
	r2, err := metrics.R2Score(y, pred)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "MSE: %.6g\nRMSE: %.6g\nR2: %.6g\n", mse, rmse, r2)
	return nil
}
