package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/gdreg/dataset"
	"github.com/YuminosukeSato/gdreg/linear"
	"github.com/YuminosukeSato/gdreg/pkg/errors"
)

type predictFlags struct {
	Model  string
	Data   string
	Target string
	Drop   []string
}

func newPredictCmd() *cobra.Command {
	f := &predictFlags{}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Apply a saved model to a CSV file",
		Example: `  gdreg predict --model model.json --data housing.csv \
      --target median_house_value --drop ocean_proximity`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd.OutOrStdout(), f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.Model, "model", "", "model JSON written by train --out")
	fl.StringVar(&f.Data, "data", "", "CSV file with a header row")
	fl.StringVar(&f.Target, "target", "", "target column; when set, metrics are printed")
	fl.StringSliceVar(&f.Drop, "drop", nil, "columns to ignore (repeatable)")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func runPredict(out io.Writer, f *predictFlags) error {
	reg, err := linear.LoadGDRegressor(f.Model)
	if err != nil {
		return err
	}
	ds, err := dataset.LoadCSVFile(f.Data, dataset.Options{Target: f.Target, Drop: f.Drop})
	if err != nil {
		return err
	}
	if names := reg.FeatureNames(); names != nil && strings.Join(names, ",") != strings.Join(ds.Features, ",") {
		return errors.NewValidationError("data", "columns do not match the model features "+strings.Join(names, ","), strings.Join(ds.Features, ","))
	}

	pred, err := reg.Predict(ds.X)
	if err != nil {
		return err
	}
	if ds.Y != nil {
		return printEvaluation(out, ds.Y, pred, pred.Len())
	}
	for i := 0; i < pred.Len(); i++ {
		fmt.Fprintf(out, "%.6g\n", pred.AtVec(i))
	}
	return nil
}
