// Package diagnostics inspects and renders the cost history of a training run.
package diagnostics

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/gdreg/pkg/errors"
)

// Summary describes the shape of a cost history.
type Summary struct {
	Len          int
	First        float64
	Last         float64
	Min          float64
	MinIteration int
	// NonIncreasing is true when no recorded cost is larger than the one before it.
	NonIncreasing bool
	// FirstNonFinite is the index of the first NaN or Inf, or -1.
	FirstNonFinite int
}

// Summarize computes a Summary. NaN and Inf entries are ignored for Min.
func Summarize(history []float64) (Summary, error) {
	if len(history) == 0 {
		return Summary{}, errors.NewModelError("Summarize", "empty data", errors.ErrEmptyData)
	}

	s := Summary{
		Len:            len(history),
		First:          history[0],
		Last:           history[len(history)-1],
		Min:            math.Inf(1),
		MinIteration:   -1,
		NonIncreasing:  true,
		FirstNonFinite: errors.FirstNonFinite(history),
	}
	for i, c := range history {
		if !math.IsNaN(c) && !math.IsInf(c, 0) && c < s.Min {
			s.Min = c
			s.MinIteration = i
		}
		if i > 0 && !(c <= history[i-1]) {
			s.NonIncreasing = false
		}
	}
	return s, nil
}

func (s Summary) String() string {
	return fmt.Sprintf("iterations=%d first=%.6g last=%.6g min=%.6g@%d non_increasing=%t",
		s.Len, s.First, s.Last, s.Min, s.MinIteration, s.NonIncreasing)
}

// PlotOptions controls the rendered chart.
type PlotOptions struct {
	Title  string
	Width  vg.Length
	Height vg.Length
	// Every is the iteration spacing between recorded costs (history interval).
	Every int
	// Iterations is the total run length. The last point is placed there
	// when it does not fall on a multiple of Every. Zero means unknown.
	Iterations int
}

func (o *PlotOptions) defaults() {
	if o.Title == "" {
		o.Title = "Cost history"
	}
	if o.Width == 0 {
		o.Width = 6 * vg.Inch
	}
	if o.Height == 0 {
		o.Height = 4 * vg.Inch
	}
	if o.Every < 1 {
		o.Every = 1
	}
}

// SaveCostHistory renders history as a line chart. The image format follows
// the file extension (.png, .svg, .pdf, ...). Non-finite costs are skipped.
func SaveCostHistory(history []float64, path string, opts PlotOptions) error {
	opts.defaults()

	pts := make(plotter.XYs, 0, len(history))
	for i, c := range history {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			continue
		}
		x := (i + 1) * opts.Every
		if opts.Iterations > 0 && x > opts.Iterations {
			x = opts.Iterations
		}
		pts = append(pts, plotter.XY{X: float64(x), Y: c})
	}
	if len(pts) == 0 {
		return errors.NewModelError("SaveCostHistory", "no finite costs to plot", errors.ErrEmptyData)
	}
	if filepath.Ext(path) == "" {
		return errors.NewValidationError("path", "missing file extension", path)
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Cost"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "build cost line")
	}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)

	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return errors.Wrapf(err, "save %s", strings.TrimSpace(path))
	}
	return nil
}
