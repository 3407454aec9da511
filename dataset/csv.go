// Package dataset loads tabular training data from CSV files.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gdreg/pkg/errors"
	"github.com/YuminosukeSato/gdreg/pkg/log"
)

// naValues are the cell contents treated as missing.
var naValues = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
}

// Options selects the target and the columns to ignore.
type Options struct {
	// Target is the column used as y. Empty means the file has no target.
	Target string
	// Drop lists columns that are not used as features (e.g. categorical ones).
	Drop []string
}

// Dataset is a numeric design matrix with an optional target vector.
type Dataset struct {
	X        *mat.Dense
	Y        *mat.VecDense // nil when Options.Target is empty
	Features []string
	// DroppedRows counts rows removed because a cell was missing.
	DroppedRows int
}

// LoadCSVFile opens path and calls LoadCSV.
func LoadCSVFile(path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	ds, err := LoadCSV(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	log.GetLoggerWithName("dataset").Info("Dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.SourceKey, path,
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, len(ds.Features),
		log.DroppedRowsKey, ds.DroppedRows,
	)
	return ds, nil
}

// LoadCSV reads a CSV with a header row. Rows containing a missing value in
// any column are dropped, then the Drop columns are removed and the Target
// column is split off. Every remaining cell must parse as a float.
func LoadCSV(r io.Reader, opts Options) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewModelError("LoadCSV", "empty data", errors.ErrEmptyData)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		header[i] = name
		if _, dup := index[name]; dup {
			return nil, errors.NewValidationError("header", "duplicate column", name)
		}
		index[name] = i
	}

	skip := make(map[int]bool, len(opts.Drop)+1)
	for _, name := range opts.Drop {
		i, ok := index[name]
		if !ok {
			return nil, errors.NewValidationError("drop", "unknown column", name)
		}
		skip[i] = true
	}
	target := -1
	if opts.Target != "" {
		i, ok := index[opts.Target]
		if !ok {
			return nil, errors.NewValidationError("target", "unknown column", opts.Target)
		}
		if skip[i] {
			return nil, errors.NewValidationError("target", "column is also dropped", opts.Target)
		}
		target = i
		skip[i] = true
	}

	var features []int
	var names []string
	for i, name := range header {
		if !skip[i] {
			features = append(features, i)
			names = append(names, name)
		}
	}
	if len(features) == 0 {
		return nil, errors.NewModelError("LoadCSV", "no feature columns", errors.ErrEmptyData)
	}

	var xData, yData []float64
	dropped := 0
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "read line %d", line)
		}
		if hasMissing(record) {
			dropped++
			continue
		}

		for _, i := range features {
			v, err := parseCell(record[i], line, header[i])
			if err != nil {
				return nil, err
			}
			xData = append(xData, v)
		}
		if target >= 0 {
			v, err := parseCell(record[target], line, header[target])
			if err != nil {
				return nil, err
			}
			yData = append(yData, v)
		}
	}

	rows := len(xData) / len(features)
	if rows == 0 {
		return nil, errors.NewModelError("LoadCSV", "no complete rows", errors.ErrEmptyData)
	}

	ds := &Dataset{
		X:           mat.NewDense(rows, len(features), xData),
		Features:    names,
		DroppedRows: dropped,
	}
	if target >= 0 {
		ds.Y = mat.NewVecDense(rows, yData)
	}
	return ds, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	r, _ := d.X.Dims()
	return r
}

func hasMissing(record []string) bool {
	for _, cell := range record {
		if _, ok := naValues[strings.TrimSpace(cell)]; ok {
			return true
		}
	}
	return false
}

func parseCell(cell string, line int, column string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, errors.NewValidationError(column, "line "+strconv.Itoa(line)+": not a number", cell)
	}
	return v, nil
}
