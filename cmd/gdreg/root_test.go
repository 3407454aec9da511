package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/gdreg/linear"
)

// y = 3*x1 - 2*x2 + 1
const trainCSV = `x1,x2,city,y
1,0,a,4
0,1,b,-1
2,1,a,5
3,2,b,6
,2,a,3
4,1,b,11
1,3,a,-2
2,2,b,3
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd, closeLog := newRootCmd()
	defer func() { require.NoError(t, closeLog()) }()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// openHandles は現在のプロセスがpathを開いているファイルディスクリプタの数を返す
func openHandles(t *testing.T, path string) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	require.NoError(t, err)
	n := 0
	for _, e := range entries {
		target, err := os.Readlink(filepath.Join("/proc/self/fd", e.Name()))
		if err == nil && target == path {
			n++
		}
	}
	return n
}

func TestTrainAndPredict(t *testing.T) {
	data := writeCSV(t, trainCSV)
	dir := t.TempDir()
	model := filepath.Join(dir, "model.json")
	plot := filepath.Join(dir, "cost.svg")
	logFile := filepath.Join(dir, "gdreg.log")

	out, err := execute(t, "train",
		"--data", data, "--target", "y", "--drop", "city",
		"--alpha", "0.1", "--lambda", "0", "--iterations", "2000",
		"--plot", plot, "--out", model, "--compare", "--show", "3",
		"--log-level", "info", "--log-file", logFile,
	)
	require.NoError(t, err, out)

	assert.Contains(t, out, "run: ")
	assert.Contains(t, out, "samples=7 features=2 dropped_rows=1")
	assert.Contains(t, out, "w[x1]")
	assert.Contains(t, out, "prediction\ttarget")
	assert.Contains(t, out, "R2: 1")
	assert.Contains(t, out, "closed-form cost")
	table := strings.SplitN(strings.SplitN(out, "prediction\ttarget\n", 2)[1], "MSE:", 2)[0]
	assert.Equal(t, 3, strings.Count(table, "\n"))

	for _, path := range []string{model, plot, logFile} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Positive(t, info.Size(), path)
	}
	logs, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logs), "Training completed")
	assert.Contains(t, string(logs), `"training.run_id"`)

	reg, err := linear.LoadGDRegressor(model)
	require.NoError(t, err)
	assert.Equal(t, []string{"x1", "x2"}, reg.FeatureNames())

	out, err = execute(t, "predict", "--model", model, "--data", data, "--target", "y", "--drop", "city")
	require.NoError(t, err, out)
	assert.Contains(t, out, "MSE:")

	noTarget := writeCSV(t, "x1,x2\n1,0\n0,1\n")
	out, err = execute(t, "predict", "--model", model, "--data", noTarget)
	require.NoError(t, err, out)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "4", lines[0])
	assert.Equal(t, "-1", lines[1])
}

func TestTrain_Errors(t *testing.T) {
	data := writeCSV(t, trainCSV)

	tests := []struct {
		name string
		args []string
	}{
		{"missing target flag", []string{"train", "--data", data}},
		{"unknown target", []string{"train", "--data", data, "--target", "z", "--drop", "city"}},
		{"categorical column kept", []string{"train", "--data", data, "--target", "y"}},
		{"negative alpha", []string{"train", "--data", data, "--target", "y", "--drop", "city", "--alpha=-1"}},
		{"bad log level", []string{"train", "--data", data, "--target", "y", "--drop", "city", "--log-level", "loud"}},
		{"missing file", []string{"train", "--data", filepath.Join(t.TempDir(), "none.csv"), "--target", "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestTrain_FailedRunClosesLogFile(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("requires /proc/self/fd")
	}
	data := writeCSV(t, trainCSV)
	logFile := filepath.Join(t.TempDir(), "gdreg.log")

	cmd, closeLog := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"train", "--data", data, "--target", "y", "--drop", "city",
		"--alpha=-1", "--log-level", "info", "--log-file", logFile})
	require.Error(t, cmd.Execute())

	// データ読み込みのログでファイルは開かれている
	logs, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logs), "Dataset loaded")
	assert.Equal(t, 1, openHandles(t, logFile))

	require.NoError(t, closeLog())
	assert.Equal(t, 0, openHandles(t, logFile))
	require.NoError(t, closeLog())
}

func TestPredict_FeatureMismatch(t *testing.T) {
	data := writeCSV(t, trainCSV)
	model := filepath.Join(t.TempDir(), "model.json")
	_, err := execute(t, "train", "--data", data, "--target", "y", "--drop", "city", "--out", model)
	require.NoError(t, err)

	other := writeCSV(t, "x2,x1\n1,0\n")
	_, err = execute(t, "predict", "--model", model, "--data", other)
	assert.Error(t, err)
}
