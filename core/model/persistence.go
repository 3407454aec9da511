package model

import (
	"io"
	"os"

	gdErrors "github.com/YuminosukeSato/gdreg/pkg/errors"
)

// SaveWeights はモデルの重みをJSONファイルに保存する
//
// 使用例:
//
//	reg := linear.NewGDRegressor()
//	// ... モデルの学習 ...
//	w, _ := reg.ExportWeights()
//	err := model.SaveWeights(w, "model.json")
func SaveWeights(w *ModelWeights, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return gdErrors.Wrapf(err, "failed to create %s", filename)
	}
	defer file.Close()

	if err := WriteWeights(w, file); err != nil {
		return err
	}
	return file.Sync()
}

// LoadWeights はJSONファイルからモデルの重みを読み込む
func LoadWeights(filename string) (*ModelWeights, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, gdErrors.Wrapf(err, "failed to open %s", filename)
	}
	defer file.Close()

	return ReadWeights(file)
}

// WriteWeights はモデルの重みをio.Writerに書き込む
func WriteWeights(w *ModelWeights, out io.Writer) error {
	if err := w.Validate(); err != nil {
		return err
	}
	data, err := w.ToJSON()
	if err != nil {
		return err
	}
	if _, err := out.Write(append(data, '\n')); err != nil {
		return gdErrors.Wrap(err, "failed to write model weights")
	}
	return nil
}

// ReadWeights はio.Readerからモデルの重みを読み込む
func ReadWeights(r io.Reader) (*ModelWeights, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, gdErrors.Wrap(err, "failed to read model weights")
	}
	w := &ModelWeights{}
	if err := w.FromJSON(data); err != nil {
		return nil, err
	}
	return w, nil
}
