package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// SaveModel はフィット済みのキャリブレータをファイルに保存する
//
// パラメータ:
//   - model: 保存するキャリブレータ（エクスポートされたフィールドのみ保存される）
//   - filename: 保存先のファイルパス
//
// 使用例:
//
//	cal := conformal.NewCalibrator(conformal.WithMode(conformal.ModeWeighted))
//	// ... cal.Fit(residuals) ...
//	err := model.SaveModel(cal, "calibrator.gob")
func SaveModel(model interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", filename)
	}
	defer file.Close()

	return SaveModelToWriter(model, file)
}

// LoadModel はファイルからキャリブレータを読み込む
//
// 使用例:
//
//	cal := conformal.NewCalibrator()
//	err := model.LoadModel(cal, "calibrator.gob")
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", filename)
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(model interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(model interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
