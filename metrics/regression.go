// Package metrics はRUL点予測の回帰評価指標を提供する。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// ErrNoVariance は yTrue の分散が0で指標が定義できない場合のエラー
var ErrNoVariance = errors.New("no variance in yTrue")

// checkPair は入力ベクトルが空でなく同じ長さであることを確認し、長さを返す
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewShapeMismatchError(op, n, yPred.Len())
	}
	return n, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	diff := mat.NewVecDense(n, nil)
	diff.SubVec(yTrue, yPred)
	return mat.Dot(diff, diff) / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
// すべての yTrue が同じ値の場合は ErrNoVariance を返す
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	yMean := mat.Sum(yTrue) / float64(n)

	// 全変動（TSS）と残差変動（RSS）
	var tss, rss float64
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		p := yPred.AtVec(i)
		tss += (t - yMean) * (t - yMean)
		rss += (t - p) * (t - p)
	}

	if tss == 0 {
		return 0, errors.Wrap(ErrNoVariance, "R2Score")
	}
	return 1 - rss/tss, nil
}

// SScore はCMAPSSで使われる非対称なスコアを計算する（小さいほど良い）
//
// d = yPred - yTrue として、早すぎる予測（d < 0）は exp(-d/13) - 1、
// 遅すぎる予測（d >= 0）は exp(d/10) - 1 のペナルティを合計する。
// 故障を見逃す遅い予測の方が重く罰せられる。
func SScore(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("SScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var score float64
	for i := 0; i < n; i++ {
		d := yPred.AtVec(i) - yTrue.AtVec(i)
		if d < 0 {
			score += math.Exp(-d/13) - 1
		} else {
			score += math.Exp(d/10) - 1
		}
	}
	return score, nil
}

// Summary はRUL予測の回帰指標をまとめたもの
type Summary struct {
	MSE    float64 `json:"mse"`
	RMSE   float64 `json:"rmse"`
	MAE    float64 `json:"mae"`
	R2     float64 `json:"r2"`
	SScore float64 `json:"s_score"`
}

// Summarize はスライスから全指標を計算する
// yTrue に分散がない場合 R2 は 0 とする
func Summarize(yTrue, yPred []float64) (Summary, error) {
	if len(yTrue) == 0 {
		return Summary{}, errors.NewValueError("Summarize", "empty vector")
	}
	if len(yPred) != len(yTrue) {
		return Summary{}, errors.NewShapeMismatchError("Summarize", len(yTrue), len(yPred))
	}
	t := mat.NewVecDense(len(yTrue), append([]float64(nil), yTrue...))
	p := mat.NewVecDense(len(yPred), append([]float64(nil), yPred...))

	var s Summary
	var err error
	if s.MSE, err = MSE(t, p); err != nil {
		return Summary{}, err
	}
	s.RMSE = math.Sqrt(s.MSE)
	if s.MAE, err = MAE(t, p); err != nil {
		return Summary{}, err
	}
	if s.R2, err = R2Score(t, p); err != nil && !errors.Is(err, ErrNoVariance) {
		return Summary{}, err
	}
	if s.SScore, err = SScore(t, p); err != nil {
		return Summary{}, err
	}
	return s, nil
}
