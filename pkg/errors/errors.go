// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// コンフォーマル予測のマージン計算で発生するエラーを構造化された型として表現し、
// cockroachdb/errors によるスタックトレースと zerolog による構造化ログ出力をサポートします。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("rulconform-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
// CoverageWarning などのカスタム警告の処理方法を制御できます。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nil を渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが利用可能な場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// CoverageWarning は候補マージンのどれも目標カバレッジに届かなかった場合の警告です。
// 最も目標に近いカバレッジの候補が代わりに選択されます。
type CoverageWarning struct {
	Target   float64
	Achieved float64
	Chosen   string
}

func (w *CoverageWarning) Error() string {
	return fmt.Sprintf("no candidate reached target coverage %.3f; using %s with coverage %.3f",
		w.Target, w.Chosen, w.Achieved)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *CoverageWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Float64("target", w.Target).
		Float64("achieved", w.Achieved).
		Str("chosen", w.Chosen).
		Str("type", "CoverageWarning")
}

// NewCoverageWarning は新しいCoverageWarningを作成します。
func NewCoverageWarning(target, achieved float64, chosen string) *CoverageWarning {
	return &CoverageWarning{Target: target, Achieved: achieved, Chosen: chosen}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// InsufficientDataError は残差集合が空、または選択したモードに対して小さすぎる場合のエラーです。
// 例えば bootstrap モードでは最低2点が必要です。
type InsufficientDataError struct {
	Op   string
	Mode string
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	if e.Mode != "" {
		return fmt.Sprintf("rulconform: %s: insufficient data for %s mode: need at least %d, got %d", e.Op, e.Mode, e.Need, e.Got)
	}
	return fmt.Sprintf("rulconform: %s: insufficient data: need at least %d, got %d", e.Op, e.Need, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InsufficientDataError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("mode", e.Mode).
		Int("need", e.Need).
		Int("got", e.Got).
		Str("type", "InsufficientDataError")
}

// NewInsufficientDataError は新しいInsufficientDataErrorを作成し、スタックトレースを付与します。
func NewInsufficientDataError(op, mode string, need, got int) error {
	err := &InsufficientDataError{Op: op, Mode: mode, Need: need, Got: got}
	return errors.WithStack(err)
}

// InvalidConfigError は設定値が許容範囲外の場合のエラーです。
// 信頼水準 α が (0,1) の外、τ ≤ 0、B ≤ 0 などが該当します。
type InvalidConfigError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("rulconform: invalid configuration for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidConfigError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "InvalidConfigError")
}

// NewInvalidConfigError は新しいInvalidConfigErrorを作成し、スタックトレースを付与します。
func NewInvalidConfigError(param, reason string, value interface{}) error {
	err := &InvalidConfigError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ShapeMismatchError は系列の長さが一致しない場合のエラーです。
// ステップごとのマージン列と予測列の長さが異なる場合などに発生します。
type ShapeMismatchError struct {
	Op       string
	Expected int
	Got      int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("rulconform: %s: length mismatch. Expected %d, got %d", e.Op, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ShapeMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("type", "ShapeMismatchError")
}

// NewShapeMismatchError は新しいShapeMismatchErrorを作成し、スタックトレースを付与します。
func NewShapeMismatchError(op string, expected, got int) error {
	err := &ShapeMismatchError{Op: op, Expected: expected, Got: got}
	return errors.WithStack(err)
}

// NotFittedError は未学習のCalibratorでマージンを使用しようとした場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("rulconform: %s: this calibrator is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
// 例えば、負のRUL予測値を Apply に渡した場合や、入力ファイルのセルが数値でない場合など。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("rulconform: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// NewValueErrorf はフォーマット済みメッセージでValueErrorを作成します。
func NewValueErrorf(op, format string, args ...interface{}) error {
	return NewValueError(op, fmt.Sprintf(format, args...))
}

// NumericalInstabilityError は入力や計算結果にNaNやInfが含まれる場合のエラーです。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "Fit", "Apply"）
	Values    []float64 // 問題のある値
	Index     int       // 最初に検出された位置
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("rulconform: numerical instability detected in %s at index %d. Values: [%s]",
		e.Operation, e.Index, valStr)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Int("index", e.Index).
		Floats64("values", e.Values).
		Str("type", "NumericalInstabilityError")
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, index int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Index:     index,
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrUnknownMode は未知のマージン計算モードが指定された場合のエラーです。
	ErrUnknownMode = New("unknown margin mode")

	// ErrUnsupportedSource は入力ファイルの形式が判別できない場合のエラーです。
	ErrUnsupportedSource = New("unsupported prediction source")
)
