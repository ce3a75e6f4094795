package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

func vec(v ...float64) *mat.VecDense {
	return mat.NewVecDense(len(v), v)
}

// RUL trajectories of one unit: true RUL counting down and a forecast that
// is early at the start and late near failure.
func TestPointMetrics(t *testing.T) {
	truth := vec(40, 30, 20, 10)
	pred := vec(36, 29, 22, 13)
	// errors: -4, -1, 2, 3

	tests := []struct {
		name string
		fn   func(yTrue, yPred *mat.VecDense) (float64, error)
		want float64
	}{
		{"MSE", MSE, 30.0 / 4},
		{"RMSE", RMSE, math.Sqrt(30.0 / 4)},
		{"MAE", MAE, 10.0 / 4},
		// TSS = 500, RSS = 30
		{"R2Score", R2Score, 1 - 30.0/500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(truth, pred)
			if err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}
			if math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}

			perfect, err := tt.fn(truth, truth)
			if err != nil {
				t.Fatalf("%s on a perfect forecast: %v", tt.name, err)
			}
			wantPerfect := 0.0
			if tt.name == "R2Score" {
				wantPerfect = 1
			}
			if math.Abs(perfect-wantPerfect) > 1e-10 {
				t.Errorf("%s(perfect) = %v, want %v", tt.name, perfect, wantPerfect)
			}

			if _, err := tt.fn(vec(1, 2, 3), vec(1, 2)); err == nil {
				t.Errorf("%s: expected error for length mismatch", tt.name)
			}
			if _, err := tt.fn(&mat.VecDense{}, &mat.VecDense{}); err == nil {
				t.Errorf("%s: expected error for empty vectors", tt.name)
			}
		})
	}
}

func TestR2ScoreNoVariance(t *testing.T) {
	_, err := R2Score(vec(5, 5, 5), vec(4, 5, 6))
	if !errors.Is(err, ErrNoVariance) {
		t.Errorf("got %v, want ErrNoVariance", err)
	}

	// reversed countdown is worse than predicting the mean
	got, err := R2Score(vec(1, 2, 3, 4), vec(4, 3, 2, 1))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got+3) > 1e-10 {
		t.Errorf("R2Score = %v, want -3", got)
	}
}

func TestSScore(t *testing.T) {
	tests := []struct {
		name      string
		yTrue     *mat.VecDense
		yPred     *mat.VecDense
		want      float64
		tolerance float64
		wantErr   bool
	}{
		{
			name:      "perfect prediction",
			yTrue:     mat.NewVecDense(3, []float64{10, 20, 30}),
			yPred:     mat.NewVecDense(3, []float64{10, 20, 30}),
			want:      0,
			tolerance: 1e-12,
		},
		{
			name:      "late and early",
			yTrue:     mat.NewVecDense(3, []float64{10, 20, 30}),
			yPred:     mat.NewVecDense(3, []float64{13, 20, 17}),
			want:      (math.Exp(0.3) - 1) + (math.E - 1), // d=+3 and d=-13
			tolerance: 1e-12,
		},
		{
			name:      "length mismatch",
			yTrue:     mat.NewVecDense(2, []float64{1, 2}),
			yPred:     mat.NewVecDense(1, []float64{1}),
			tolerance: 1e-12,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SScore(tt.yTrue, tt.yPred)

			if (err != nil) != tt.wantErr {
				t.Errorf("SScore() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				if math.Abs(got-tt.want) > tt.tolerance {
					t.Errorf("SScore() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSScorePenalisesLatePredictions(t *testing.T) {
	yTrue := mat.NewVecDense(1, []float64{50})
	early, _ := SScore(yTrue, mat.NewVecDense(1, []float64{40}))
	late, _ := SScore(yTrue, mat.NewVecDense(1, []float64{60}))

	if !(late > early) {
		t.Errorf("late prediction score %v should exceed early %v", late, early)
	}
}

func TestShapeMismatchErrorType(t *testing.T) {
	_, err := MSE(mat.NewVecDense(3, nil), mat.NewVecDense(2, nil))

	var shapeErr *errors.ShapeMismatchError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeMismatchError, got %v", err)
	}
	if shapeErr.Expected != 3 || shapeErr.Got != 2 {
		t.Errorf("shapeErr = %+v", shapeErr)
	}
}

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{1, 2, 3, 4}, []float64{1.5, 2.5, 2.5, 3.5})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if math.Abs(s.MSE-0.25) > 1e-10 || math.Abs(s.RMSE-0.5) > 1e-10 || math.Abs(s.MAE-0.5) > 1e-10 {
		t.Errorf("Summary = %+v", s)
	}
	// TSS = 5, RSS = 1
	if math.Abs(s.R2-0.8) > 1e-10 {
		t.Errorf("R2 = %v, want 0.8", s.R2)
	}

	flat, err := Summarize([]float64{3, 3}, []float64{2, 4})
	if err != nil {
		t.Fatalf("Summarize with constant truth: %v", err)
	}
	if flat.R2 != 0 {
		t.Errorf("R2 = %v, want 0 for constant truth", flat.R2)
	}

	if _, err := Summarize(nil, nil); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := Summarize([]float64{1}, []float64{1, 2}); err == nil {
		t.Error("expected error for length mismatch")
	}
}

// Benchmark tests
func BenchmarkMSE(b *testing.B) {
	size := 10000
	yTrue := mat.NewVecDense(size, nil)
	yPred := mat.NewVecDense(size, nil)

	// Generate random data
	for i := 0; i < size; i++ {
		yTrue.SetVec(i, float64(i))
		yPred.SetVec(i, float64(i)+0.1*float64(i%10))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MSE(yTrue, yPred)
	}
}
