package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestRecover_WithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "weightedQuantile")
		panic("stat: slice length mismatch")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}

	var panicErr *PanicError
	if !As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}

	if panicErr.Operation != "weightedQuantile" {
		t.Errorf("Expected operation 'weightedQuantile', got '%s'", panicErr.Operation)
	}

	if panicErr.StackTrace == "" {
		t.Error("Expected non-empty stack trace")
	}

	want := "rulconform: panic in weightedQuantile: stat: slice length mismatch"
	if panicErr.Error() != want {
		t.Errorf("Error() = %q, want %q", panicErr.Error(), want)
	}
}

func TestRecover_WithoutPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "quantile")
		return nil
	}

	if err := testFunc(); err != nil {
		t.Fatalf("Expected no error when no panic occurs, got: %v", err)
	}
}

func TestRecover_WithExistingError(t *testing.T) {
	originalErr := fmt.Errorf("original error")

	testFunc := func() (err error) {
		defer Recover(&err, "quantile")
		err = originalErr
		panic("panic after error")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	if !strings.Contains(err.Error(), "panic in quantile") {
		t.Errorf("Error message should contain panic info: %s", err.Error())
	}

	if !Is(err, originalErr) {
		t.Error("Original error should remain in the chain")
	}
}

func TestRecover_DifferentPanicTypes(t *testing.T) {
	values := []interface{}{"string", 42, fmt.Errorf("error value"), []float64{1, 2}}

	for _, v := range values {
		v := v
		t.Run(fmt.Sprintf("%T", v), func(t *testing.T) {
			testFunc := func() (err error) {
				defer Recover(&err, "op")
				panic(v)
			}
			err := testFunc()

			var panicErr *PanicError
			if !As(err, &panicErr) {
				t.Fatalf("Expected PanicError, got %T", err)
			}
			if fmt.Sprint(panicErr.PanicValue) != fmt.Sprint(v) {
				t.Errorf("PanicValue = %v, want %v", panicErr.PanicValue, v)
			}
		})
	}
}
