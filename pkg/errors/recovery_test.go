package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestRecover_GonumShapePanic(t *testing.T) {
	product := func() (err error) {
		defer Recover(&err, "Dense.Mul")
		var out mat.Dense
		out.Mul(mat.NewDense(2, 3, nil), mat.NewDense(2, 3, nil))
		return nil
	}

	err := product()
	if err == nil {
		t.Fatal("expected an error from the recovered mat panic")
	}

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("expected PanicError, got %T", err)
	}
	if panicErr.Operation != "Dense.Mul" {
		t.Errorf("Operation = %q, want Dense.Mul", panicErr.Operation)
	}
	if panicErr.StackTrace == "" {
		t.Error("expected a stack trace")
	}
}

func TestRecover_WithoutPanic(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "noop")
		return nil
	}
	if err := fn(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestRecover_KeepsExistingError(t *testing.T) {
	original := fmt.Errorf("original error")

	fn := func() (err error) {
		defer Recover(&err, "Fit")
		err = original
		panic("late panic")
	}

	err := fn()
	if !strings.Contains(err.Error(), "panic in Fit") {
		t.Errorf("missing panic info: %v", err)
	}
	if !errors.Is(err, original) {
		t.Error("original error should stay reachable")
	}
}

func TestSafeExecute(t *testing.T) {
	sentinel := fmt.Errorf("function error")

	tests := []struct {
		name      string
		fn        func() error
		wantPanic bool
		wantErr   error
	}{
		{name: "success", fn: func() error { return nil }},
		{name: "returned error", fn: func() error { return sentinel }, wantErr: sentinel},
		{name: "string panic", fn: func() error { panic("boom") }, wantPanic: true},
		{name: "error panic", fn: func() error { panic(sentinel) }, wantPanic: true, wantErr: sentinel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SafeExecute("op", tt.fn)

			var panicErr *PanicError
			if got := errors.As(err, &panicErr); got != tt.wantPanic {
				t.Fatalf("PanicError = %v, want %v (err=%v)", got, tt.wantPanic, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v in chain, got %v", tt.wantErr, err)
			}
			if tt.wantErr == nil && !tt.wantPanic && err != nil {
				t.Errorf("expected nil, got %v", err)
			}
		})
	}
}

func TestPanicError_String(t *testing.T) {
	panicErr := NewPanicError("TestOp", "test value")

	if panicErr.Error() != "panic in TestOp: test value" {
		t.Errorf("unexpected Error(): %s", panicErr.Error())
	}
	if !strings.Contains(panicErr.String(), "Stack trace:") {
		t.Error("String() should include the stack trace")
	}
	if panicErr.Unwrap() != nil {
		t.Error("non-error panic values should not unwrap")
	}
}
