// Package metrics provides classification scores computed on integer class
// indices and probability matrices.
package metrics

import (
	"math"

	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Epsilon clips probabilities away from 0 and 1 in LogLoss, matching the
// fuzz factor used by common deep-learning frameworks.
const Epsilon = 1e-7

// AccuracyScore returns the fraction of positions where yPred equals yTrue.
func AccuracyScore(yTrue, yPred []int) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("AccuracyScore", "empty label vector")
	}
	if len(yPred) != n {
		return 0, errors.NewDimensionError("AccuracyScore", n, len(yPred), 0)
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ArgMax returns the column index of the largest value of each row. Ties
// resolve to the lowest index.
func ArgMax(m mat.Matrix) []int {
	rows, cols := m.Dims()
	out := make([]int, rows)
	if cols == 0 {
		return out
	}
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, m)
		out[i] = floats.MaxIdx(row)
	}
	return out
}

// CategoricalAccuracy compares the arg-max of one-hot targets Y with the
// arg-max of predicted probabilities P.
func CategoricalAccuracy(Y, P mat.Matrix) (float64, error) {
	if err := sameShape("CategoricalAccuracy", Y, P); err != nil {
		return 0, err
	}
	return AccuracyScore(ArgMax(Y), ArgMax(P))
}

// LogLoss is the mean categorical cross-entropy between one-hot (or soft)
// targets Y and probabilities P. Probabilities are clipped to
// [Epsilon, 1-Epsilon].
func LogLoss(Y, P mat.Matrix) (float64, error) {
	if err := sameShape("LogLoss", Y, P); err != nil {
		return 0, err
	}
	rows, cols := Y.Dims()

	var sum float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			y := Y.At(i, j)
			if y == 0 {
				continue
			}
			p := errors.ClipValue(P.At(i, j), Epsilon, 1-Epsilon)
			sum -= y * math.Log(p)
		}
	}
	return sum / float64(rows), nil
}

// ConfusionMatrix counts (true, predicted) pairs over nClasses classes.
// Row i holds the predictions for samples whose true class is i.
func ConfusionMatrix(yTrue, yPred []int, nClasses int) (*mat.Dense, error) {
	if len(yTrue) != len(yPred) {
		return nil, errors.NewDimensionError("ConfusionMatrix", len(yTrue), len(yPred), 0)
	}
	if nClasses <= 0 {
		return nil, errors.NewValidationError("nClasses", "must be positive", nClasses)
	}
	cm := mat.NewDense(nClasses, nClasses, nil)
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= nClasses || p < 0 || p >= nClasses {
			return nil, errors.Wrapf(errors.ErrUnknownLabel, "pair (%d, %d) outside [0, %d)", t, p, nClasses)
		}
		cm.Set(t, p, cm.At(t, p)+1)
	}
	return cm, nil
}

// ClassRecall returns, per true class, the fraction of its samples that
// the confusion matrix cm counts as correctly predicted. Classes without
// samples score 0.
func ClassRecall(cm *mat.Dense) []float64 {
	rows, _ := cm.Dims()
	out := make([]float64, rows)
	for i := range out {
		out[i] = errors.SafeDivide(cm.At(i, i), floats.Sum(cm.RawRowView(i)))
	}
	return out
}

func sameShape(op string, a, b mat.Matrix) error {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar == 0 {
		return errors.NewValueError(op, "empty matrix")
	}
	if ar != br {
		return errors.NewDimensionError(op, ar, br, 0)
	}
	if ac != bc {
		return errors.NewDimensionError(op, ac, bc, 1)
	}
	return nil
}
