package neural_network

import (
	"math"

	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Activation function names.
const (
	ActivationLinear  = "linear"
	ActivationReLU    = "relu"
	ActivationSigmoid = "sigmoid"
	ActivationTanh    = "tanh"
	ActivationSoftmax = "softmax"
)

func checkActivation(name string) error {
	switch name {
	case ActivationLinear, ActivationReLU, ActivationSigmoid, ActivationTanh, ActivationSoftmax:
		return nil
	}
	return errors.NewValidationError("activation", "must be linear, relu, sigmoid, tanh or softmax", name)
}

// activate applies the named function to Z and returns a new matrix.
func activate(name string, Z *mat.Dense) *mat.Dense {
	r, c := Z.Dims()
	A := mat.NewDense(r, c, nil)
	switch name {
	case ActivationReLU:
		A.Apply(func(_, _ int, v float64) float64 { return math.Max(0, v) }, Z)
	case ActivationSigmoid:
		A.Apply(func(_, _ int, v float64) float64 { return 1 / (1 + math.Exp(-v)) }, Z)
	case ActivationTanh:
		A.Apply(func(_, _ int, v float64) float64 { return math.Tanh(v) }, Z)
	case ActivationSoftmax:
		A.Copy(Z)
		for i := 0; i < r; i++ {
			softmaxInPlace(A.RawRowView(i))
		}
	default:
		A.Copy(Z)
	}
	return A
}

func softmaxInPlace(row []float64) {
	shift := floats.Max(row)
	var sum float64
	for j, v := range row {
		e := math.Exp(v - shift)
		row[j] = e
		sum += e
	}
	floats.Scale(1/sum, row)
}

// activationGrad maps dL/dA to dL/dZ given the cached pre-activation Z and
// output A.
func activationGrad(name string, Z, A, dA *mat.Dense) *mat.Dense {
	r, c := dA.Dims()
	dZ := mat.NewDense(r, c, nil)
	switch name {
	case ActivationReLU:
		dZ.Apply(func(i, j int, g float64) float64 {
			if Z.At(i, j) > 0 {
				return g
			}
			return 0
		}, dA)
	case ActivationSigmoid:
		dZ.Apply(func(i, j int, g float64) float64 {
			a := A.At(i, j)
			return g * a * (1 - a)
		}, dA)
	case ActivationTanh:
		dZ.Apply(func(i, j int, g float64) float64 {
			a := A.At(i, j)
			return g * (1 - a*a)
		}, dA)
	case ActivationSoftmax:
		// dZ_i = p_i * (g_i - sum_j g_j p_j)
		for i := 0; i < r; i++ {
			p := A.RawRowView(i)
			g := dA.RawRowView(i)
			dot := floats.Dot(g, p)
			out := dZ.RawRowView(i)
			for j := range out {
				out[j] = p[j] * (g[j] - dot)
			}
		}
	default:
		dZ.Copy(dA)
	}
	return dZ
}
