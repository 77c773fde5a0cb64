package neural_network

import (
	"math"

	"github.com/YuminosukeSato/lidmlp/metrics"
	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LossCategoricalCrossEntropy is the only supported loss name.
const LossCategoricalCrossEntropy = "categorical_crossentropy"

// Loss scores predictions P against targets Y and returns dLoss/dP.
type Loss interface {
	Name() string
	Loss(Y, P *mat.Dense) float64
	Gradient(Y, P *mat.Dense) *mat.Dense
}

// LossByName returns the loss registered under name.
func LossByName(name string) (Loss, error) {
	switch name {
	case LossCategoricalCrossEntropy:
		return CategoricalCrossEntropy{}, nil
	}
	return nil, errors.NewValidationError("loss", "must be "+LossCategoricalCrossEntropy, name)
}

// CategoricalCrossEntropy is the batch mean of -Σ y·log(p), with p clipped
// to [metrics.Epsilon, 1-metrics.Epsilon].
type CategoricalCrossEntropy struct{}

// Name implements Loss.
func (CategoricalCrossEntropy) Name() string { return LossCategoricalCrossEntropy }

// Loss implements Loss.
func (CategoricalCrossEntropy) Loss(Y, P *mat.Dense) float64 {
	loss, err := metrics.LogLoss(Y, P)
	if err != nil {
		return math.NaN()
	}
	return loss
}

// Gradient implements Loss: -y / (n·clip(p)).
func (CategoricalCrossEntropy) Gradient(Y, P *mat.Dense) *mat.Dense {
	r, c := P.Dims()
	n := float64(r)
	G := mat.NewDense(r, c, nil)
	G.Apply(func(i, j int, p float64) float64 {
		y := Y.At(i, j)
		if y == 0 {
			return 0
		}
		return -y / (n * errors.ClipValue(p, metrics.Epsilon, 1-metrics.Epsilon))
	}, P)
	return G
}
