package neural_network

import (
	"math"

	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Optimizer updates parameters in place from their gradients.
type Optimizer interface {
	// Name is the optimizer kind, e.g. "adam".
	Name() string
	// Step applies one update. params and grads are index-aligned.
	Step(params, grads []*mat.Dense) error
	// LearningRate is the base step size.
	LearningRate() float64
	// Config returns the hyperparameters for metadata.
	Config() map[string]interface{}
}

// Adam defaults.
const (
	DefaultBeta1   = 0.9
	DefaultBeta2   = 0.999
	DefaultEpsilon = 1e-7
)

// Adam implements the Adam optimizer with bias correction.
type Adam struct {
	lr      float64
	beta1   float64
	beta2   float64
	epsilon float64

	t int
	m map[*mat.Dense][]float64
	v map[*mat.Dense][]float64
}

// AdamOption is a functional option for Adam.
type AdamOption func(*Adam)

// WithBetas sets the first and second moment decay rates.
func WithBetas(beta1, beta2 float64) AdamOption {
	return func(a *Adam) {
		a.beta1 = beta1
		a.beta2 = beta2
	}
}

// WithEpsilon sets the denominator fuzz factor.
func WithEpsilon(eps float64) AdamOption {
	return func(a *Adam) {
		a.epsilon = eps
	}
}

// NewAdam creates an Adam optimizer with learning rate lr.
func NewAdam(lr float64, opts ...AdamOption) (*Adam, error) {
	a := &Adam{
		lr:      lr,
		beta1:   DefaultBeta1,
		beta2:   DefaultBeta2,
		epsilon: DefaultEpsilon,
		m:       make(map[*mat.Dense][]float64),
		v:       make(map[*mat.Dense][]float64),
	}
	for _, opt := range opts {
		opt(a)
	}

	if !(a.lr > 0) || math.IsInf(a.lr, 0) {
		return nil, errors.NewValidationError("learning_rate", "must be a positive finite number", a.lr)
	}
	if a.beta1 < 0 || a.beta1 >= 1 {
		return nil, errors.NewValidationError("beta1", "must be in [0, 1)", a.beta1)
	}
	if a.beta2 < 0 || a.beta2 >= 1 {
		return nil, errors.NewValidationError("beta2", "must be in [0, 1)", a.beta2)
	}
	if a.epsilon <= 0 {
		return nil, errors.NewValidationError("epsilon", "must be positive", a.epsilon)
	}
	return a, nil
}

// Name implements Optimizer.
func (a *Adam) Name() string { return "adam" }

// LearningRate implements Optimizer.
func (a *Adam) LearningRate() float64 { return a.lr }

// Iterations returns the number of steps taken.
func (a *Adam) Iterations() int { return a.t }

// Config implements Optimizer.
func (a *Adam) Config() map[string]interface{} {
	return map[string]interface{}{
		"name":          a.Name(),
		"learning_rate": a.lr,
		"beta_1":        a.beta1,
		"beta_2":        a.beta2,
		"epsilon":       a.epsilon,
	}
}

// Step implements Optimizer:
//
//	m = β1·m + (1-β1)·g
//	v = β2·v + (1-β2)·g²
//	θ -= lr·sqrt(1-β2^t)/(1-β1^t) · m / (sqrt(v) + ε)
func (a *Adam) Step(params, grads []*mat.Dense) error {
	if len(params) != len(grads) {
		return errors.NewDimensionError("Adam.Step", len(params), len(grads), 0)
	}
	a.t++
	t := float64(a.t)
	lrT := a.lr * math.Sqrt(1-math.Pow(a.beta2, t)) / (1 - math.Pow(a.beta1, t))

	for k, p := range params {
		theta := p.RawMatrix().Data
		g := grads[k].RawMatrix().Data
		if len(theta) != len(g) {
			return errors.NewDimensionError("Adam.Step", len(theta), len(g), 1)
		}
		m, ok := a.m[p]
		if !ok {
			m = make([]float64, len(theta))
			a.m[p] = m
			a.v[p] = make([]float64, len(theta))
		}
		v := a.v[p]
		for i := range theta {
			m[i] = a.beta1*m[i] + (1-a.beta1)*g[i]
			v[i] = a.beta2*v[i] + (1-a.beta2)*g[i]*g[i]
			theta[i] -= lrT * m[i] / (math.Sqrt(v[i]) + a.epsilon)
		}
	}
	return nil
}

// Reset forgets moment estimates and the step counter.
func (a *Adam) Reset() {
	a.t = 0
	a.m = make(map[*mat.Dense][]float64)
	a.v = make(map[*mat.Dense][]float64)
}
