package neural_network

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/YuminosukeSato/lidmlp/core/model"
	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Layer kinds.
const (
	KindDense      = "Dense"
	KindActivation = "Activation"
)

// Layer is one stage of a Sequential network. It is implemented by Dense
// and Activation.
type Layer interface {
	// Kind is the layer type, e.g. "Dense".
	Kind() string
	// Name is unique within a network, e.g. "dense_1".
	Name() string
	// OutputDim is the width of the layer's output.
	OutputDim() int
	// Spec describes the layer for summaries and metadata.
	Spec() model.LayerSpec
	// ParamCount is the number of trainable scalars.
	ParamCount() int

	setName(name string)
	build(inputDim int, rng *rand.Rand) error
	forward(X mat.Matrix, training bool) *mat.Dense
	backward(dOut *mat.Dense) *mat.Dense
	params() []*mat.Dense
	grads() []*mat.Dense
}

// Dense is a fully connected layer computing act(X·W + b).
type Dense struct {
	name       string
	units      int
	activation string
	inputDim   int

	W *mat.Dense // inputDim × units
	B *mat.Dense // 1 × units

	dW, dB *mat.Dense

	x    mat.Matrix
	z, a *mat.Dense
}

// NewDense creates a Dense layer with the given width and activation. An
// empty activation means linear.
func NewDense(units int, activation string) *Dense {
	if activation == "" {
		activation = ActivationLinear
	}
	return &Dense{units: units, activation: activation}
}

func (d *Dense) Kind() string        { return KindDense }
func (d *Dense) Name() string        { return d.name }
func (d *Dense) OutputDim() int      { return d.units }
func (d *Dense) setName(name string) { d.name = name }

// Spec implements Layer.
func (d *Dense) Spec() model.LayerSpec {
	return model.LayerSpec{Kind: KindDense, Units: d.units, Activation: d.activation}
}

// ParamCount implements Layer.
func (d *Dense) ParamCount() int {
	return d.inputDim*d.units + d.units
}

// build allocates Glorot-uniform weights and zero biases.
func (d *Dense) build(inputDim int, rng *rand.Rand) error {
	if d.units <= 0 {
		return errors.NewValidationError("units", "must be positive", d.units)
	}
	if inputDim <= 0 {
		return errors.NewValidationError("input_dim", "must be positive", inputDim)
	}
	if err := checkActivation(d.activation); err != nil {
		return err
	}

	d.inputDim = inputDim
	limit := math.Sqrt(6 / float64(inputDim+d.units))
	w := make([]float64, inputDim*d.units)
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * limit
	}
	d.W = mat.NewDense(inputDim, d.units, w)
	d.B = mat.NewDense(1, d.units, nil)
	d.dW = mat.NewDense(inputDim, d.units, nil)
	d.dB = mat.NewDense(1, d.units, nil)
	return nil
}

func (d *Dense) forward(X mat.Matrix, training bool) *mat.Dense {
	r, _ := X.Dims()
	z := mat.NewDense(r, d.units, nil)
	z.Mul(X, d.W)
	bias := d.B.RawRowView(0)
	for i := 0; i < r; i++ {
		floats.Add(z.RawRowView(i), bias)
	}
	a := activate(d.activation, z)
	if training {
		d.x, d.z, d.a = X, z, a
	}
	return a
}

func (d *Dense) backward(dOut *mat.Dense) *mat.Dense {
	dZ := activationGrad(d.activation, d.z, d.a, dOut)

	d.dW.Mul(d.x.T(), dZ)

	db := d.dB.RawRowView(0)
	for j := range db {
		db[j] = 0
	}
	r, _ := dZ.Dims()
	for i := 0; i < r; i++ {
		floats.Add(db, dZ.RawRowView(i))
	}

	dX := mat.NewDense(r, d.inputDim, nil)
	dX.Mul(dZ, d.W.T())
	return dX
}

func (d *Dense) params() []*mat.Dense { return []*mat.Dense{d.W, d.B} }
func (d *Dense) grads() []*mat.Dense  { return []*mat.Dense{d.dW, d.dB} }

// Activation applies a function element-wise (or row-wise for softmax)
// without trainable parameters.
type Activation struct {
	name     string
	function string
	dim      int

	z, a *mat.Dense
}

// NewActivation creates an Activation layer.
func NewActivation(function string) *Activation {
	return &Activation{function: function}
}

func (l *Activation) Kind() string        { return KindActivation }
func (l *Activation) Name() string        { return l.name }
func (l *Activation) OutputDim() int      { return l.dim }
func (l *Activation) ParamCount() int     { return 0 }
func (l *Activation) setName(name string) { l.name = name }

// Spec implements Layer. Units is the pass-through width.
func (l *Activation) Spec() model.LayerSpec {
	return model.LayerSpec{Kind: KindActivation, Units: l.dim, Activation: l.function}
}

func (l *Activation) build(inputDim int, _ *rand.Rand) error {
	if inputDim <= 0 {
		return errors.NewValidationError("input_dim", "must be positive", inputDim)
	}
	if err := checkActivation(l.function); err != nil {
		return err
	}
	l.dim = inputDim
	return nil
}

func (l *Activation) forward(X mat.Matrix, training bool) *mat.Dense {
	z := mat.DenseCopyOf(X)
	a := activate(l.function, z)
	if training {
		l.z, l.a = z, a
	}
	return a
}

func (l *Activation) backward(dOut *mat.Dense) *mat.Dense {
	return activationGrad(l.function, l.z, l.a, dOut)
}

func (l *Activation) params() []*mat.Dense { return nil }
func (l *Activation) grads() []*mat.Dense  { return nil }

func layerName(kind string, n int) string {
	if kind == KindDense {
		return fmt.Sprintf("dense_%d", n)
	}
	return fmt.Sprintf("activation_%d", n)
}
