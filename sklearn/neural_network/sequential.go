package neural_network

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/YuminosukeSato/lidmlp/core/model"
	"github.com/YuminosukeSato/lidmlp/metrics"
	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"github.com/YuminosukeSato/lidmlp/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// predictBatchSize bounds the rows pushed through the network at once.
const predictBatchSize = 1024

// Sequential is a linear stack of layers.
type Sequential struct {
	state *model.StateManager

	name     string
	inputDim int
	seed     int64
	layers   []Layer
	counts   map[string]int

	optimizer Optimizer
	loss      Loss
	metrics   []string

	rng    *rand.Rand
	logger log.Logger
}

var (
	_ model.Classifier      = (*Sequential)(nil)
	_ model.Persistable     = (*Sequential)(nil)
	_ model.ParameterGetter = (*Sequential)(nil)

	_ model.Trainable[FitOptions, *History] = (*Sequential)(nil)
)

// NewSequential creates an empty network accepting inputDim features.
// seed drives weight initialization and shuffling.
func NewSequential(name string, inputDim int, seed int64) (*Sequential, error) {
	if inputDim <= 0 {
		return nil, errors.NewValidationError("input_shape", "must be positive", inputDim)
	}
	s := &Sequential{
		state:    model.NewStateManager(),
		name:     name,
		inputDim: inputDim,
		seed:     seed,
		counts:   make(map[string]int),
		rng:      rand.New(rand.NewSource(seed)),
		logger:   log.GetLoggerWithName("neural_network").With(log.ModelNameKey, name),
	}
	s.state.SetDimensions(inputDim, inputDim)
	return s, nil
}

// Add builds layer on top of the current output and appends it.
func (s *Sequential) Add(layer Layer) error {
	if err := layer.build(s.OutputDim(), s.rng); err != nil {
		return errors.Wrapf(err, "add %s layer", layer.Kind())
	}
	s.counts[layer.Kind()]++
	if layer.Name() == "" {
		layer.setName(layerName(layer.Kind(), s.counts[layer.Kind()]))
	}
	s.layers = append(s.layers, layer)
	s.state.SetDimensions(s.inputDim, layer.OutputDim())
	return nil
}

// Name returns the model name.
func (s *Sequential) Name() string { return s.name }

// InputDim returns D.
func (s *Sequential) InputDim() int { return s.inputDim }

// OutputDim returns the width of the last layer, or the input width when
// the network is empty.
func (s *Sequential) OutputDim() int {
	if len(s.layers) == 0 {
		return s.inputDim
	}
	return s.layers[len(s.layers)-1].OutputDim()
}

// Layers returns the layers in order.
func (s *Sequential) Layers() []Layer {
	return append([]Layer(nil), s.layers...)
}

// IsFitted reports whether Fit has completed or fitted weights were loaded.
func (s *Sequential) IsFitted() bool {
	return s.state.IsFitted()
}

// ParamCount returns the number of trainable scalars.
func (s *Sequential) ParamCount() int {
	total := 0
	for _, l := range s.layers {
		total += l.ParamCount()
	}
	return total
}

// MLPOption configures BuildMLP.
type MLPOption func(*mlpConfig)

type mlpConfig struct {
	name        string
	hiddenUnits int
	seed        int64
}

// WithHiddenUnits sets the width of the hidden ReLU layer.
func WithHiddenUnits(units int) MLPOption {
	return func(c *mlpConfig) {
		c.hiddenUnits = units
	}
}

// WithSeed sets the initialization and shuffling seed.
func WithSeed(seed int64) MLPOption {
	return func(c *mlpConfig) {
		c.seed = seed
	}
}

// WithName sets the model name.
func WithName(name string) MLPOption {
	return func(c *mlpConfig) {
		c.name = name
	}
}

// BuildMLP creates input(D,) -> Dense(hidden, relu) -> Dense(C) ->
// Activation(softmax). inputShape must have exactly one positive entry.
func BuildMLP(nClasses int, inputShape []int, opts ...MLPOption) (*Sequential, error) {
	cfg := &mlpConfig{name: "mlp", hiddenUnits: 512, seed: 42}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(inputShape) != 1 {
		return nil, errors.NewValidationError("input_shape", "must have exactly one dimension", inputShape)
	}
	if inputShape[0] <= 0 {
		return nil, errors.NewValidationError("input_shape", "must be positive", inputShape)
	}
	if nClasses <= 0 {
		return nil, errors.NewValidationError("n_classes", "must be positive", nClasses)
	}
	if cfg.hiddenUnits <= 0 {
		return nil, errors.NewValidationError("hidden_units", "must be positive", cfg.hiddenUnits)
	}

	s, err := NewSequential(cfg.name, inputShape[0], cfg.seed)
	if err != nil {
		return nil, err
	}
	for _, layer := range []Layer{
		NewDense(cfg.hiddenUnits, ActivationReLU),
		NewDense(nClasses, ActivationLinear),
		NewActivation(ActivationSoftmax),
	} {
		if err := s.Add(layer); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("Built MLP",
		log.FeaturesKey, inputShape[0],
		log.ClassesKey, nClasses,
		log.HiddenUnitsKey, cfg.hiddenUnits,
		log.RandomSeedKey, cfg.seed,
	)
	return s, nil
}

// Compile sets the optimizer, loss and reported metrics. Only "accuracy"
// is a supported metric.
func (s *Sequential) Compile(optimizer Optimizer, loss string, metricNames ...string) error {
	if optimizer == nil {
		return errors.NewValidationError("optimizer", "is required", nil)
	}
	l, err := LossByName(loss)
	if err != nil {
		return err
	}
	for _, m := range metricNames {
		if m != MetricAccuracy {
			return errors.NewValidationError("metrics", "only accuracy is supported", m)
		}
	}
	s.optimizer = optimizer
	s.loss = l
	s.metrics = append([]string(nil), metricNames...)
	return nil
}

// Summary renders the layer table.
func (s *Sequential) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Model: %q\n", s.name)
	fmt.Fprintf(&b, "%-28s %-16s %-10s %s\n", "Layer (type)", "Output Shape", "Param #", "Activation")
	fmt.Fprintf(&b, "%-28s %-16s %-10d %s\n", "input (InputLayer)", fmt.Sprintf("(None, %d)", s.inputDim), 0, "")
	for _, l := range s.layers {
		spec := l.Spec()
		fmt.Fprintf(&b, "%-28s %-16s %-10d %s\n",
			fmt.Sprintf("%s (%s)", l.Name(), l.Kind()),
			fmt.Sprintf("(None, %d)", l.OutputDim()),
			l.ParamCount(),
			spec.Activation)
	}
	fmt.Fprintf(&b, "Total params: %d\n", s.ParamCount())
	return b.String()
}

// Specs describes every layer.
func (s *Sequential) Specs() []model.LayerSpec {
	specs := make([]model.LayerSpec, len(s.layers))
	for i, l := range s.layers {
		specs[i] = l.Spec()
	}
	return specs
}

// GetParams returns the network hyperparameters.
func (s *Sequential) GetParams() map[string]interface{} {
	params := map[string]interface{}{
		"name":      s.name,
		"input_dim": s.inputDim,
		"seed":      s.seed,
	}
	if s.optimizer != nil {
		params["optimizer"] = s.optimizer.Config()
	}
	if s.loss != nil {
		params["loss"] = s.loss.Name()
	}
	return params
}

func (s *Sequential) checkInput(op string, X mat.Matrix) error {
	if len(s.layers) == 0 {
		return errors.NewNotFittedError("Sequential", op)
	}
	r, c := X.Dims()
	if r == 0 {
		return errors.NewModelError("Sequential."+op, "empty data", errors.ErrEmptyData)
	}
	if err := s.state.CheckInputWidth("Sequential."+op, c); err != nil {
		return errors.Wrap(err, "shape mismatch")
	}
	return nil
}

func (s *Sequential) checkTargets(op string, X, Y mat.Matrix) error {
	xr, _ := X.Dims()
	yr, yc := Y.Dims()
	if xr != yr {
		return errors.Wrap(errors.NewDimensionError("Sequential."+op, xr, yr, 0), "shape mismatch")
	}
	if yc != s.OutputDim() {
		return errors.Wrap(errors.NewDimensionError("Sequential."+op, s.OutputDim(), yc, 1), "shape mismatch")
	}
	return nil
}

func (s *Sequential) forward(X mat.Matrix, training bool) *mat.Dense {
	out := X
	var a *mat.Dense
	for _, l := range s.layers {
		a = l.forward(out, training)
		out = a
	}
	return a
}

// Predict returns the network output, one probability row per sample.
func (s *Sequential) Predict(X mat.Matrix) (out *mat.Dense, err error) {
	defer errors.Recover(&err, "Sequential.Predict")
	if err := s.checkInput("Predict", X); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	out = mat.NewDense(r, s.OutputDim(), nil)
	for start := 0; start < r; start += predictBatchSize {
		end := start + predictBatchSize
		if end > r {
			end = r
		}
		batch := s.forward(sliceRows(X, start, end, c), false)
		out.Slice(start, end, 0, s.OutputDim()).(*mat.Dense).Copy(batch)
	}
	return out, nil
}

// PredictProba is Predict; the network already ends in softmax.
func (s *Sequential) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	return s.Predict(X)
}

// PredictClasses returns the arg-max class of every row.
func (s *Sequential) PredictClasses(X mat.Matrix) ([]int, error) {
	P, err := s.Predict(X)
	if err != nil {
		return nil, err
	}
	return metrics.ArgMax(P), nil
}

// Evaluate returns the compiled loss and the categorical accuracy on (X, Y).
func (s *Sequential) Evaluate(X, Y mat.Matrix) (loss, accuracy float64, err error) {
	if s.loss == nil {
		return 0, 0, errors.Wrap(errors.ErrNotCompiled, "Evaluate")
	}
	if err := s.checkTargets("Evaluate", X, Y); err != nil {
		return 0, 0, err
	}
	P, err := s.Predict(X)
	if err != nil {
		return 0, 0, err
	}
	Yd := mat.DenseCopyOf(Y)
	loss = s.loss.Loss(Yd, P)
	accuracy, err = metrics.CategoricalAccuracy(Yd, P)
	if err != nil {
		return 0, 0, err
	}
	return loss, accuracy, nil
}

// lossAndGradients runs a training forward pass on one batch, fills every
// layer's gradients and returns the batch loss and predictions.
func (s *Sequential) lossAndGradients(X, Y *mat.Dense) (float64, *mat.Dense) {
	P := s.forward(X, true)
	loss := s.loss.Loss(Y, P)
	grad := s.loss.Gradient(Y, P)
	for i := len(s.layers) - 1; i >= 0; i-- {
		grad = s.layers[i].backward(grad)
	}
	return loss, P
}

func (s *Sequential) trainableParams() (params, grads []*mat.Dense) {
	for _, l := range s.layers {
		params = append(params, l.params()...)
		grads = append(grads, l.grads()...)
	}
	return params, grads
}

func sliceRows(X mat.Matrix, start, end, cols int) mat.Matrix {
	if d, ok := X.(*mat.Dense); ok {
		return d.Slice(start, end, 0, cols)
	}
	out := mat.NewDense(end-start, cols, nil)
	for i := start; i < end; i++ {
		mat.Row(out.RawRowView(i-start), i, X)
	}
	return out
}

func gatherRows(X mat.Matrix, idx []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for k, i := range idx {
		mat.Row(out.RawRowView(k), i, X)
	}
	return out
}
