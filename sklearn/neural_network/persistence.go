package neural_network

import (
	"math/rand"

	"github.com/YuminosukeSato/lidmlp/core/model"
	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"github.com/YuminosukeSato/lidmlp/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// snapshotVersion is bumped on incompatible changes to Snapshot.
const snapshotVersion = "1"

// Snapshot is the gob-encoded form of a Sequential.
type Snapshot struct {
	Version  string
	Name     string
	InputDim int
	Seed     int64
	Layers   []LayerSnapshot
	State    model.ModelState
}

// LayerSnapshot holds one layer's configuration and weights.
type LayerSnapshot struct {
	Kind       string
	Name       string
	Units      int
	Activation string
	InputDim   int
	W          []float64
	B          []float64
}

// Snapshot captures the network's layers and weights.
func (s *Sequential) Snapshot() *Snapshot {
	snap := &Snapshot{
		Version:  snapshotVersion,
		Name:     s.name,
		InputDim: s.inputDim,
		Seed:     s.seed,
		State:    s.state.GetState(),
	}
	for _, l := range s.layers {
		ls := LayerSnapshot{Kind: l.Kind(), Name: l.Name()}
		switch layer := l.(type) {
		case *Dense:
			ls.Units = layer.units
			ls.Activation = layer.activation
			ls.InputDim = layer.inputDim
			ls.W = append([]float64(nil), layer.W.RawMatrix().Data...)
			ls.B = append([]float64(nil), layer.B.RawMatrix().Data...)
		case *Activation:
			ls.Units = layer.dim
			ls.Activation = layer.function
			ls.InputDim = layer.dim
		}
		snap.Layers = append(snap.Layers, ls)
	}
	return snap
}

// FromSnapshot rebuilds a network. Compile must be called again before
// Fit or Evaluate.
func FromSnapshot(snap *Snapshot) (*Sequential, error) {
	if snap.Version != snapshotVersion {
		return nil, errors.NewValidationError("version", "unsupported snapshot version", snap.Version)
	}
	s, err := NewSequential(snap.Name, snap.InputDim, snap.Seed)
	if err != nil {
		return nil, err
	}
	for i, ls := range snap.Layers {
		if ls.InputDim != s.OutputDim() {
			return nil, errors.NewDimensionError("FromSnapshot", s.OutputDim(), ls.InputDim, 1)
		}
		var layer Layer
		switch ls.Kind {
		case KindDense:
			d := NewDense(ls.Units, ls.Activation)
			if err := d.build(ls.InputDim, rand.New(rand.NewSource(0))); err != nil {
				return nil, err
			}
			if len(ls.W) != ls.InputDim*ls.Units || len(ls.B) != ls.Units {
				return nil, errors.NewDimensionError("FromSnapshot", ls.InputDim*ls.Units, len(ls.W), 0)
			}
			d.W = mat.NewDense(ls.InputDim, ls.Units, append([]float64(nil), ls.W...))
			d.B = mat.NewDense(1, ls.Units, append([]float64(nil), ls.B...))
			layer = d
		case KindActivation:
			a := NewActivation(ls.Activation)
			if err := a.build(ls.InputDim, nil); err != nil {
				return nil, err
			}
			layer = a
		default:
			return nil, errors.NewValidationError("layers", "unknown layer kind", ls.Kind)
		}
		layer.setName(ls.Name)
		s.counts[ls.Kind]++
		s.layers = append(s.layers, layer)
		if i == len(snap.Layers)-1 {
			s.state.SetDimensions(snap.InputDim, layer.OutputDim())
		}
	}
	if snap.State.Fitted {
		s.state.SetFitted()
	}
	return s, nil
}

// Save writes the network to path as gob.
func (s *Sequential) Save(path string) error {
	if err := model.SaveModel(s.Snapshot(), path); err != nil {
		return errors.NewModelError("Sequential.Save", "persistence", err)
	}
	s.logger.Info("Model saved", log.PathKey, path, log.OperationKey, log.OperationSave)
	return nil
}

// Load replaces the network's layers and weights with the ones stored at
// path. The compiled optimizer and loss are kept.
func (s *Sequential) Load(path string) error {
	loaded, err := LoadSequential(path)
	if err != nil {
		return err
	}
	optimizer, loss, metricNames := s.optimizer, s.loss, s.metrics
	*s = *loaded
	s.optimizer, s.loss, s.metrics = optimizer, loss, metricNames
	return nil
}

// LoadSequential reads a network saved by Save.
func LoadSequential(path string) (*Sequential, error) {
	var snap Snapshot
	if err := model.LoadModel(&snap, path); err != nil {
		return nil, errors.NewModelError("LoadSequential", "persistence", err)
	}
	s, err := FromSnapshot(&snap)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	s.logger.Info("Model loaded", log.PathKey, path, log.OperationKey, log.OperationLoad)
	return s, nil
}

// Metadata describes the network for the JSON sidecar. The caller fills
// Classes and Metrics.
func (s *Sequential) Metadata() *model.ModelMetadata {
	return &model.ModelMetadata{
		ModelType:       "Sequential",
		Version:         snapshotVersion,
		Name:            s.name,
		InputDim:        s.inputDim,
		Layers:          s.Specs(),
		Hyperparameters: s.GetParams(),
		IsFitted:        s.IsFitted(),
	}
}
