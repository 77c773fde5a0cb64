package model

import (
	"sync"

	lerrors "github.com/YuminosukeSato/lidmlp/pkg/errors"
)

// StateManager tracks the fitted state and the input/output widths of a
// model in a thread-safe manner. Models embed it by composition.
type StateManager struct {
	Fitted bool // exported for gob encoding
	mu     sync.RWMutex

	NFeatures int
	NOutputs  int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the model as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// Reset clears the fitted state and dimensions.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NFeatures = 0
	s.NOutputs = 0
}

// SetDimensions records the input and output widths of the model.
func (s *StateManager) SetDimensions(nFeatures, nOutputs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NFeatures = nFeatures
	s.NOutputs = nOutputs
}

// GetDimensions returns the input and output widths of the model.
func (s *StateManager) GetDimensions() (nFeatures, nOutputs int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NFeatures, s.NOutputs
}

// RequireFitted returns a NotFittedError if the model has not been fitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return lerrors.NewNotFittedError(modelName, method)
	}
	return nil
}

// CheckInputWidth returns a DimensionError when cols differs from the
// recorded input width. A zero width means "not yet known" and passes.
func (s *StateManager) CheckInputWidth(op string, cols int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.NFeatures != 0 && cols != s.NFeatures {
		return lerrors.NewDimensionError(op, s.NFeatures, cols, 1)
	}
	return nil
}

// ModelState is a serializable snapshot of a StateManager.
type ModelState struct {
	Fitted    bool `json:"fitted"`
	NFeatures int  `json:"n_features,omitempty"`
	NOutputs  int  `json:"n_outputs,omitempty"`
}

// GetState returns the current state as a ModelState struct.
func (s *StateManager) GetState() ModelState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ModelState{
		Fitted:    s.Fitted,
		NFeatures: s.NFeatures,
		NOutputs:  s.NOutputs,
	}
}

// SetState restores the state from a ModelState struct.
func (s *StateManager) SetState(state ModelState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Fitted = state.Fitted
	s.NFeatures = state.NFeatures
	s.NOutputs = state.NOutputs
}
