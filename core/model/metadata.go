package model

import (
	"encoding/json"
	"os"

	lerrors "github.com/YuminosukeSato/lidmlp/pkg/errors"
)

// LayerSpec describes one layer of a saved network.
type LayerSpec struct {
	Kind       string `json:"kind"`
	Units      int    `json:"units"`
	Activation string `json:"activation,omitempty"`
}

// ModelMetadata is the JSON sidecar written next to a saved model.
type ModelMetadata struct {
	// ModelType is the estimator kind, e.g. "Sequential".
	ModelType string `json:"model_type"`

	// Version guards format compatibility.
	Version string `json:"version"`

	Name     string      `json:"name"`
	InputDim int         `json:"input_dim"`
	Classes  []string    `json:"classes,omitempty"`
	Layers   []LayerSpec `json:"layers"`

	Hyperparameters map[string]interface{} `json:"hyperparameters"`

	// Metrics holds final training and test scores.
	Metrics map[string]float64 `json:"metrics,omitempty"`

	IsFitted bool `json:"is_fitted"`
}

// ToJSON serializes the metadata as indented JSON.
func (md *ModelMetadata) ToJSON() ([]byte, error) {
	return json.MarshalIndent(md, "", "  ")
}

// FromJSON deserializes metadata from JSON.
func (md *ModelMetadata) FromJSON(data []byte) error {
	return json.Unmarshal(data, md)
}

// OutputDim is the unit count of the last layer with units.
func (md *ModelMetadata) OutputDim() int {
	for i := len(md.Layers) - 1; i >= 0; i-- {
		if md.Layers[i].Units > 0 {
			return md.Layers[i].Units
		}
	}
	return 0
}

// Validate checks the metadata for consistency.
func (md *ModelMetadata) Validate() error {
	if md.ModelType == "" {
		return lerrors.NewValidationError("model_type", "is required", md.ModelType)
	}
	if md.Version == "" {
		return lerrors.NewValidationError("version", "is required", md.Version)
	}
	if md.InputDim <= 0 {
		return lerrors.NewValidationError("input_dim", "must be positive", md.InputDim)
	}
	if len(md.Layers) == 0 {
		return lerrors.NewValidationError("layers", "at least one layer is required", len(md.Layers))
	}
	if len(md.Classes) > 0 && len(md.Classes) != md.OutputDim() {
		return lerrors.NewDimensionError("ModelMetadata.Validate", md.OutputDim(), len(md.Classes), 1)
	}
	return nil
}

// SaveMetadata validates md and writes it to path.
func SaveMetadata(md *ModelMetadata, path string) error {
	if err := md.Validate(); err != nil {
		return err
	}
	data, err := md.ToJSON()
	if err != nil {
		return lerrors.Wrap(err, "failed to encode metadata")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return lerrors.Wrapf(err, "failed to write metadata %s", path)
	}
	return nil
}

// LoadMetadata reads and validates the metadata at path.
func LoadMetadata(path string) (*ModelMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, lerrors.Wrapf(err, "failed to read metadata %s", path)
	}
	md := &ModelMetadata{}
	if err := md.FromJSON(data); err != nil {
		return nil, lerrors.Wrapf(err, "failed to decode metadata %s", path)
	}
	if err := md.Validate(); err != nil {
		return nil, err
	}
	return md, nil
}
