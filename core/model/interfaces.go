// Package model defines the capability interfaces shared by lidmlp
// estimators, together with their fitted-state bookkeeping and persistence.
package model

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Predictor is the interface for models that map feature rows to outputs.
// For classifiers the output is one probability row per sample.
type Predictor interface {
	Predict(X mat.Matrix) (*mat.Dense, error)
}

// Evaluator computes loss and accuracy against one-hot targets.
type Evaluator interface {
	Evaluate(X, Y mat.Matrix) (loss, accuracy float64, err error)
}

// Classifier combines interfaces for probabilistic classification models.
type Classifier interface {
	Predictor
	Evaluator

	// PredictProba returns probability estimates for each class.
	PredictProba(X mat.Matrix) (*mat.Dense, error)

	// PredictClasses returns the arg-max class index for each row.
	PredictClasses(X mat.Matrix) ([]int, error)
}

// Trainable is the interface for iterative learners. Fit honors ctx
// cancellation between batches.
type Trainable[O any, H any] interface {
	Fit(ctx context.Context, X, Y mat.Matrix, opts O) (H, error)
}

// ParameterGetter is the interface for models that expose their hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// Persistable is the interface for models that can be saved and loaded.
type Persistable interface {
	// Save saves the model to a file.
	Save(path string) error

	// Load loads the model from a file.
	Load(path string) error
}
