// Package preprocessing turns raw documents and string labels into the
// matrices consumed by the models: TF-IDF and count vectorizers, a label
// encoder and one-hot encoding.
package preprocessing

import (
	"sort"

	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LabelEncoder maps string labels to contiguous class indices.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// NewLabelEncoder creates an unfitted LabelEncoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{}
}

// Fit uses the sorted unique values of labels as the class list.
func (le *LabelEncoder) Fit(labels []string) error {
	if len(labels) == 0 {
		return errors.NewModelError("LabelEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	seen := make(map[string]struct{}, len(labels))
	classes := make([]string, 0)
	for _, l := range labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			classes = append(classes, l)
		}
	}
	sort.Strings(classes)
	return le.FitClasses(classes)
}

// FitClasses uses classes, in the given order, as the class list.
func (le *LabelEncoder) FitClasses(classes []string) error {
	if len(classes) == 0 {
		return errors.NewModelError("LabelEncoder.FitClasses", "empty class list", errors.ErrEmptyData)
	}
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, dup := index[c]; dup {
			return errors.NewValidationError("classes", "duplicate class", c)
		}
		index[c] = i
	}
	le.classes = append([]string(nil), classes...)
	le.index = index
	return nil
}

// Classes returns the fitted class list.
func (le *LabelEncoder) Classes() []string {
	return append([]string(nil), le.classes...)
}

// NClasses returns the number of classes.
func (le *LabelEncoder) NClasses() int {
	return len(le.classes)
}

// Transform encodes labels as class indices.
func (le *LabelEncoder) Transform(labels []string) ([]int, error) {
	if le.index == nil {
		return nil, errors.NewNotFittedError("LabelEncoder", "Transform")
	}
	out := make([]int, len(labels))
	for i, l := range labels {
		idx, ok := le.index[l]
		if !ok {
			return nil, errors.Wrapf(errors.ErrUnknownLabel, "label %q at row %d", l, i)
		}
		out[i] = idx
	}
	return out, nil
}

// InverseTransform decodes class indices back to labels.
func (le *LabelEncoder) InverseTransform(indices []int) ([]string, error) {
	if le.index == nil {
		return nil, errors.NewNotFittedError("LabelEncoder", "InverseTransform")
	}
	out := make([]string, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(le.classes) {
			return nil, errors.Wrapf(errors.ErrUnknownLabel, "class index %d at row %d", idx, i)
		}
		out[i] = le.classes[idx]
	}
	return out, nil
}

// OneHot encodes class indices as an (n × nClasses) indicator matrix.
func OneHot(indices []int, nClasses int) (*mat.Dense, error) {
	if len(indices) == 0 {
		return nil, errors.NewModelError("OneHot", "empty data", errors.ErrEmptyData)
	}
	if nClasses <= 0 {
		return nil, errors.NewValidationError("nClasses", "must be positive", nClasses)
	}
	Y := mat.NewDense(len(indices), nClasses, nil)
	for i, idx := range indices {
		if idx < 0 || idx >= nClasses {
			return nil, errors.Wrapf(errors.ErrUnknownLabel, "class index %d at row %d", idx, i)
		}
		Y.Set(i, idx, 1)
	}
	return Y, nil
}
