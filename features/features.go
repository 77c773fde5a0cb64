// Package features turns dataset splits into model-ready matrices.
package features

import (
	"context"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lidmlp/dataset"
	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"github.com/YuminosukeSato/lidmlp/pkg/log"
	"github.com/YuminosukeSato/lidmlp/preprocessing"
)

// Matrices holds one split: features X (n×D), one-hot targets Y (n×C) and
// the class index of each row.
type Matrices struct {
	X      *mat.Dense
	Y      *mat.Dense
	Labels []int
}

// Rows returns the number of samples.
func (m Matrices) Rows() int {
	if m.X == nil {
		return 0
	}
	r, _ := m.X.Dims()
	return r
}

// FeatureSet is the output of an Extractor.
type FeatureSet struct {
	Train      Matrices
	Validation Matrices
	Test       Matrices

	// Classes is indexed by the columns of Y.
	Classes []string
	// Width is D, the number of feature columns.
	Width int
	// FeatureNames names the columns of X.
	FeatureNames []string
}

// NClasses returns C.
func (fs *FeatureSet) NClasses() int {
	return len(fs.Classes)
}

// Validate checks rows(X) == rows(Y) == len(Labels), cols(X) == Width and
// cols(Y) == C for every split.
func (fs *FeatureSet) Validate() error {
	for _, named := range []struct {
		name string
		m    Matrices
	}{{"train", fs.Train}, {"validation", fs.Validation}, {"test", fs.Test}} {
		m := named.m
		op := "features." + named.name
		if m.X == nil || m.Y == nil {
			return errors.Wrapf(errors.ErrEmptyData, "split %s", named.name)
		}
		xr, xc := m.X.Dims()
		yr, yc := m.Y.Dims()
		if xr != yr {
			return errors.NewDimensionError(op, xr, yr, 0)
		}
		if len(m.Labels) != xr {
			return errors.NewDimensionError(op, xr, len(m.Labels), 0)
		}
		if xc != fs.Width {
			return errors.NewDimensionError(op, fs.Width, xc, 1)
		}
		if yc != len(fs.Classes) {
			return errors.NewDimensionError(op, len(fs.Classes), yc, 1)
		}
	}
	return nil
}

// Extractor converts raw splits into a FeatureSet.
type Extractor interface {
	Extract(ctx context.Context, splits *dataset.Splits) (*FeatureSet, error)
}

// Options configures the vectorizer-backed extractors.
type Options struct {
	Analyzer    string
	NgramMin    int
	NgramMax    int
	MinDF       int
	MaxFeatures int
	Lowercase   bool
}

func (o Options) vectorizerOptions() []preprocessing.TfidfOption {
	var opts []preprocessing.TfidfOption
	if o.Analyzer != "" {
		opts = append(opts, preprocessing.WithAnalyzer(o.Analyzer))
	}
	if o.NgramMin > 0 || o.NgramMax > 0 {
		lo, hi := o.NgramMin, o.NgramMax
		if lo == 0 {
			lo = 1
		}
		if hi == 0 {
			hi = lo
		}
		opts = append(opts, preprocessing.WithNgramRange(lo, hi))
	}
	if o.MinDF > 0 {
		opts = append(opts, preprocessing.WithMinDF(o.MinDF))
	}
	return append(opts,
		preprocessing.WithMaxFeatures(o.MaxFeatures),
		preprocessing.WithLowercase(o.Lowercase),
	)
}

var constructors = map[string]func(Options) Extractor{
	"tfidf": func(o Options) Extractor {
		return NewVectorizerExtractor("tfidf", func() *preprocessing.TfidfVectorizer {
			return preprocessing.NewTfidfVectorizer(o.vectorizerOptions()...)
		})
	},
	"count": func(o Options) Extractor {
		return NewVectorizerExtractor("count", func() *preprocessing.TfidfVectorizer {
			return preprocessing.NewCountVectorizer(o.vectorizerOptions()...)
		})
	},
}

// New returns the extractor named name ("tfidf" or "count").
func New(name string, opts Options) (Extractor, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, errors.NewValidationError("features.extractor",
			"unknown extractor, available: "+strings.Join(Names(), ", "), name)
	}
	return ctor(opts), nil
}

// Names lists the available extractors.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VectorizerExtractor fits a fresh vectorizer on the train texts of every
// Extract call and transforms all three splits with it.
type VectorizerExtractor struct {
	name          string
	newVectorizer func() *preprocessing.TfidfVectorizer
	logger        log.Logger
}

// NewVectorizerExtractor wraps a vectorizer constructor.
func NewVectorizerExtractor(name string, newVectorizer func() *preprocessing.TfidfVectorizer) *VectorizerExtractor {
	return &VectorizerExtractor{
		name:          name,
		newVectorizer: newVectorizer,
		logger:        log.GetLoggerWithName("features").With("features.extractor", name),
	}
}

// Extract implements Extractor.
func (e *VectorizerExtractor) Extract(ctx context.Context, splits *dataset.Splits) (*FeatureSet, error) {
	if splits == nil {
		return nil, errors.Wrap(errors.ErrEmptyData, "no splits")
	}
	if err := splits.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	encoder := preprocessing.NewLabelEncoder()
	if err := encoder.FitClasses(splits.Classes); err != nil {
		return nil, err
	}

	vec := e.newVectorizer()
	if err := vec.Fit(splits.Train.Texts); err != nil {
		return nil, errors.Wrap(err, "fit vectorizer")
	}

	fs := &FeatureSet{
		Classes:      encoder.Classes(),
		FeatureNames: vec.FeatureNames(),
	}
	fs.Width = len(fs.FeatureNames)

	for _, target := range []struct {
		name  string
		split dataset.Split
		out   *Matrices
	}{
		{"train", splits.Train, &fs.Train},
		{"validation", splits.Validation, &fs.Validation},
		{"test", splits.Test, &fs.Test},
	} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := e.transform(vec, encoder, target.name, target.split)
		if err != nil {
			return nil, err
		}
		*target.out = m
	}

	if err := fs.Validate(); err != nil {
		return nil, err
	}

	e.logger.Info("Features extracted",
		log.FeaturesKey, fs.Width,
		log.ClassesKey, fs.NClasses(),
		log.OperationKey, log.OperationTransform,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return fs, nil
}

func (e *VectorizerExtractor) transform(vec *preprocessing.TfidfVectorizer, encoder *preprocessing.LabelEncoder, name string, split dataset.Split) (Matrices, error) {
	X, err := vec.Transform(split.Texts)
	if err != nil {
		return Matrices{}, errors.Wrapf(err, "transform %s split", name)
	}
	labels, err := encoder.Transform(split.Labels)
	if err != nil {
		return Matrices{}, errors.Wrapf(err, "encode %s labels", name)
	}
	Y, err := preprocessing.OneHot(labels, encoder.NClasses())
	if err != nil {
		return Matrices{}, err
	}

	if empty := countZeroRows(X); empty > 0 {
		errors.Warn(errors.NewEmptyFeatureWarning(name, empty, split.Len()))
	}
	e.logger.Debug("Split vectorized", log.SplitKey, name, log.SamplesKey, split.Len())
	return Matrices{X: X, Y: Y, Labels: labels}, nil
}

func countZeroRows(X *mat.Dense) int {
	rows, _ := X.Dims()
	count := 0
	for i := 0; i < rows; i++ {
		zero := true
		for _, v := range X.RawRowView(i) {
			if v != 0 {
				zero = false
				break
			}
		}
		if zero {
			count++
		}
	}
	return count
}
