package preprocessing

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lidmlp/pkg/errors"
)

func TestTfidfMatchesHandComputedValues(t *testing.T) {
	vec := NewTfidfVectorizer()
	X, err := vec.FitTransform([]string{"ab", "aa"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, vec.FeatureNames())

	// n=2, df(a)=2, df(b)=1
	idfA := math.Log(3.0/3.0) + 1
	idfB := math.Log(3.0/2.0) + 1
	assert.InDelta(t, idfA, vec.IDF[0], 1e-12)
	assert.InDelta(t, idfB, vec.IDF[1], 1e-12)

	norm := math.Sqrt(idfA*idfA + idfB*idfB)
	assert.InDelta(t, idfA/norm, X.At(0, 0), 1e-12)
	assert.InDelta(t, idfB/norm, X.At(0, 1), 1e-12)
	assert.InDelta(t, 1.0, X.At(1, 0), 1e-12)
	assert.InDelta(t, 0.0, X.At(1, 1), 1e-12)
}

func TestTfidfTransformUnknownAndEmpty(t *testing.T) {
	vec := NewTfidfVectorizer()
	require.NoError(t, vec.Fit([]string{"abc"}))

	X, err := vec.Transform([]string{"xyz", "", "cab"})
	require.NoError(t, err)
	r, c := X.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 0.0, mat.Sum(X.RowView(0)))
	assert.Equal(t, 0.0, mat.Sum(X.RowView(1)))
	assert.InDelta(t, 1.0, floats.Norm(X.RawRowView(2), 2), 1e-12)
}

func TestTfidfMaxFeatures(t *testing.T) {
	vec := NewCountVectorizer(WithMaxFeatures(2))
	X, err := vec.FitTransform([]string{"aaab", "bc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, vec.FeatureNames())
	assert.Equal(t, []float64{3, 1}, X.RawRowView(0))
	assert.Equal(t, []float64{0, 1}, X.RawRowView(1))

	// equal frequencies keep the alphabetically first term
	vec = NewCountVectorizer(WithMaxFeatures(1))
	require.NoError(t, vec.Fit([]string{"ba"}))
	assert.Equal(t, []string{"a"}, vec.FeatureNames())
}

func TestTfidfMinDF(t *testing.T) {
	vec := NewCountVectorizer(WithMinDF(2))
	require.NoError(t, vec.Fit([]string{"ab", "ac", "ad"}))
	assert.Equal(t, []string{"a"}, vec.FeatureNames())

	vec = NewCountVectorizer(WithMinDF(5))
	var verr *errors.ValueError
	assert.True(t, errors.As(vec.Fit([]string{"ab"}), &verr))
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name string
		opts []TfidfOption
		doc  string
		want []string
	}{
		{"char unigrams", nil, "äöa", []string{"ä", "ö", "a"}},
		{"char bigrams collapse whitespace", []TfidfOption{WithNgramRange(2, 2)}, "a  b", []string{"a ", " b"}},
		{"char 1-2", []TfidfOption{WithNgramRange(1, 2)}, "ab", []string{"a", "b", "ab"}},
		{"lowercase", []TfidfOption{WithLowercase(true)}, "AB", []string{"a", "b"}},
		{"word tokens", []TfidfOption{WithAnalyzer(AnalyzerWord)}, "Hello world, I am here", []string{"Hello", "world", "am", "here"}},
		{"word bigrams", []TfidfOption{WithAnalyzer(AnalyzerWord), WithNgramRange(2, 2)}, "der die das", []string{"der die", "die das"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewTfidfVectorizer(tt.opts...).Analyze(tt.doc))
		})
	}
}

func TestTfidfValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []TfidfOption
	}{
		{"bad analyzer", []TfidfOption{WithAnalyzer("byte")}},
		{"bad ngram range", []TfidfOption{WithNgramRange(3, 2)}},
		{"zero ngram", []TfidfOption{WithNgramRange(0, 1)}},
		{"bad min_df", []TfidfOption{WithMinDF(0)}},
		{"bad norm", []TfidfOption{WithNorm("max")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verr *errors.ValidationError
			assert.True(t, errors.As(NewTfidfVectorizer(tt.opts...).Fit([]string{"abc"}), &verr))
		})
	}

	_, err := NewTfidfVectorizer().Transform([]string{"a"})
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	assert.True(t, errors.Is(NewTfidfVectorizer().Fit(nil), errors.ErrEmptyData))
}

func TestTfidfParallelTransformIsDeterministic(t *testing.T) {
	docs := make([]string, 3*parallelThreshold)
	for i := range docs {
		docs[i] = fmt.Sprintf("doc %d with text %x", i, i*7919)
	}
	vec := NewTfidfVectorizer(WithNgramRange(1, 2))
	X, err := vec.FitTransform(docs)
	require.NoError(t, err)

	for _, i := range []int{0, 1, parallelThreshold, len(docs) - 1} {
		row := make([]float64, len(vec.FeatureNames()))
		vec.fillRow(row, docs[i])
		assert.Equal(t, row, X.RawRowView(i), "row %d", i)
	}
}

func TestSublinearTFAndL1(t *testing.T) {
	vec := NewTfidfVectorizer(WithUseIDF(false), WithSublinearTF(true), WithNorm(NormL1))
	X, err := vec.FitTransform([]string{"aaab"})
	require.NoError(t, err)
	a := 1 + math.Log(3)
	assert.InDelta(t, a/(a+1), X.At(0, 0), 1e-12)
	assert.InDelta(t, 1/(a+1), X.At(0, 1), 1e-12)
}
