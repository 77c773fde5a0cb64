package preprocessing

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/YuminosukeSato/lidmlp/core/model"
	"github.com/YuminosukeSato/lidmlp/core/parallel"
	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Analyzer names.
const (
	AnalyzerChar = "char"
	AnalyzerWord = "word"
)

// Norm names.
const (
	NormL2   = "l2"
	NormL1   = "l1"
	NormNone = ""
)

// parallelThreshold is the document count above which Transform fans out.
const parallelThreshold = 256

var (
	wordPattern       = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)
	whitespacePattern = regexp.MustCompile(`\s\s+`)
)

// TfidfVectorizer converts documents to a matrix of TF-IDF features with
// scikit-learn semantics: raw term counts, smoothed idf
// ln((1+n)/(1+df))+1 and L2-normalized rows. With idf disabled and no
// norm it is a plain count vectorizer.
type TfidfVectorizer struct {
	state *model.StateManager

	analyzer    string
	ngramMin    int
	ngramMax    int
	minDF       int
	maxFeatures int
	lowercase   bool
	useIDF      bool
	smoothIDF   bool
	sublinearTF bool
	norm        string

	// Vocabulary maps each term to its column.
	Vocabulary map[string]int
	// IDF holds the inverse document frequency per column.
	IDF   []float64
	terms []string
}

// TfidfOption is a functional option for TfidfVectorizer.
type TfidfOption func(*TfidfVectorizer)

// NewTfidfVectorizer creates a character-unigram TF-IDF vectorizer.
//
//	vec := preprocessing.NewTfidfVectorizer(
//	    preprocessing.WithAnalyzer(preprocessing.AnalyzerChar),
//	    preprocessing.WithNgramRange(1, 3),
//	)
//	X, err := vec.FitTransform(docs)
func NewTfidfVectorizer(opts ...TfidfOption) *TfidfVectorizer {
	v := &TfidfVectorizer{
		state:     model.NewStateManager(),
		analyzer:  AnalyzerChar,
		ngramMin:  1,
		ngramMax:  1,
		minDF:     1,
		useIDF:    true,
		smoothIDF: true,
		norm:      NormL2,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// NewCountVectorizer creates a vectorizer producing raw term counts.
func NewCountVectorizer(opts ...TfidfOption) *TfidfVectorizer {
	base := []TfidfOption{WithUseIDF(false), WithNorm(NormNone)}
	return NewTfidfVectorizer(append(base, opts...)...)
}

// WithAnalyzer selects character or word n-grams.
func WithAnalyzer(analyzer string) TfidfOption {
	return func(v *TfidfVectorizer) {
		v.analyzer = analyzer
	}
}

// WithNgramRange sets the inclusive n-gram length range.
func WithNgramRange(lo, hi int) TfidfOption {
	return func(v *TfidfVectorizer) {
		v.ngramMin = lo
		v.ngramMax = hi
	}
}

// WithMinDF drops terms present in fewer than minDF documents.
func WithMinDF(minDF int) TfidfOption {
	return func(v *TfidfVectorizer) {
		v.minDF = minDF
	}
}

// WithMaxFeatures keeps only the maxFeatures most frequent terms. Zero
// means unlimited.
func WithMaxFeatures(maxFeatures int) TfidfOption {
	return func(v *TfidfVectorizer) {
		v.maxFeatures = maxFeatures
	}
}

// WithLowercase lowercases documents before analysis.
func WithLowercase(lowercase bool) TfidfOption {
	return func(v *TfidfVectorizer) {
		v.lowercase = lowercase
	}
}

// WithUseIDF toggles inverse document frequency weighting.
func WithUseIDF(useIDF bool) TfidfOption {
	return func(v *TfidfVectorizer) {
		v.useIDF = useIDF
	}
}

// WithSmoothIDF toggles the +1 document smoothing of idf.
func WithSmoothIDF(smooth bool) TfidfOption {
	return func(v *TfidfVectorizer) {
		v.smoothIDF = smooth
	}
}

// WithSublinearTF replaces tf with 1 + ln(tf).
func WithSublinearTF(sublinear bool) TfidfOption {
	return func(v *TfidfVectorizer) {
		v.sublinearTF = sublinear
	}
}

// WithNorm sets the row normalization: "l2", "l1" or "" for none.
func WithNorm(norm string) TfidfOption {
	return func(v *TfidfVectorizer) {
		v.norm = norm
	}
}

func (v *TfidfVectorizer) validate() error {
	switch v.analyzer {
	case AnalyzerChar, AnalyzerWord:
	default:
		return errors.NewValidationError("analyzer", "must be char or word", v.analyzer)
	}
	if v.ngramMin < 1 || v.ngramMax < v.ngramMin {
		return errors.NewValidationError("ngram_range", "need 1 <= min <= max", [2]int{v.ngramMin, v.ngramMax})
	}
	if v.minDF < 1 {
		return errors.NewValidationError("min_df", "must be at least 1", v.minDF)
	}
	if v.maxFeatures < 0 {
		return errors.NewValidationError("max_features", "must be non-negative", v.maxFeatures)
	}
	switch v.norm {
	case NormL2, NormL1, NormNone:
	default:
		return errors.NewValidationError("norm", "must be l1, l2 or empty", v.norm)
	}
	return nil
}

// Analyze splits a document into its n-gram terms, in order of occurrence.
func (v *TfidfVectorizer) Analyze(doc string) []string {
	if v.lowercase {
		doc = strings.ToLower(doc)
	}
	if v.analyzer == AnalyzerWord {
		return wordNgrams(wordPattern.FindAllString(doc, -1), v.ngramMin, v.ngramMax)
	}
	return charNgrams(whitespacePattern.ReplaceAllString(doc, " "), v.ngramMin, v.ngramMax)
}

func charNgrams(doc string, lo, hi int) []string {
	// byte offsets of every rune, plus the end
	offsets := make([]int, 0, utf8.RuneCountInString(doc)+1)
	for i := range doc {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(doc))
	nRunes := len(offsets) - 1

	var grams []string
	for n := lo; n <= hi; n++ {
		for i := 0; i+n <= nRunes; i++ {
			grams = append(grams, doc[offsets[i]:offsets[i+n]])
		}
	}
	return grams
}

func wordNgrams(tokens []string, lo, hi int) []string {
	if lo == 1 && hi == 1 {
		return tokens
	}
	var grams []string
	for n := lo; n <= hi; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}

// Fit learns the vocabulary and idf weights from docs.
func (v *TfidfVectorizer) Fit(docs []string) error {
	if err := v.validate(); err != nil {
		return err
	}
	if len(docs) == 0 {
		return errors.NewModelError("TfidfVectorizer.Fit", "empty data", errors.ErrEmptyData)
	}

	df := make(map[string]int)
	tf := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range v.Analyze(doc) {
			tf[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				df[term]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for term, count := range df {
		if count >= v.minDF {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return errors.NewValueError("TfidfVectorizer.Fit", "empty vocabulary; documents contain no terms above min_df")
	}
	sort.Strings(terms)

	if v.maxFeatures > 0 && len(terms) > v.maxFeatures {
		sort.SliceStable(terms, func(i, j int) bool {
			return tf[terms[i]] > tf[terms[j]]
		})
		terms = terms[:v.maxFeatures]
		sort.Strings(terms)
	}

	v.terms = terms
	v.Vocabulary = make(map[string]int, len(terms))
	for i, term := range terms {
		v.Vocabulary[term] = i
	}

	v.IDF = make([]float64, len(terms))
	n := float64(len(docs))
	for i, term := range terms {
		d := float64(df[term])
		if v.smoothIDF {
			v.IDF[i] = math.Log((1+n)/(1+d)) + 1
		} else {
			v.IDF[i] = math.Log(n/d) + 1
		}
	}

	v.state.SetDimensions(0, len(terms))
	v.state.SetFitted()
	return nil
}

// Transform maps docs to an (n_docs × n_terms) matrix. Terms outside the
// fitted vocabulary are ignored; a document without known terms becomes a
// zero row.
func (v *TfidfVectorizer) Transform(docs []string) (*mat.Dense, error) {
	if err := v.state.RequireFitted("TfidfVectorizer", "Transform"); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errors.NewModelError("TfidfVectorizer.Transform", "empty data", errors.ErrEmptyData)
	}

	X := mat.NewDense(len(docs), len(v.terms), nil)
	parallel.ParallelizeWithThreshold(len(docs), parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			v.fillRow(X.RawRowView(i), docs[i])
		}
	})
	return X, nil
}

func (v *TfidfVectorizer) fillRow(row []float64, doc string) {
	for _, term := range v.Analyze(doc) {
		if j, ok := v.Vocabulary[term]; ok {
			row[j]++
		}
	}
	for j, count := range row {
		if count == 0 {
			continue
		}
		if v.sublinearTF {
			count = 1 + math.Log(count)
		}
		if v.useIDF {
			count *= v.IDF[j]
		}
		row[j] = count
	}
	switch v.norm {
	case NormL2:
		if n := floats.Norm(row, 2); n > 0 {
			floats.Scale(1/n, row)
		}
	case NormL1:
		if n := floats.Norm(row, 1); n > 0 {
			floats.Scale(1/n, row)
		}
	}
}

// FitTransform fits on docs and transforms them.
func (v *TfidfVectorizer) FitTransform(docs []string) (*mat.Dense, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.Transform(docs)
}

// FeatureNames returns the vocabulary in column order.
func (v *TfidfVectorizer) FeatureNames() []string {
	return append([]string(nil), v.terms...)
}

// IsFitted reports whether Fit has completed.
func (v *TfidfVectorizer) IsFitted() bool {
	return v.state.IsFitted()
}

// GetParams returns the vectorizer's hyperparameters.
func (v *TfidfVectorizer) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"analyzer":     v.analyzer,
		"ngram_min":    v.ngramMin,
		"ngram_max":    v.ngramMax,
		"min_df":       v.minDF,
		"max_features": v.maxFeatures,
		"lowercase":    v.lowercase,
		"use_idf":      v.useIDF,
		"smooth_idf":   v.smoothIDF,
		"sublinear_tf": v.sublinearTF,
		"norm":         v.norm,
	}
}
