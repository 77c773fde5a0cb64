// Package dataset loads labelled text splits for language identification.
//
// A Provider returns train, validation and test splits plus the ordered
// class list. Providers are selected by name:
//
//	p, err := dataset.New("wili", dataset.Options{Path: "data/wili"})
//	splits, err := p.Load(ctx)
package dataset

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/YuminosukeSato/lidmlp/pkg/errors"
)

// Split is a list of documents with one label per document.
type Split struct {
	Texts  []string
	Labels []string
}

// Len returns the number of documents.
func (s Split) Len() int {
	return len(s.Texts)
}

// Validate checks that every document has a label.
func (s Split) Validate(name string) error {
	if len(s.Texts) != len(s.Labels) {
		return errors.NewDimensionError("dataset."+name, len(s.Texts), len(s.Labels), 0)
	}
	if len(s.Texts) == 0 {
		return errors.Wrapf(errors.ErrEmptyData, "split %s", name)
	}
	return nil
}

// Splits holds the three splits and the class list, in class-index order.
type Splits struct {
	Train      Split
	Validation Split
	Test       Split
	Classes    []string
}

// Validate checks each split and that every label belongs to Classes.
func (s *Splits) Validate() error {
	for _, named := range []struct {
		name  string
		split Split
	}{{"train", s.Train}, {"validation", s.Validation}, {"test", s.Test}} {
		if err := named.split.Validate(named.name); err != nil {
			return err
		}
	}
	if len(s.Classes) == 0 {
		return errors.NewValidationError("classes", "at least one class is required", 0)
	}
	known := make(map[string]struct{}, len(s.Classes))
	for _, c := range s.Classes {
		known[c] = struct{}{}
	}
	for _, split := range []Split{s.Train, s.Validation, s.Test} {
		for i, l := range split.Labels {
			if _, ok := known[l]; !ok {
				return errors.Wrapf(errors.ErrUnknownLabel, "label %q at row %d", l, i)
			}
		}
	}
	return nil
}

// Provider loads dataset splits.
type Provider interface {
	Load(ctx context.Context) (*Splits, error)
}

// Options configures a Provider constructed through New.
type Options struct {
	// Path is the dataset directory.
	Path string
	// ValidationFraction of train, in (0, 1), is held out when no
	// validation files exist.
	ValidationFraction float64
	// Seed drives the validation hold-out shuffle.
	Seed int64
}

// Factory builds a Provider from Options.
type Factory func(Options) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a provider available under name. It panics on duplicates.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("dataset: Register called twice for provider " + name)
	}
	registry[name] = f
}

// New returns the provider registered under name.
func New(name string, opts Options) (Provider, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.NewValidationError("data.provider",
			"unknown provider, available: "+strings.Join(Providers(), ", "), name)
	}
	return f(opts)
}

// Providers lists the registered provider names.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HoldOut moves a seeded random fraction of train into a validation split.
// At least one document stays in each split when train has two or more.
func HoldOut(train Split, fraction float64, seed int64) (Split, Split, error) {
	n := train.Len()
	if n < 2 {
		return Split{}, Split{}, errors.NewValueError("HoldOut", "need at least two training documents")
	}
	if fraction <= 0 || fraction >= 1 {
		return Split{}, Split{}, errors.NewValidationError("validation_fraction", "must be in (0, 1)", fraction)
	}

	nVal := int(float64(n)*fraction + 0.5)
	if nVal < 1 {
		nVal = 1
	}
	if nVal > n-1 {
		nVal = n - 1
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	pick := func(idx []int) Split {
		s := Split{Texts: make([]string, len(idx)), Labels: make([]string, len(idx))}
		for i, j := range idx {
			s.Texts[i] = train.Texts[j]
			s.Labels[i] = train.Labels[j]
		}
		return s
	}
	return pick(perm[nVal:]), pick(perm[:nVal]), nil
}

// UniqueSorted returns the sorted distinct labels of the splits.
func UniqueSorted(splits ...Split) []string {
	seen := make(map[string]struct{})
	for _, s := range splits {
		for _, l := range s.Labels {
			seen[l] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
