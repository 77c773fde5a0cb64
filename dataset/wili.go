package dataset

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"github.com/YuminosukeSato/lidmlp/pkg/log"
)

// WiLI file names inside the dataset directory.
const (
	FileXTrain = "x_train.txt"
	FileYTrain = "y_train.txt"
	FileXVal   = "x_val.txt"
	FileYVal   = "y_val.txt"
	FileXTest  = "x_test.txt"
	FileYTest  = "y_test.txt"
	FileLabels = "labels.csv"
)

// maxLineBytes bounds a single paragraph.
const maxLineBytes = 16 * 1024 * 1024

func init() {
	Register("wili", func(opts Options) (Provider, error) {
		return NewWiLIProvider(opts)
	})
	Register("wili-2018", func(opts Options) (Provider, error) {
		return NewWiLIProvider(opts)
	})
}

// WiLIProvider reads a WiLI-2018 style directory: one paragraph per line in
// x_*.txt and the matching label per line in y_*.txt. Validation files are
// optional; without them a fraction of train is held out. labels.csv, when
// present, fixes the class order through its Label column.
type WiLIProvider struct {
	dir                string
	validationFraction float64
	seed               int64
	logger             log.Logger
}

// NewWiLIProvider creates a provider rooted at opts.Path.
func NewWiLIProvider(opts Options) (*WiLIProvider, error) {
	if opts.Path == "" {
		return nil, errors.NewValidationError("data.path", "is required for the wili provider", opts.Path)
	}
	return &WiLIProvider{
		dir:                opts.Path,
		validationFraction: opts.ValidationFraction,
		seed:               opts.Seed,
		logger:             log.GetLoggerWithName("dataset").With(log.PathKey, opts.Path),
	}, nil
}

// Load reads all splits from disk.
func (p *WiLIProvider) Load(ctx context.Context) (*Splits, error) {
	train, err := p.readSplit(ctx, FileXTrain, FileYTrain)
	if err != nil {
		return nil, err
	}
	test, err := p.readSplit(ctx, FileXTest, FileYTest)
	if err != nil {
		return nil, err
	}

	var val Split
	if p.exists(FileXVal) && p.exists(FileYVal) {
		if val, err = p.readSplit(ctx, FileXVal, FileYVal); err != nil {
			return nil, err
		}
	} else {
		if train, val, err = HoldOut(train, p.validationFraction, p.seed); err != nil {
			return nil, errors.Wrap(err, "hold out validation split")
		}
		p.logger.Debug("Held out validation split from train",
			log.SamplesKey, val.Len(),
			log.RandomSeedKey, p.seed,
		)
	}

	classes, err := p.readClasses()
	if err != nil {
		return nil, err
	}
	if classes == nil {
		classes = UniqueSorted(train, val, test)
	}

	splits := &Splits{Train: train, Validation: val, Test: test, Classes: classes}
	if err := splits.Validate(); err != nil {
		return nil, err
	}

	p.logger.Info("Dataset loaded",
		log.SamplesKey, train.Len()+val.Len()+test.Len(),
		log.ClassesKey, len(classes),
		"data.train", train.Len(),
		"data.validation", val.Len(),
		"data.test", test.Len(),
	)
	return splits, nil
}

func (p *WiLIProvider) exists(name string) bool {
	_, err := os.Stat(filepath.Join(p.dir, name))
	return err == nil
}

func (p *WiLIProvider) readSplit(ctx context.Context, xName, yName string) (Split, error) {
	if err := ctx.Err(); err != nil {
		return Split{}, err
	}
	texts, err := readLines(filepath.Join(p.dir, xName))
	if err != nil {
		return Split{}, err
	}
	labels, err := readLines(filepath.Join(p.dir, yName))
	if err != nil {
		return Split{}, err
	}
	for i := range labels {
		labels[i] = strings.TrimSpace(labels[i])
	}
	split := Split{Texts: texts, Labels: labels}
	if err := split.Validate(strings.TrimSuffix(xName, ".txt")); err != nil {
		return Split{}, err
	}
	return split, nil
}

// readClasses returns nil when labels.csv does not exist.
func (p *WiLIProvider) readClasses() ([]string, error) {
	path := filepath.Join(p.dir, FileLabels)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return ParseLabelsCSV(f)
}

// ParseLabelsCSV reads the Label column of a ';'-separated labels file.
func ParseLabelsCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read labels header")
	}
	col := -1
	for i, name := range header {
		if strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) == "Label" {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, errors.NewValidationError("labels.csv", "missing Label column", header)
	}

	var classes []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read labels")
		}
		if col < len(record) && strings.TrimSpace(record[col]) != "" {
			classes = append(classes, strings.TrimSpace(record[col]))
		}
	}
	if len(classes) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "labels.csv has no labels")
	}
	return classes, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return lines, nil
}
