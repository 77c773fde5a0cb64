// Package report prints the accuracy table of a training run and renders
// its training curves.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/YuminosukeSato/lidmlp/pkg/errors"
)

// RowFormat is the layout of one result line.
const RowFormat = "%-30s: %4.2f%% in %.2fs train / %.2fs test\n"

// Row is one classifier's result. Accuracy is a fraction in [0, 1].
type Row struct {
	Name      string
	Accuracy  float64
	TrainTime time.Duration
	TestTime  time.Duration
}

// Baseline is the uniform random guesser over baselineClasses classes.
func Baseline(baselineClasses int) Row {
	return Row{Name: "Random", Accuracy: 1 / float64(baselineClasses)}
}

// Reporter writes result rows.
type Reporter struct {
	w io.Writer
}

// NewReporter creates a Reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// WriteRow writes one formatted row.
func (r *Reporter) WriteRow(row Row) error {
	_, err := fmt.Fprintf(r.w, RowFormat, row.Name, row.Accuracy*100, row.TrainTime.Seconds(), row.TestTime.Seconds())
	return errors.Wrap(err, "write report row")
}

// Report writes the random baseline followed by result.
func (r *Reporter) Report(baselineClasses int, result Row) error {
	if baselineClasses <= 0 {
		return errors.NewValidationError("baseline_classes", "must be positive", baselineClasses)
	}
	if err := r.WriteRow(Baseline(baselineClasses)); err != nil {
		return err
	}
	return r.WriteRow(result)
}
