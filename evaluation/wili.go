// Package evaluation runs a prediction callback over the WiLI test split
// and writes the predicted labels to a results file.
package evaluation

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lidmlp/features"
	"github.com/YuminosukeSato/lidmlp/metrics"
	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"github.com/YuminosukeSato/lidmlp/pkg/log"
)

// DefaultResultFile is used when no result path is given.
const DefaultResultFile = "cld2_results.txt"

// batchSize is the number of rows handed to the callback per call.
const batchSize = 512

// PredictFunc maps a batch of feature rows to one probability row per
// sample, columns indexed like FeatureSet.Classes.
type PredictFunc func(X mat.Matrix) (*mat.Dense, error)

// Result summarizes an evaluation run.
type Result struct {
	Path        string
	Samples     int
	Accuracy    float64
	Duration    time.Duration
	Predictions []string
	// Confusion is indexed [true][predicted].
	Confusion *mat.Dense
	// ClassRecall is the per-class accuracy, indexed like Classes.
	ClassRecall []float64
}

// EvalWiLI predicts the test split of data with predict, writes one label
// per line to resultFile and scores the predictions against the test labels.
func EvalWiLI(ctx context.Context, resultFile string, predict PredictFunc, data *features.FeatureSet) (*Result, error) {
	if predict == nil {
		return nil, errors.NewValidationError("predict", "is required", nil)
	}
	if data == nil || data.Test.X == nil {
		return nil, errors.Wrap(errors.ErrEmptyData, "no test split")
	}
	if resultFile == "" {
		resultFile = DefaultResultFile
	}
	logger := log.GetLoggerWithName("evaluation").With(
		log.OperationKey, log.OperationEvaluate,
		log.PathKey, resultFile,
	)

	start := time.Now()
	n, width := data.Test.X.Dims()
	classes := data.NClasses()
	predicted := make([]int, 0, n)

	for b := 0; b < n; b += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := b + batchSize
		if end > n {
			end = n
		}
		var P *mat.Dense
		err := errors.SafeExecute("EvalWiLI.predict", func() (err error) {
			P, err = predict(data.Test.X.Slice(b, end, 0, width))
			return err
		})
		if err != nil {
			return nil, errors.Wrapf(err, "predict rows %d-%d", b, end)
		}
		rows, cols := P.Dims()
		if rows != end-b {
			return nil, errors.NewDimensionError("EvalWiLI", end-b, rows, 0)
		}
		if cols != classes {
			return nil, errors.NewDimensionError("EvalWiLI", classes, cols, 1)
		}
		if err := errors.CheckMatrix("EvalWiLI.predict", P, rows, cols, b/batchSize); err != nil {
			return nil, err
		}
		predicted = append(predicted, metrics.ArgMax(P)...)
	}

	labels := make([]string, len(predicted))
	for i, idx := range predicted {
		labels[i] = data.Classes[idx]
	}
	if err := writeLines(resultFile, labels); err != nil {
		return nil, err
	}

	acc, err := metrics.AccuracyScore(data.Test.Labels, predicted)
	if err != nil {
		return nil, err
	}
	cm, err := metrics.ConfusionMatrix(data.Test.Labels, predicted, classes)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Path:        resultFile,
		Samples:     n,
		Accuracy:    acc,
		Duration:    time.Since(start),
		Predictions: labels,
		Confusion:   cm,
		ClassRecall: metrics.ClassRecall(cm),
	}
	logger.Info("WiLI evaluation finished",
		log.SamplesKey, n,
		log.AccuracyKey, acc,
		log.DurationSecondsKey, res.Duration.Seconds(),
	)
	return res, nil
}

func writeLines(path string, lines []string) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
	}
	return errors.Wrapf(w.Flush(), "flush %s", path)
}
