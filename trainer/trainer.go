// Package trainer wires a dataset provider, a feature extractor and the
// MLP into the train and WiLI evaluation runs.
package trainer

import (
	"context"
	"io"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lidmlp/config"
	"github.com/YuminosukeSato/lidmlp/core/model"
	"github.com/YuminosukeSato/lidmlp/dataset"
	"github.com/YuminosukeSato/lidmlp/evaluation"
	"github.com/YuminosukeSato/lidmlp/features"
	"github.com/YuminosukeSato/lidmlp/metrics"
	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"github.com/YuminosukeSato/lidmlp/pkg/log"
	"github.com/YuminosukeSato/lidmlp/report"
	nn "github.com/YuminosukeSato/lidmlp/sklearn/neural_network"
)

// ResultName labels the model row of the report.
const ResultName = "MLP"

// Result summarizes a training run.
type Result struct {
	Accuracy      float64
	TrainDuration time.Duration
	TestDuration  time.Duration
	ModelPath     string
	MetadataPath  string
	History       *nn.History
}

// NewOptimizer returns Adam configured from cfg.
func NewOptimizer(cfg *config.Config) (nn.Optimizer, error) {
	adam, err := nn.NewAdam(cfg.Optimizer.InitialLR)
	if err != nil {
		return nil, err
	}
	return adam, nil
}

// PredictFunc binds m to the evaluation callback signature. The raw
// probability matrix is returned unchanged.
func PredictFunc(m *nn.Sequential) evaluation.PredictFunc {
	return func(X mat.Matrix) (*mat.Dense, error) {
		return m.Predict(X)
	}
}

// LoadFeatures loads the splits and converts them to matrices.
func LoadFeatures(ctx context.Context, provider dataset.Provider, extractor features.Extractor) (*features.FeatureSet, error) {
	splits, err := provider.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load dataset")
	}
	data, err := extractor.Extract(ctx, splits)
	if err != nil {
		return nil, errors.Wrap(err, "extract features")
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}

// BuildModel creates and compiles the MLP for data.
func BuildModel(cfg *config.Config, data *features.FeatureSet) (*nn.Sequential, error) {
	m, err := nn.BuildMLP(data.NClasses(), []int{data.Width},
		nn.WithName(cfg.Model.Name),
		nn.WithHiddenUnits(cfg.Model.HiddenUnits),
		nn.WithSeed(cfg.Training.Seed),
	)
	if err != nil {
		return nil, err
	}
	opt, err := NewOptimizer(cfg)
	if err != nil {
		return nil, err
	}
	if err := m.Compile(opt, nn.LossCategoricalCrossEntropy, nn.MetricAccuracy); err != nil {
		return nil, err
	}
	return m, nil
}

// Run trains the MLP, saves it, scores it on the test split and writes the
// report to out.
func Run(ctx context.Context, cfg *config.Config, provider dataset.Provider, extractor features.Extractor, out io.Writer) (*Result, error) {
	logger := log.GetLoggerWithName("trainer").With(log.ModelNameKey, cfg.Model.Name)

	data, err := LoadFeatures(ctx, provider, extractor)
	if err != nil {
		return nil, err
	}
	logger.Info("Features ready",
		log.SamplesKey, data.Train.Rows(),
		log.FeaturesKey, data.Width,
		log.ClassesKey, data.NClasses(),
	)

	m, err := BuildModel(cfg, data)
	if err != nil {
		return nil, err
	}
	logger.Debug(m.Summary())

	trainStart := time.Now()
	history, err := m.Fit(ctx, data.Train.X, data.Train.Y, fitOptions(cfg, data))
	if err != nil {
		return nil, errors.Wrap(err, "fit")
	}
	trainDuration := time.Since(trainStart)

	res := &Result{
		TrainDuration: trainDuration,
		ModelPath:     cfg.ModelPath(),
		MetadataPath:  cfg.MetadataPath(),
		History:       history,
	}
	if err := m.Save(res.ModelPath); err != nil {
		return nil, err
	}

	testStart := time.Now()
	P, err := m.Predict(data.Test.X)
	if err != nil {
		return nil, errors.Wrap(err, "predict test split")
	}
	res.TestDuration = time.Since(testStart)
	rows, cols := P.Dims()
	if err := errors.CheckMatrix("predict_test", P, rows, cols, history.Len()); err != nil {
		return nil, err
	}
	res.Accuracy, err = metrics.AccuracyScore(data.Test.Labels, metrics.ArgMax(P))
	if err != nil {
		return nil, err
	}

	if err := model.SaveMetadata(metadata(m, data, res), res.MetadataPath); err != nil {
		return nil, err
	}

	row := report.Row{
		Name:      ResultName,
		Accuracy:  res.Accuracy,
		TrainTime: res.TrainDuration,
		TestTime:  res.TestDuration,
	}
	if err := report.NewReporter(out).Report(cfg.Report.BaselineClasses, row); err != nil {
		return nil, err
	}
	if cfg.Report.HistoryPlot != "" {
		if err := report.PlotHistory(cfg.Report.HistoryPlot, cfg.Model.Name, history.Epochs, history.Metrics); err != nil {
			return nil, err
		}
	}

	logger.Info("Run finished",
		log.AccuracyKey, res.Accuracy,
		log.PathKey, res.ModelPath,
		log.DurationSecondsKey, trainDuration.Seconds(),
	)
	return res, nil
}

func fitOptions(cfg *config.Config, data *features.FeatureSet) nn.FitOptions {
	opts := nn.FitOptions{
		Epochs:         cfg.Training.Epochs,
		BatchSize:      cfg.Training.BatchSize,
		Shuffle:        cfg.Training.Shuffle,
		ValidationData: &nn.ValidationData{X: data.Validation.X, Y: data.Validation.Y},
	}
	if p := cfg.Training.EarlyStoppingPatience; p > 0 {
		opts.Callbacks = append(opts.Callbacks, nn.EarlyStoppingCallback(p, nn.MetricValLoss))
	}
	return opts
}

func metadata(m *nn.Sequential, data *features.FeatureSet, res *Result) *model.ModelMetadata {
	md := m.Metadata()
	md.Classes = append([]string(nil), data.Classes...)
	md.Metrics = map[string]float64{
		"test_accuracy": res.Accuracy,
		"train_seconds": res.TrainDuration.Seconds(),
		"test_seconds":  res.TestDuration.Seconds(),
	}
	for name := range res.History.Metrics {
		if v, ok := res.History.Last(name); ok {
			md.Metrics[name] = v
		}
	}
	return md
}
