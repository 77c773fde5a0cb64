package trainer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lidmlp/config"
	"github.com/YuminosukeSato/lidmlp/core/model"
	"github.com/YuminosukeSato/lidmlp/dataset"
	"github.com/YuminosukeSato/lidmlp/features"
	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"github.com/YuminosukeSato/lidmlp/pkg/log"
	nn "github.com/YuminosukeSato/lidmlp/sklearn/neural_network"
)

func quietLogs(t *testing.T) *log.TestLogger {
	t.Helper()
	provider, logger := log.NewTestLoggerProvider(log.LevelDebug)
	prev := log.SetProvider(provider)
	t.Cleanup(func() { log.SetProvider(prev) })
	return logger
}

// threeLanguages is a 6/2/2 split over three classes with disjoint
// character sets.
func threeLanguages() *dataset.Splits {
	return &dataset.Splits{
		Train: dataset.Split{
			Texts:  []string{"aaa ab", "aab ba", "xxy yx", "yyx xy", "mmn nm", "nnm mn"},
			Labels: []string{"aaa", "aaa", "xxx", "xxx", "mmm", "mmm"},
		},
		Validation: dataset.Split{
			Texts:  []string{"abab", "xyxy"},
			Labels: []string{"aaa", "xxx"},
		},
		Test: dataset.Split{
			Texts:  []string{"baba", "nmnm"},
			Labels: []string{"aaa", "mmm"},
		},
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Provider = "memory"
	cfg.Model.OutputDir = t.TempDir()
	cfg.Model.HiddenUnits = 16
	cfg.Training.Epochs = 3
	cfg.Training.BatchSize = 2
	require.NoError(t, cfg.Validate())
	return cfg
}

func tfidf(t *testing.T) features.Extractor {
	t.Helper()
	ex, err := features.New("tfidf", features.Options{Analyzer: "char", NgramMin: 1, NgramMax: 1, MinDF: 1})
	require.NoError(t, err)
	return ex
}

func TestRunEndToEnd(t *testing.T) {
	quietLogs(t)
	cfg := testConfig(t)
	cfg.Report.HistoryPlot = filepath.Join(cfg.Model.OutputDir, "history.png")

	var out bytes.Buffer
	res, err := Run(context.Background(), cfg, dataset.NewMemoryProvider(threeLanguages()), tfidf(t), &out)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cfg.Model.OutputDir, "mlp-3layer-tfidf-50.h5"), res.ModelPath)
	assert.FileExists(t, res.ModelPath)
	assert.FileExists(t, res.MetadataPath)
	assert.FileExists(t, cfg.Report.HistoryPlot)
	assert.Equal(t, 3, res.History.Len())
	assert.GreaterOrEqual(t, res.Accuracy, 0.0)
	assert.LessOrEqual(t, res.Accuracy, 1.0)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Random"))
	assert.Contains(t, lines[0], "0.47%")
	assert.True(t, strings.HasPrefix(lines[1], "MLP"))

	md, err := model.LoadMetadata(res.MetadataPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa", "mmm", "xxx"}, md.Classes)
	assert.Equal(t, 3, md.OutputDim())
	assert.Contains(t, md.Metrics, "val_loss")
	assert.InDelta(t, res.Accuracy, md.Metrics["test_accuracy"], 1e-12)

	loaded, err := nn.LoadSequential(res.ModelPath)
	require.NoError(t, err)
	assert.True(t, loaded.IsFitted())
}

func TestRunEarlyStopping(t *testing.T) {
	logger := quietLogs(t)
	cfg := testConfig(t)
	cfg.Training.Epochs = 200
	cfg.Training.EarlyStoppingPatience = 1
	cfg.Optimizer.InitialLR = 0.01

	// Swapped validation labels make val_loss grow as the train split is learned.
	splits := threeLanguages()
	splits.Validation.Labels = []string{"xxx", "aaa"}

	res, err := Run(context.Background(), cfg, dataset.NewMemoryProvider(splits), tfidf(t), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Less(t, res.History.Len(), 200)
	assert.True(t, logger.ContainsMessage("Early stopping"))
}

func TestRunErrors(t *testing.T) {
	quietLogs(t)
	cfg := testConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, cfg, dataset.NewMemoryProvider(threeLanguages()), tfidf(t), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)

	bad := threeLanguages()
	bad.Classes = []string{"aaa", "xxx"}
	_, err = Run(context.Background(), cfg, dataset.NewMemoryProvider(bad), tfidf(t), &bytes.Buffer{})
	assert.True(t, errors.Is(err, errors.ErrUnknownLabel))
}

func TestNewOptimizer(t *testing.T) {
	cfg := config.Default()
	opt, err := NewOptimizer(cfg)
	require.NoError(t, err)
	assert.Equal(t, "adam", opt.Name())
	assert.Equal(t, 0.0001, opt.LearningRate())

	cfg.Optimizer.InitialLR = -1
	_, err = NewOptimizer(cfg)
	assert.Error(t, err)
}

func TestRunWiLI(t *testing.T) {
	quietLogs(t)
	cfg := testConfig(t)
	provider := dataset.NewMemoryProvider(threeLanguages())
	resultFile := filepath.Join(t.TempDir(), "results.txt")

	fresh, err := RunWiLI(context.Background(), cfg, provider, tfidf(t), resultFile, "")
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Samples)
	body, err := os.ReadFile(resultFile)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(body)), "\n"), 2)

	res, err := Run(context.Background(), cfg, provider, tfidf(t), &bytes.Buffer{})
	require.NoError(t, err)
	trained, err := RunWiLI(context.Background(), cfg, provider, tfidf(t), resultFile, res.ModelPath)
	require.NoError(t, err)
	assert.InDelta(t, res.Accuracy, trained.Accuracy, 1e-12)

	// Word features do not match a model trained on char features.
	words, err := features.New("tfidf", features.Options{Analyzer: "word", NgramMin: 1, NgramMax: 1})
	require.NoError(t, err)
	_, err = RunWiLI(context.Background(), cfg, provider, words, resultFile, res.ModelPath)
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))
}

func TestRunWiLIChecksClassOrder(t *testing.T) {
	quietLogs(t)
	cfg := testConfig(t)
	provider := dataset.NewMemoryProvider(threeLanguages())
	resultFile := filepath.Join(t.TempDir(), "results.txt")

	res, err := Run(context.Background(), cfg, provider, tfidf(t), &bytes.Buffer{})
	require.NoError(t, err)

	md, err := model.LoadMetadata(res.MetadataPath)
	require.NoError(t, err)
	md.Classes = []string{"xxx", "mmm", "aaa"}
	require.NoError(t, model.SaveMetadata(md, res.MetadataPath))

	_, err = RunWiLI(context.Background(), cfg, provider, tfidf(t), resultFile, res.ModelPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "was trained on classes")

	require.NoError(t, os.Remove(res.MetadataPath))
	_, err = RunWiLI(context.Background(), cfg, provider, tfidf(t), resultFile, res.ModelPath)
	assert.NoError(t, err)
}

func TestCollaborators(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		dataset.FileXTrain: "aaa\nxxx\naab\nxxy\n",
		dataset.FileYTrain: "a\nx\na\nx\n",
		dataset.FileXTest:  "aba\nxyx\n",
		dataset.FileYTest:  "a\nx\n",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	cfg := config.Default()
	cfg.Data.Path = dir
	cfg.Data.ValidationFraction = 0.5
	provider, extractor, err := Collaborators(cfg)
	require.NoError(t, err)

	data, err := LoadFeatures(context.Background(), provider, extractor)
	require.NoError(t, err)
	assert.Equal(t, 2, data.Train.Rows())
	assert.Equal(t, 2, data.Validation.Rows())
	assert.Equal(t, []string{"a", "x"}, data.Classes)

	cfg.Features.Extractor = "word2vec"
	_, _, err = Collaborators(cfg)
	var verr *errors.ValidationError
	assert.True(t, errors.As(err, &verr))

	cfg = config.Default()
	cfg.Data.Provider = "imdb"
	_, _, err = Collaborators(cfg)
	assert.True(t, errors.As(err, &verr))
}

func TestPredictFunc(t *testing.T) {
	m, err := nn.BuildMLP(3, []int{4}, nn.WithHiddenUnits(5))
	require.NoError(t, err)

	P, err := PredictFunc(m)(mat.NewDense(2, 4, []float64{1, 0, 0, 0, 0, 1, 0, 0}))
	require.NoError(t, err)
	r, c := P.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
}
