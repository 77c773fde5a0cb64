package trainer

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/YuminosukeSato/lidmlp/config"
	"github.com/YuminosukeSato/lidmlp/core/model"
	"github.com/YuminosukeSato/lidmlp/dataset"
	"github.com/YuminosukeSato/lidmlp/evaluation"
	"github.com/YuminosukeSato/lidmlp/features"
	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"github.com/YuminosukeSato/lidmlp/pkg/log"
	nn "github.com/YuminosukeSato/lidmlp/sklearn/neural_network"
)

// RunWiLI evaluates a model on the WiLI test split. With an empty
// modelPath a freshly initialized network sized to the features is used;
// otherwise the saved network is loaded and its input width checked.
func RunWiLI(ctx context.Context, cfg *config.Config, provider dataset.Provider, extractor features.Extractor, resultFile, modelPath string) (*evaluation.Result, error) {
	data, err := LoadFeatures(ctx, provider, extractor)
	if err != nil {
		return nil, err
	}

	var m *nn.Sequential
	if modelPath == "" {
		m, err = BuildModel(cfg, data)
	} else {
		m, err = nn.LoadSequential(modelPath)
	}
	if err != nil {
		return nil, err
	}
	if m.InputDim() != data.Width {
		return nil, errors.Wrap(errors.NewDimensionError("RunWiLI", m.InputDim(), data.Width, 1),
			"model input width does not match the extracted features")
	}
	if m.OutputDim() != data.NClasses() {
		return nil, errors.Wrap(errors.NewDimensionError("RunWiLI", m.OutputDim(), data.NClasses(), 1),
			"model output width does not match the class count")
	}
	if modelPath != "" {
		if err := checkClasses(metadataPath(modelPath), data.Classes); err != nil {
			return nil, err
		}
	}

	log.GetLoggerWithName("trainer").Info("Evaluating on WiLI",
		log.ModelNameKey, m.Name(),
		log.PathKey, resultFile,
		"model.fitted", m.IsFitted(),
	)
	return evaluation.EvalWiLI(ctx, resultFile, PredictFunc(m), data)
}

// metadataPath is the JSON sidecar written next to a saved model.
func metadataPath(modelPath string) string {
	return strings.TrimSuffix(modelPath, filepath.Ext(modelPath)) + ".json"
}

// checkClasses compares the class order stored in the sidecar at path with
// the classes of the extracted features. A missing sidecar is not an error.
func checkClasses(path string, classes []string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.GetLoggerWithName("trainer").Warn("Model metadata not found, class order unchecked", log.PathKey, path)
		return nil
	}
	md, err := model.LoadMetadata(path)
	if err != nil {
		return err
	}
	if !slices.Equal(md.Classes, classes) {
		return errors.Newf("model %s was trained on classes %v, dataset has %v", md.Name, md.Classes, classes)
	}
	return nil
}
