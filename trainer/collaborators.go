package trainer

import (
	"github.com/YuminosukeSato/lidmlp/config"
	"github.com/YuminosukeSato/lidmlp/dataset"
	"github.com/YuminosukeSato/lidmlp/features"
)

// Collaborators builds the provider and extractor named in cfg.
func Collaborators(cfg *config.Config) (dataset.Provider, features.Extractor, error) {
	provider, err := dataset.New(cfg.Data.Provider, dataset.Options{
		Path:               cfg.Data.Path,
		ValidationFraction: cfg.Data.ValidationFraction,
		Seed:               cfg.Training.Seed,
	})
	if err != nil {
		return nil, nil, err
	}
	extractor, err := features.New(cfg.Features.Extractor, features.Options{
		Analyzer:    cfg.Features.Analyzer,
		NgramMin:    cfg.Features.NgramMin,
		NgramMax:    cfg.Features.NgramMax,
		MinDF:       cfg.Features.MinDF,
		MaxFeatures: cfg.Features.MaxFeatures,
		Lowercase:   cfg.Features.Lowercase,
	})
	if err != nil {
		return nil, nil, err
	}
	return provider, extractor, nil
}
