// Package lidmlp trains a multilayer perceptron for written language
// identification on the WiLI-2018 benchmark.
//
// Texts are turned into character (or word) TF-IDF vectors, a three-layer
// network Dense(512, relu) -> Dense(C) -> softmax is trained with Adam on
// categorical cross-entropy, and the test accuracy is printed next to a
// uniform random baseline.
//
// # Installation
//
//	go install github.com/YuminosukeSato/lidmlp/cmd/mlp@latest
//
// # Quick Start
//
// Write a config (every key is optional except data.path):
//
//	data:
//	  provider: wili
//	  path: data/wili
//	training:
//	  epochs: 20
//
// Then train and evaluate:
//
//	mlp train --config mlp.yaml
//	mlp wili --config mlp.yaml --model mlp-3layer-tfidf-50.h5 --result_file cld2_results.txt
//
// The train command prints lines like:
//
//	Random                        : 0.47% in 0.00s train / 0.00s test
//	MLP                           : 66.67% in 1.23s train / 0.01s test
//
// # Library use
//
//	vec := preprocessing.NewTfidfVectorizer()
//	X, _ := vec.FitTransform(texts)
//	m, _ := neural_network.BuildMLP(nClasses, []int{width})
//	adam, _ := neural_network.NewAdam(0.0001)
//	_ = m.Compile(adam, neural_network.LossCategoricalCrossEntropy, neural_network.MetricAccuracy)
//	history, err := m.Fit(ctx, X, Y, neural_network.FitOptions{Epochs: 20, BatchSize: 32, Shuffle: true})
//
// # Packages
//
//   - cmd/mlp: the train and wili commands
//   - config: YAML run configuration with defaults and validation
//   - dataset: WiLI file provider and in-memory provider
//   - preprocessing: TF-IDF/count vectorizers and label encoding
//   - features: splits to matrices through a named extractor
//   - sklearn/neural_network: Sequential model, Dense layers, Adam, callbacks
//   - trainer: the end-to-end training and evaluation runs
//   - evaluation: WiLI results file writer
//   - metrics: accuracy, log loss, confusion matrix
//   - report: result table and training curves
//   - core/model, core/parallel: shared state, persistence, worker fan-out
//   - pkg/errors, pkg/log: error types and structured logging
//
// # License
//
// lidmlp is released under the MIT License.
package lidmlp
