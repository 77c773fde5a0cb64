// Standard attribute keys for training and evaluation logs. Keys are
// dotted ("data.samples", "metrics.loss") so records can be filtered by
// prefix.

package log

// Model and operation context.
const (
	// ModelNameKey is the configured model name, e.g. "mlp-3layer-tfidf-50".
	ModelNameKey = "model.name"

	// OperationKey is the operation being performed: fit, predict, transform, evaluate.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package or subsystem.
	ComponentKey = "ml.component"

	// PhaseKey is the lifecycle phase: training, validation, testing, inference.
	PhaseKey = "ml.phase"

	// PathKey is a file path read or written by the operation.
	PathKey = "io.path"
)

// Data shape.
const (
	SamplesKey   = "data.samples"
	FeaturesKey  = "data.features"
	ClassesKey   = "data.classes"
	SplitKey     = "data.split"
	BatchSizeKey = "data.batch_size"
)

// Performance and metrics.
const (
	DurationMsKey      = "perf.duration_ms"
	DurationSecondsKey = "perf.duration_seconds"
	AccuracyKey        = "metrics.accuracy"
	LossKey            = "metrics.loss"
	ValAccuracyKey     = "metrics.val_accuracy"
	ValLossKey         = "metrics.val_loss"
	EpochKey           = "training.epoch"
	EpochsKey          = "training.epochs"
	StepKey            = "training.step"
)

// Errors.
const (
	ErrorCodeKey  = "error.code"
	ErrorTypeKey  = "error.type"
	SuggestionKey = "error.suggestion"
)

// Hyperparameters.
const (
	LearningRateKey = "hyperparams.learning_rate"
	HiddenUnitsKey  = "hyperparams.hidden_units"
	RandomSeedKey   = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationEvaluate  = "evaluate"
	OperationLoad      = "load"
	OperationSave      = "save"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseTesting       = "testing"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidConfig     = "INVALID_CONFIG"
	ErrorNumerical         = "NUMERICAL_INSTABILITY"
)
