package neural_network

import (
	"context"
	"time"

	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"github.com/YuminosukeSato/lidmlp/pkg/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ValidationData is evaluated after every epoch.
type ValidationData struct {
	X mat.Matrix
	Y mat.Matrix
}

// FitOptions controls the training loop.
type FitOptions struct {
	Epochs         int
	BatchSize      int
	Shuffle        bool
	ValidationData *ValidationData
	Callbacks      []Callback
	// LogEvery logs progress every N epochs; zero means every epoch.
	LogEvery int
}

// Fit trains the network on one-hot targets Y with minibatch gradient
// descent. The context is checked before every batch. A NaN or Inf batch
// loss aborts training with a NumericalInstabilityError.
func (s *Sequential) Fit(ctx context.Context, X, Y mat.Matrix, opts FitOptions) (history *History, err error) {
	defer errors.Recover(&err, "Sequential.Fit")

	if s.optimizer == nil || s.loss == nil {
		return nil, errors.ErrNotCompiled
	}
	if opts.Epochs <= 0 {
		return nil, errors.NewValidationError("epochs", "must be positive", opts.Epochs)
	}
	if opts.BatchSize <= 0 {
		return nil, errors.NewValidationError("batch_size", "must be positive", opts.BatchSize)
	}
	if err := s.checkInput("Fit", X); err != nil {
		return nil, err
	}
	if err := s.checkTargets("Fit", X, Y); err != nil {
		return nil, err
	}
	if v := opts.ValidationData; v != nil {
		if err := s.checkInput("Fit", v.X); err != nil {
			return nil, errors.Wrap(err, "validation data")
		}
		if err := s.checkTargets("Fit", v.X, v.Y); err != nil {
			return nil, errors.Wrap(err, "validation data")
		}
	}

	n, _ := X.Dims()
	logger := s.logger.With(log.OperationKey, log.OperationFit, log.PhaseKey, log.PhaseTraining)
	logger.Info("Training started",
		log.SamplesKey, n,
		log.EpochsKey, opts.Epochs,
		log.BatchSizeKey, opts.BatchSize,
		log.LearningRateKey, s.optimizer.LearningRate(),
	)

	history = NewHistory()
	callbacks := append([]Callback{RecordHistory(history), LogProgress(logger, opts.LogEvery)}, opts.Callbacks...)
	cbList := NewCallbackList(s, opts.Epochs, callbacks...)
	params, grads := s.trainableParams()

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	start := time.Now()

	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		cbList.BeforeEpoch(epoch)
		if opts.Shuffle {
			s.rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		var lossSum float64
		var correct int
		for b := 0; b < n; b += opts.BatchSize {
			if err := ctx.Err(); err != nil {
				return history, err
			}
			end := b + opts.BatchSize
			if end > n {
				end = n
			}
			xb := gatherRows(X, order[b:end])
			yb := gatherRows(Y, order[b:end])

			loss, P := s.lossAndGradients(xb, yb)
			if err := errors.CheckScalar("loss_calculation", loss, epoch); err != nil {
				logger.Error("Training diverged", err, log.EpochKey, epoch, log.StepKey, b/opts.BatchSize)
				return history, err
			}
			if err := s.optimizer.Step(params, grads); err != nil {
				return history, err
			}

			lossSum += loss * float64(end-b)
			correct += countCorrect(yb, P)
		}

		logs := map[string]float64{MetricLoss: lossSum / float64(n)}
		if len(s.metrics) > 0 {
			logs[MetricAccuracy] = float64(correct) / float64(n)
		}
		if v := opts.ValidationData; v != nil {
			valLoss, valAcc, err := s.Evaluate(v.X, v.Y)
			if err != nil {
				return history, errors.Wrap(err, "validation")
			}
			logs[MetricValLoss] = valLoss
			if len(s.metrics) > 0 {
				logs[MetricValAccuracy] = valAcc
			}
		}

		if err := cbList.AfterEpoch(epoch, logs); err != nil {
			return history, err
		}
		if cbList.ShouldStop() {
			break
		}
	}

	s.state.SetFitted()
	s.warnIfNotConverged(history)
	logger.Info("Training finished",
		log.EpochsKey, history.Len(),
		log.DurationSecondsKey, time.Since(start).Seconds(),
	)
	return history, nil
}

func (s *Sequential) warnIfNotConverged(h *History) {
	losses := h.Get(MetricLoss)
	if len(losses) < 2 {
		return
	}
	if losses[len(losses)-1] >= losses[0] {
		errors.Warn(errors.NewConvergenceWarning(s.name, len(losses),
			"final training loss did not improve over the first epoch"))
	}
}

func countCorrect(Y, P *mat.Dense) int {
	r, _ := Y.Dims()
	correct := 0
	for i := 0; i < r; i++ {
		if floats.MaxIdx(Y.RawRowView(i)) == floats.MaxIdx(P.RawRowView(i)) {
			correct++
		}
	}
	return correct
}
