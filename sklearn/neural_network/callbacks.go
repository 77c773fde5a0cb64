package neural_network

import (
	"math"
	"time"

	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"github.com/YuminosukeSato/lidmlp/pkg/log"
)

// Metric names reported in epoch logs.
const (
	MetricLoss        = "loss"
	MetricAccuracy    = "accuracy"
	MetricValLoss     = "val_loss"
	MetricValAccuracy = "val_accuracy"
)

// CallbackEnv is passed to callbacks at the end of every epoch.
type CallbackEnv struct {
	Model        *Sequential
	Epoch        int // 1-based
	Epochs       int
	BeginTime    time.Time
	EndTime      time.Time
	Logs         map[string]float64
	StopTraining bool
}

// Callback is called after every epoch. Returning an error aborts Fit.
type Callback func(env *CallbackEnv) error

// History records per-epoch metrics.
type History struct {
	Epochs  []int
	Metrics map[string][]float64
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{Metrics: make(map[string][]float64)}
}

// Get returns the recorded values of a metric.
func (h *History) Get(metric string) []float64 {
	return h.Metrics[metric]
}

// Last returns the final value of a metric.
func (h *History) Last(metric string) (float64, bool) {
	v := h.Metrics[metric]
	if len(v) == 0 {
		return 0, false
	}
	return v[len(v)-1], true
}

// Len returns the number of completed epochs.
func (h *History) Len() int {
	return len(h.Epochs)
}

// RecordHistory appends every epoch's logs to h.
func RecordHistory(h *History) Callback {
	return func(env *CallbackEnv) error {
		h.Epochs = append(h.Epochs, env.Epoch)
		for name, value := range env.Logs {
			h.Metrics[name] = append(h.Metrics[name], value)
		}
		return nil
	}
}

// LogProgress logs the epoch metrics every period epochs and on the last one.
func LogProgress(logger log.Logger, period int) Callback {
	if period <= 0 {
		period = 1
	}
	return func(env *CallbackEnv) error {
		if env.Epoch%period != 0 && env.Epoch != env.Epochs {
			return nil
		}
		fields := []any{
			log.EpochKey, env.Epoch,
			log.EpochsKey, env.Epochs,
			log.DurationMsKey, env.EndTime.Sub(env.BeginTime).Milliseconds(),
		}
		for _, m := range []struct{ key, name string }{
			{log.LossKey, MetricLoss},
			{log.AccuracyKey, MetricAccuracy},
			{log.ValLossKey, MetricValLoss},
			{log.ValAccuracyKey, MetricValAccuracy},
		} {
			if v, ok := env.Logs[m.name]; ok {
				fields = append(fields, m.key, v)
			}
		}
		logger.Info("Epoch finished", fields...)
		return nil
	}
}

// EarlyStopping tracks a monitored metric and signals when it has not
// improved for Patience epochs.
type EarlyStopping struct {
	Patience        int
	Monitor         string
	Minimize        bool
	MinDelta        float64
	BestScore       float64
	BestEpoch       int
	EpochsNoImprove int
	Enabled         bool
}

// NewEarlyStopping creates an EarlyStopping handler. Patience <= 0
// disables it. Accuracy metrics are maximized, everything else minimized.
func NewEarlyStopping(patience int, monitor string) *EarlyStopping {
	if patience <= 0 {
		return &EarlyStopping{Enabled: false}
	}
	minimize := true
	switch monitor {
	case MetricAccuracy, MetricValAccuracy:
		minimize = false
	}
	best := math.Inf(1)
	if !minimize {
		best = math.Inf(-1)
	}
	return &EarlyStopping{
		Patience:  patience,
		Monitor:   monitor,
		Minimize:  minimize,
		BestScore: best,
		Enabled:   true,
	}
}

// Update records the score of an epoch and reports whether to stop.
func (es *EarlyStopping) Update(epoch int, score float64) bool {
	if !es.Enabled {
		return false
	}
	var improved bool
	if es.Minimize {
		improved = score < es.BestScore-es.MinDelta
	} else {
		improved = score > es.BestScore+es.MinDelta
	}
	if improved {
		es.BestScore = score
		es.BestEpoch = epoch
		es.EpochsNoImprove = 0
	} else {
		es.EpochsNoImprove++
	}
	return es.ShouldStop()
}

// ShouldStop reports whether patience is exhausted.
func (es *EarlyStopping) ShouldStop() bool {
	return es.Enabled && es.EpochsNoImprove >= es.Patience
}

// EarlyStoppingCallback stops training when monitor has not improved for
// patience epochs. A missing metric is an error.
func EarlyStoppingCallback(patience int, monitor string) Callback {
	es := NewEarlyStopping(patience, monitor)
	logger := log.GetLoggerWithName("neural_network")
	return func(env *CallbackEnv) error {
		if !es.Enabled {
			return nil
		}
		score, ok := env.Logs[monitor]
		if !ok {
			return errors.NewValidationError("monitor", "metric not reported by Fit", monitor)
		}
		if es.Update(env.Epoch, score) {
			logger.Info("Early stopping",
				log.EpochKey, env.Epoch,
				"training.best_epoch", es.BestEpoch,
				"training.monitor", monitor,
				"training.best_score", es.BestScore,
			)
			env.StopTraining = true
		}
		return nil
	}
}

// ModelCheckpoint saves the model to path whenever monitor improves.
func ModelCheckpoint(path, monitor string) Callback {
	es := NewEarlyStopping(1, monitor)
	return func(env *CallbackEnv) error {
		score, ok := env.Logs[monitor]
		if !ok {
			return errors.NewValidationError("monitor", "metric not reported by Fit", monitor)
		}
		es.Update(env.Epoch, score)
		if es.BestEpoch != env.Epoch {
			return nil
		}
		if err := env.Model.Save(path); err != nil {
			return errors.Wrap(err, "failed to save checkpoint")
		}
		return nil
	}
}

// CallbackList runs callbacks in order and carries the stop flag.
type CallbackList struct {
	callbacks []Callback
	env       *CallbackEnv
}

// NewCallbackList creates a new callback list.
func NewCallbackList(model *Sequential, epochs int, callbacks ...Callback) *CallbackList {
	return &CallbackList{
		callbacks: callbacks,
		env:       &CallbackEnv{Model: model, Epochs: epochs},
	}
}

// BeforeEpoch marks the start time of epoch.
func (cl *CallbackList) BeforeEpoch(epoch int) {
	cl.env.Epoch = epoch
	cl.env.BeginTime = time.Now()
}

// AfterEpoch calls every callback with the epoch logs.
func (cl *CallbackList) AfterEpoch(epoch int, logs map[string]float64) error {
	cl.env.Epoch = epoch
	cl.env.EndTime = time.Now()
	cl.env.Logs = logs
	for _, cb := range cl.callbacks {
		if err := cb(cl.env); err != nil {
			return err
		}
	}
	return nil
}

// ShouldStop returns whether a callback requested a stop.
func (cl *CallbackList) ShouldStop() bool {
	return cl.env.StopTraining
}
