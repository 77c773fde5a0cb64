package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/lidmlp/pkg/errors"
)

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	err := r.Report(211, Row{
		Name:      "MLP",
		Accuracy:  2.0 / 3.0,
		TrainTime: 1230 * time.Millisecond,
		TestTime:  10 * time.Millisecond,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Random                        : 0.47% in 0.00s train / 0.00s test", lines[0])
	assert.Equal(t, "MLP                           : 66.67% in 1.23s train / 0.01s test", lines[1])
}

func TestBaseline(t *testing.T) {
	assert.InDelta(t, 1.0/211.0, Baseline(211).Accuracy, 1e-15)
	assert.Equal(t, "Random", Baseline(3).Name)

	err := NewReporter(&bytes.Buffer{}).Report(0, Row{})
	var verr *errors.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestPlotHistory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.png")
	err := PlotHistory(path, "mlp", []int{1, 2, 3}, map[string][]float64{
		"loss":     {1.0, 0.6, 0.4},
		"val_loss": {1.1, 0.7, 0.5},
	})
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	err = PlotHistory(filepath.Join(dir, "bad.png"), "mlp", []int{1, 2}, map[string][]float64{"loss": {1}})
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))

	assert.Error(t, PlotHistory(filepath.Join(dir, "noext"), "mlp", []int{1}, nil))
	assert.True(t, errors.Is(PlotHistory(path, "mlp", nil, nil), errors.ErrEmptyData))
}
