package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lerrors "github.com/YuminosukeSato/lidmlp/pkg/errors"
)

func TestTestLogger(t *testing.T) {
	logger, buffer := NewTestLogger(LevelDebug)

	logger.Debug("debug message", "key1", "value1", "number", 42)
	logger.Info("info message", OperationKey, OperationFit)
	logger.Warn("warning message")
	logger.Error("error message", fmt.Errorf("boom"), ErrorCodeKey, ErrorEmptyData)

	assert.NotEmpty(t, buffer.String())
	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		assert.True(t, logger.ContainsMessage(msg), msg)
	}
	assert.True(t, logger.ContainsField("key1", "value1"))
	assert.True(t, logger.ContainsField("number", 42.0))
	assert.True(t, logger.ContainsField(ErrAttrKey, "boom"))
	assert.True(t, logger.ContainsField(ErrorCodeKey, ErrorEmptyData))

	entries, err := logger.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 4)
	assert.Equal(t, "ERROR", entries[3]["level"])
}

func TestTestLoggerLevelFilter(t *testing.T) {
	logger, _ := NewTestLogger(LevelWarn)

	logger.Debug("hidden debug")
	logger.Info("hidden info")
	logger.Warn("shown warn")

	assert.False(t, logger.ContainsMessage("hidden"))
	assert.True(t, logger.ContainsMessage("shown warn"))
	assert.False(t, logger.Enabled(context.Background(), LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), LevelError))
}

func TestTestLoggerWith(t *testing.T) {
	base, _ := NewTestLogger(LevelInfo)
	child := base.With(ModelNameKey, "mlp-3layer-tfidf-50", EpochKey, 3)
	child.Info("epoch done")
	base.Info("base message")

	entries, err := base.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "mlp-3layer-tfidf-50", entries[0][ModelNameKey])
	assert.Equal(t, 3.0, entries[0][EpochKey])
	_, ok := entries[1][ModelNameKey]
	assert.False(t, ok, "parent logger must not inherit child fields")
}

func TestTestLoggerConcurrent(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.With(StepKey, i).Info("step")
		}(i)
	}
	wg.Wait()

	entries, err := logger.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(&buf, LevelInfo)
	logger := provider.GetLoggerWithName("trainer")

	logger.Debug("not written")
	logger.Info("Epoch finished", EpochKey, 2, LossKey, 0.5, PhaseKey, PhaseTraining)
	logger.Error("fit failed", lerrors.New("bad input"), OperationKey, OperationFit)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &info))
	assert.Equal(t, "info", info["level"])
	assert.Equal(t, "Epoch finished", info["message"])
	assert.Equal(t, "trainer", info[ComponentKey])
	assert.Equal(t, 2.0, info[EpochKey])
	assert.Equal(t, 0.5, info[LossKey])

	var failed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &failed))
	assert.Equal(t, "error", failed["level"])
	assert.Equal(t, "bad input", failed["error"])
	assert.Equal(t, OperationFit, failed[OperationKey])

	provider.SetLevel(LevelDebug)
	buf.Reset()
	provider.GetLogger().Debug("now written")
	assert.Contains(t, buf.String(), "now written")
}

func TestZerologWarnError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelInfo)

	logger.WarnError(lerrors.NewEmptyFeatureWarning("test", 2, 10))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	warning, ok := entry["warning"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "EmptyFeatureWarning", warning["type"])
	assert.Equal(t, 2.0, warning["count"])
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelInfo, false},
		{"info", LevelInfo, false},
		{"DEBUG", LevelDebug, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ToLogLevel(tt.in)
			if tt.wantErr {
				var verr *lerrors.ValidationError
				assert.True(t, lerrors.As(err, &verr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupLogger(t *testing.T) {
	prev := SetProvider(NewZerologProvider(&bytes.Buffer{}, LevelInfo))
	t.Cleanup(func() {
		SetProvider(prev)
		lerrors.SetZerologWarnFunc(nil)
	})

	var buf bytes.Buffer
	require.NoError(t, SetupLogger("debug", &buf))

	GetLoggerWithName("dataset").Debug("loaded split", SplitKey, "train")
	lerrors.Warn(lerrors.NewConvergenceWarning("mlp", 20, "loss did not decrease"))

	out := buf.String()
	assert.Contains(t, out, "loaded split")
	assert.Contains(t, out, `"ml.component":"dataset"`)
	assert.Contains(t, out, "ConvergenceWarning")

	assert.Error(t, SetupLogger("loud", &buf))
}
