package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/lidmlp/dataset"
	"github.com/YuminosukeSato/lidmlp/pkg/log"
)

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	prev := log.SetProvider(log.NewZerologProvider(&bytes.Buffer{}, log.LevelInfo))
	t.Cleanup(func() { log.SetProvider(prev) })

	var out, logs bytes.Buffer
	root := NewRootCommand(&out, &logs)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), logs.String(), err
}

func writeWiLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		dataset.FileXTrain: "aaa ab\naab ba\nxxy yx\nyyx xy\n",
		dataset.FileYTrain: "aaa\naaa\nxxx\nxxx\n",
		dataset.FileXVal:   "abab\nxyxy\n",
		dataset.FileYVal:   "aaa\nxxx\n",
		dataset.FileXTest:  "baba\nyxyx\nbbaa\n",
		dataset.FileYTest:  "aaa\nxxx\naaa\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func writeConfig(t *testing.T, dataDir, outDir string) string {
	t.Helper()
	lines := []string{
		"optimizer:",
		"  initial_lr: 0.01",
		"training:",
		"  epochs: 2",
		"  batch_size: 2",
		"model:",
		"  hidden_units: 8",
		"  output_dir: " + outDir,
		"data:",
		"  provider: wili",
	}
	if dataDir != "" {
		lines = append(lines, "  path: "+dataDir)
	}
	body := strings.Join(append(lines, "logging:", "  level: warn", ""), "\n")
	path := filepath.Join(t.TempDir(), "mlp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestWiLIMissingConfigFailsBeforeLoading(t *testing.T) {
	resultFile := filepath.Join(t.TempDir(), "results.txt")
	_, _, err := run(t, "wili", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--result_file", resultFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--config")
	assert.NoFileExists(t, resultFile)
}

func TestRequiredConfigFlag(t *testing.T) {
	for _, sub := range []string{"train", "wili"} {
		t.Run(sub, func(t *testing.T) {
			_, _, err := run(t, sub)
			require.Error(t, err)
			assert.Contains(t, err.Error(), `required flag(s) "config" not set`)
		})
	}
}

func TestInvalidLogLevel(t *testing.T) {
	_, _, err := run(t, "--log-level", "loud", "train", "--config", "x.yaml")
	assert.Error(t, err)
}

func TestTrainThenWiLI(t *testing.T) {
	outDir := t.TempDir()
	cfgPath := writeConfig(t, writeWiLI(t), outDir)

	stdout, _, err := run(t, "train", "--config", cfgPath, "--epochs", "3")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Random                        : 0.47%"))
	assert.True(t, strings.HasPrefix(lines[1], "MLP"))

	modelPath := filepath.Join(outDir, "mlp-3layer-tfidf-50.h5")
	assert.FileExists(t, modelPath)
	assert.FileExists(t, filepath.Join(outDir, "mlp-3layer-tfidf-50.json"))

	for name, extra := range map[string][]string{
		"fresh":   nil,
		"trained": {"--model", modelPath},
	} {
		t.Run(name, func(t *testing.T) {
			resultFile := filepath.Join(t.TempDir(), "cld2_results.txt")
			args := append([]string{"wili", "--config", cfgPath, "--result_file", resultFile}, extra...)
			_, _, err := run(t, args...)
			require.NoError(t, err)

			body, err := os.ReadFile(resultFile)
			require.NoError(t, err)
			preds := strings.Split(strings.TrimSpace(string(body)), "\n")
			require.Len(t, preds, 3)
			for _, p := range preds {
				assert.Contains(t, []string{"aaa", "xxx"}, p)
			}
		})
	}
}

func TestWiLIMissingModel(t *testing.T) {
	cfgPath := writeConfig(t, writeWiLI(t), t.TempDir())
	_, _, err := run(t, "wili", "--config", cfgPath, "--model", filepath.Join(t.TempDir(), "none.h5"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--model")
}

func TestDataFlagSuppliesMissingPath(t *testing.T) {
	dataDir := writeWiLI(t)
	outDir := t.TempDir()
	cfgPath := writeConfig(t, "", outDir)

	_, _, err := run(t, "train", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data.path")

	stdout, _, err := run(t, "train", "--config", cfgPath, "--data", dataDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "MLP")

	resultFile := filepath.Join(t.TempDir(), "results.txt")
	_, _, err = run(t, "wili", "--config", cfgPath, "--data", dataDir, "--result_file", resultFile)
	require.NoError(t, err)
	assert.FileExists(t, resultFile)
}

func TestLogLevelFlagOverridesConfig(t *testing.T) {
	dataDir := writeWiLI(t)
	cfgPath := writeConfig(t, dataDir, t.TempDir())
	body, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgPath, []byte(strings.Replace(string(body), "level: warn", "level: loud", 1)), 0o644))

	_, _, err = run(t, "train", "--config", cfgPath)
	require.Error(t, err)

	_, _, err = run(t, "--log-level", "error", "train", "--config", cfgPath)
	require.NoError(t, err)
}
