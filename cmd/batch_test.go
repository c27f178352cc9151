package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/calib-cli/internal/calib"
	"github.com/sells-group/calib-cli/internal/dataset"
)

func writeScoresFile(t *testing.T, dir, name string, scores []float64) string {
	t.Helper()
	content := "score\n"
	for _, s := range scores {
		content += fmt.Sprintf("%g\n", s)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func batchModelFixture(t *testing.T) *calib.Model {
	t.Helper()
	m, err := calib.New(calib.Options{ThresholdPos: 2}).Fit(
		[]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8},
		[]int{0, 0, 1, 0, 1, 1, 0, 1},
	)
	require.NoError(t, err)
	return m
}

func TestProcessBatch(t *testing.T) {
	m := batchModelFixture(t)
	inDir := t.TempDir()
	outDir := t.TempDir()

	files := []string{
		writeScoresFile(t, inDir, "a.csv", []float64{0.1, 0.5, 0.9}),
		writeScoresFile(t, inDir, "b.csv", []float64{0.3}),
		writeScoresFile(t, inDir, "c.csv", []float64{0.2, 0.8}),
	}

	require.NoError(t, processBatch(context.Background(), m, files, outDir, 2))

	for _, name := range []string{"a.calibrated.csv", "b.calibrated.csv", "c.calibrated.csv"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}

	scores, err := dataset.ReadScoresCSV(filepath.Join(outDir, "a.calibrated.csv"))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.5, 0.9}, scores)
}

func TestProcessBatch_PartialFailure(t *testing.T) {
	m := batchModelFixture(t)
	inDir := t.TempDir()
	outDir := t.TempDir()

	files := []string{
		writeScoresFile(t, inDir, "good.csv", []float64{0.4}),
		filepath.Join(inDir, "missing.csv"),
	}

	err := processBatch(context.Background(), m, files, outDir, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")

	// The good file still produced output.
	_, statErr := os.Stat(filepath.Join(outDir, "good.calibrated.csv"))
	assert.NoError(t, statErr)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "scores.calibrated.csv", outputName("/tmp/in/scores.csv"))
	assert.Equal(t, "scores.calibrated.csv", outputName("scores.txt"))
	assert.Equal(t, "scores.calibrated.csv", outputName("scores"))
}
