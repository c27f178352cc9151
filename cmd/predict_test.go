package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTrainingFile(t *testing.T, dir string) string {
	t.Helper()
	content := "score,label\n"
	scores := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}
	labels := []int{0, 0, 1, 0, 1, 1, 0, 1}
	for i := range scores {
		content += fmt.Sprintf("%g,%d\n", scores[i], labels[i])
	}
	path := filepath.Join(dir, "train.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolveModel_FromTrainingFile(t *testing.T) {
	setTestConfig(t)
	path := writeTrainingFile(t, t.TempDir())

	m, err := resolveModel(context.Background(), "", path)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.NotEmpty(t, m.Bins)

	out, err := m.Predict([]float64{0.5})
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestResolveModel_NoReference(t *testing.T) {
	setTestConfig(t)

	_, err := resolveModel(context.Background(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--model or --train")
}

func TestGatherScores_Inline(t *testing.T) {
	scores, err := gatherScores([]string{"0.1", "0.75"}, "")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.75}, scores)
}

func TestGatherScores_FileAndInline(t *testing.T) {
	path := writeScoresFile(t, t.TempDir(), "scores.csv", []float64{0.2, 0.4})

	scores, err := gatherScores([]string{"0.9"}, path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.4, 0.9}, scores)
}

func TestGatherScores_BadArg(t *testing.T) {
	_, err := gatherScores([]string{"not-a-number"}, "")
	require.Error(t, err)
}
