package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/calib-cli/internal/calib"
)

func fittedModel(t *testing.T) *calib.Model {
	t.Helper()
	m, err := calib.New(calib.Options{ThresholdPos: 2}).Fit(
		[]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8},
		[]int{0, 0, 1, 0, 1, 1, 0, 1},
	)
	require.NoError(t, err)
	return m
}

func TestEvaluate_OnTrainingSet(t *testing.T) {
	m := fittedModel(t)
	scores := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}
	labels := []int{0, 0, 1, 0, 1, 1, 0, 1}

	sum, err := Evaluate(m, scores, labels)
	require.NoError(t, err)
	assert.Equal(t, 8, sum.Samples)
	require.Len(t, sum.Bins, len(m.Bins))

	// Per-bin sample counts cover the whole evaluation set.
	total := 0
	for _, b := range sum.Bins {
		total += b.Samples
	}
	assert.Equal(t, 8, total)

	// On the training set, observed rates track the bin rates closely, so
	// calibrated Brier cannot be worse than raw by much; both are finite.
	assert.Less(t, sum.BrierCalibrated, 1.0)
	assert.GreaterOrEqual(t, sum.ECE, 0.0)
}

func TestEvaluate_ExactArithmetic(t *testing.T) {
	// Threshold 1 yields two bins at means 0.2 and 0.8, both with rate
	// 0.5, so every calibrated prediction is exactly 0.5.
	m, err := calib.New(calib.Options{ThresholdPos: 1}).Fit(
		[]float64{0.2, 0.2, 0.8, 0.8},
		[]int{0, 1, 0, 1},
	)
	require.NoError(t, err)
	require.Len(t, m.Bins, 2)

	sum, err := Evaluate(m, []float64{0.2, 0.2, 0.8, 0.8}, []int{0, 1, 0, 1})
	require.NoError(t, err)

	// Calibrated Brier: mean of (0.5-y)^2 = 0.25.
	assert.InDelta(t, 0.25, sum.BrierCalibrated, 1e-12)
	// Raw Brier: (0.04 + 0.64 + 0.64 + 0.04) / 4 = 0.34.
	assert.InDelta(t, 0.34, sum.BrierRaw, 1e-12)
	// Observed rate matches predicted 0.5 in both bins.
	assert.InDelta(t, 0.0, sum.ECE, 1e-12)

	require.Len(t, sum.Bins, 2)
	assert.Equal(t, 2, sum.Bins[0].Samples)
	assert.Equal(t, 2, sum.Bins[1].Samples)
	assert.InDelta(t, 0.5, sum.Bins[0].ObservedRate, 1e-12)
	assert.InDelta(t, 0.5, sum.Bins[1].ObservedRate, 1e-12)
}

func TestEvaluate_Validation(t *testing.T) {
	m := fittedModel(t)

	_, err := Evaluate(m, []float64{0.1}, []int{0, 1})
	require.Error(t, err)

	_, err = Evaluate(m, nil, nil)
	require.Error(t, err)

	_, err = Evaluate(nil, []float64{0.1}, []int{0})
	assert.ErrorIs(t, err, calib.ErrNotFitted)
}
