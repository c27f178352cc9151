package calib

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// DefaultThresholdPos is the default number of positives per initial bin.
const DefaultThresholdPos = 5

// Options configure one fit.
type Options struct {
	// ThresholdPos is the positive count that closes an initial bin.
	// Zero means DefaultThresholdPos.
	ThresholdPos int `json:"threshold_pos" yaml:"threshold_pos"`
	// Boundary selects the per-bin representative score.
	Boundary BoundaryChoice `json:"boundary" yaml:"boundary"`
	// RecordHistory captures every merge pass on the fitted model.
	RecordHistory bool `json:"record_history" yaml:"record_history"`
	// StrictIntervals makes zero-width prediction intervals an error
	// instead of falling back to the start anchor's rate.
	StrictIntervals bool `json:"strict_intervals" yaml:"strict_intervals"`
}

func (o Options) withDefaults() Options {
	if o.ThresholdPos == 0 {
		o.ThresholdPos = DefaultThresholdPos
	}
	return o
}

// Calibrator fits mimic-calibration models. The zero value is usable and
// fits with default options.
type Calibrator struct {
	opts Options
}

// New returns a Calibrator with the given options.
func New(opts Options) *Calibrator {
	return &Calibrator{opts: opts.withDefaults()}
}

// Options returns the calibrator's effective options.
func (c *Calibrator) Options() Options {
	return c.opts.withDefaults()
}

// Fit validates the (score, label) pairs, sorts a copy by score, and runs
// the build/merge/extract pipeline to produce an immutable Model. A failed
// fit returns an error and no model; any previously fitted Model held by
// the caller is untouched.
func (c *Calibrator) Fit(scores []float64, labels []int) (*Model, error) {
	opts := c.opts.withDefaults()
	if err := validate(scores, labels); err != nil {
		return nil, err
	}

	sortedScores, sortedLabels := sortPairs(scores, labels)

	initial, totalPos, err := buildInitialBins(sortedScores, sortedLabels, opts.ThresholdPos)
	if err != nil {
		return nil, err
	}

	var rec *passRecorder
	if opts.RecordHistory {
		rec = &passRecorder{}
	}
	final := mergeToConvergence(initial, rec)

	bounds, err := boundaries(final, opts.Boundary)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Bins:       final,
		Boundaries: bounds,
		Options:    opts,
		Samples:    len(scores),
		Positives:  totalPos,
		FittedAt:   time.Now().UTC(),
	}
	if rec != nil {
		m.History = make([]Pass, len(rec.passes))
		for i, p := range rec.passes {
			m.History[i] = Pass{Bins: p}
		}
	}

	zap.L().Debug("calibration fit complete",
		zap.Int("samples", m.Samples),
		zap.Int("positives", m.Positives),
		zap.Int("initial_bins", len(initial)),
		zap.Int("final_bins", len(final)),
	)
	return m, nil
}

func validate(scores []float64, labels []int) error {
	if len(scores) != len(labels) {
		return &ValidationError{Msg: "scores and labels must have the same length"}
	}
	if len(scores) == 0 {
		return &ValidationError{Msg: "empty input"}
	}
	distinct := make(map[float64]struct{}, len(scores))
	for _, s := range scores {
		if s < 0 || s > 1 {
			return &ValidationError{Msg: "scores must be probabilities in [0,1]"}
		}
		distinct[s] = struct{}{}
	}
	for _, y := range labels {
		if y != 0 && y != 1 {
			return &ValidationError{Msg: "labels must be 0 or 1"}
		}
	}
	if len(distinct) < 3 {
		// Non-fatal: the fit proceeds but the curve may be trivial.
		zap.L().Warn("fewer than 3 distinct scores, calibration curve may be degenerate",
			zap.Int("distinct", len(distinct)),
		)
	}
	return nil
}

// sortPairs returns copies of scores and labels ordered by ascending score.
// The inputs are never modified.
func sortPairs(scores []float64, labels []int) ([]float64, []int) {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] < scores[idx[b]]
	})
	outScores := make([]float64, len(scores))
	outLabels := make([]int, len(labels))
	for i, j := range idx {
		outScores[i] = scores[j]
		outLabels[i] = labels[j]
	}
	return outScores, outLabels
}
