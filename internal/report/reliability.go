// Package report evaluates fitted calibration models against labeled data
// and exports curves and workbooks for inspection.
package report

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/calib-cli/internal/calib"
)

// BinReliability compares a bin's predicted rate against the observed
// positive rate of the evaluation samples that landed in it.
type BinReliability struct {
	ScoreMean     float64 `json:"score_mean" yaml:"score_mean"`
	PredictedRate float64 `json:"predicted_rate" yaml:"predicted_rate"`
	ObservedRate  float64 `json:"observed_rate" yaml:"observed_rate"`
	Samples       int     `json:"samples" yaml:"samples"`
	Positives     int     `json:"positives" yaml:"positives"`
}

// Summary is the reliability evaluation of one model on one labeled set.
type Summary struct {
	Bins            []BinReliability `json:"bins" yaml:"bins"`
	BrierRaw        float64          `json:"brier_raw" yaml:"brier_raw"`
	BrierCalibrated float64          `json:"brier_calibrated" yaml:"brier_calibrated"`
	ECE             float64          `json:"ece" yaml:"ece"`
	Samples         int              `json:"samples" yaml:"samples"`
}

// Evaluate scores a labeled evaluation set through the model and reports
// per-bin reliability, Brier scores before and after calibration, and the
// expected calibration error (sample-weighted mean absolute gap between
// predicted and observed rates).
func Evaluate(m *calib.Model, scores []float64, labels []int) (*Summary, error) {
	if m == nil || len(m.Bins) == 0 {
		return nil, calib.ErrNotFitted
	}
	if len(scores) != len(labels) {
		return nil, eris.New("report: scores and labels must have the same length")
	}
	if len(scores) == 0 {
		return nil, eris.New("report: empty evaluation set")
	}

	calibrated, err := m.Predict(scores)
	if err != nil {
		return nil, eris.Wrap(err, "report: predict evaluation set")
	}

	binSamples := make([]int, len(m.Bins))
	binPositives := make([]int, len(m.Bins))
	var brierRaw, brierCal float64
	for i, s := range scores {
		y := float64(labels[i])
		brierRaw += (s - y) * (s - y)
		brierCal += (calibrated[i] - y) * (calibrated[i] - y)

		bi := sort.SearchFloat64s(m.Boundaries, s)
		if bi >= len(m.Bins) {
			bi = len(m.Bins) - 1
		}
		binSamples[bi]++
		binPositives[bi] += labels[i]
	}
	n := float64(len(scores))

	sum := &Summary{
		Bins:            make([]BinReliability, len(m.Bins)),
		BrierRaw:        brierRaw / n,
		BrierCalibrated: brierCal / n,
		Samples:         len(scores),
	}
	for i, b := range m.Bins {
		br := BinReliability{
			ScoreMean:     b.ScoreMean,
			PredictedRate: b.PositiveRate,
			Samples:       binSamples[i],
			Positives:     binPositives[i],
		}
		if br.Samples > 0 {
			br.ObservedRate = float64(br.Positives) / float64(br.Samples)
			sum.ECE += math.Abs(br.ObservedRate-br.PredictedRate) * float64(br.Samples) / n
		}
		sum.Bins[i] = br
	}
	return sum, nil
}
