// Package calib implements mimic calibration of binary classifier scores:
// sorted (score, label) pairs are grouped into bins with a fixed number of
// positives each, adjacent bins violating a non-decreasing positive-rate
// ordering are merged to a fixed point, and new scores are mapped through
// the resulting curve by linear interpolation.
package calib

import "math"

// Bin is one contiguous group of sorted samples treated as a single
// calibration unit. PositiveRate is always Positives/Total, recomputed on
// every merge rather than carried forward.
type Bin struct {
	LeftIndex    int     `json:"left_index"`
	ScoreMin     float64 `json:"score_min"`
	ScoreMax     float64 `json:"score_max"`
	ScoreMean    float64 `json:"score_mean"`
	Positives    int     `json:"positives"`
	Total        int     `json:"total"`
	PositiveRate float64 `json:"positive_rate"`
}

// mergeBins combines two adjacent bins into one. The merged ScoreMean is the
// unweighted average of the two bin means, not a sample-count-weighted mean.
// That deviates from canonical isotonic regression but is the established
// behavior of this calibration method and is kept for compatibility.
func mergeBins(a, b Bin) Bin {
	m := Bin{
		LeftIndex: min(a.LeftIndex, b.LeftIndex),
		ScoreMin:  math.Min(a.ScoreMin, b.ScoreMin),
		ScoreMax:  math.Max(a.ScoreMax, b.ScoreMax),
		ScoreMean: (a.ScoreMean + b.ScoreMean) / 2.0,
		Positives: a.Positives + b.Positives,
		Total:     a.Total + b.Total,
	}
	m.PositiveRate = float64(m.Positives) / float64(m.Total)
	return m
}

func cloneBins(bins []Bin) []Bin {
	out := make([]Bin, len(bins))
	copy(out, bins)
	return out
}
