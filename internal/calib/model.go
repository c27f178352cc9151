package calib

import (
	"sort"
	"time"
)

// Pass is the bin sequence snapshot after one merge pass.
type Pass struct {
	Bins []Bin `json:"bins"`
}

// Model is the immutable result of one fit: the converged bin sequence, its
// boundary table, and the options that produced it. A Model is never
// mutated after Fit returns, so concurrent Predict calls against the same
// Model are safe.
type Model struct {
	Bins       []Bin     `json:"bins"`
	Boundaries []float64 `json:"boundaries"`
	Options    Options   `json:"options"`
	Samples    int       `json:"samples"`
	Positives  int       `json:"positives"`
	History    []Pass    `json:"history,omitempty"`
	FittedAt   time.Time `json:"fitted_at"`
}

// Predict maps raw scores through the fitted curve, returning calibrated
// probabilities in the same order. Virtual anchors at x=0 and x=1 extend
// the curve flat beyond the first and last representative scores. A score
// equal to a boundary falls into that boundary's bin (right-closed
// bucketing). Zero-width intervals return the start anchor's rate unless
// StrictIntervals is set, in which case they fail with NumericDomainError.
func (m *Model) Predict(scores []float64) ([]float64, error) {
	if m == nil || len(m.Bins) == 0 {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(scores))
	for i, s := range scores {
		p, err := m.predictOne(s)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (m *Model) predictOne(s float64) (float64, error) {
	// idx is the number of boundaries strictly below s; equivalently the
	// right-closed bucket index over the boundary table.
	idx := sort.SearchFloat64s(m.Boundaries, s)

	xStart, yStart := 0.0, m.Bins[0].PositiveRate
	if idx > 0 {
		xStart = m.Boundaries[idx-1]
		yStart = m.Bins[idx-1].PositiveRate
	}
	xEnd, yEnd := 1.0, m.Bins[len(m.Bins)-1].PositiveRate
	if idx < len(m.Boundaries) {
		xEnd = m.Boundaries[idx]
		yEnd = m.Bins[idx].PositiveRate
	}

	if xStart == xEnd {
		if m.Options.StrictIntervals {
			return 0, &NumericDomainError{Score: s, X: xStart}
		}
		return yStart, nil
	}
	return yStart + (s-xStart)/(xEnd-xStart)*(yEnd-yStart), nil
}

// Curve is one per-pass (score, positive rate) series, suitable for
// plotting or tabular export of the merge history.
type Curve struct {
	Pass   int       `json:"pass" yaml:"pass"`
	Scores []float64 `json:"scores" yaml:"scores"`
	Rates  []float64 `json:"rates" yaml:"rates"`
}

// HistoryCurves returns one curve per recorded merge pass. When the model
// was fitted without history recording it returns a single curve built
// from the final bins.
func (m *Model) HistoryCurves() []Curve {
	if len(m.History) == 0 {
		return []Curve{binCurve(0, m.Bins)}
	}
	curves := make([]Curve, len(m.History))
	for i, p := range m.History {
		curves[i] = binCurve(i, p.Bins)
	}
	return curves
}

func binCurve(pass int, bins []Bin) Curve {
	c := Curve{
		Pass:   pass,
		Scores: make([]float64, len(bins)),
		Rates:  make([]float64, len(bins)),
	}
	for i, b := range bins {
		c.Scores[i] = b.ScoreMean
		c.Rates[i] = b.PositiveRate
	}
	return c
}
