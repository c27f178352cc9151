package calib

import "fmt"

// BoundaryChoice selects which per-bin scalar becomes the representative
// boundary score used to bucket new inputs at prediction time.
type BoundaryChoice int

const (
	// BoundaryScoreMean uses the bin's mean score. Default.
	BoundaryScoreMean BoundaryChoice = iota
	// BoundaryScoreMin uses the bin's minimum score.
	BoundaryScoreMin
	// BoundaryScoreMax uses the bin's maximum score.
	BoundaryScoreMax
)

func (c BoundaryChoice) String() string {
	switch c {
	case BoundaryScoreMean:
		return "mean"
	case BoundaryScoreMin:
		return "min"
	case BoundaryScoreMax:
		return "max"
	default:
		return fmt.Sprintf("boundary(%d)", int(c))
	}
}

// ParseBoundaryChoice converts a config/flag string into a BoundaryChoice.
func ParseBoundaryChoice(s string) (BoundaryChoice, error) {
	switch s {
	case "mean", "":
		return BoundaryScoreMean, nil
	case "min":
		return BoundaryScoreMin, nil
	case "max":
		return BoundaryScoreMax, nil
	default:
		return 0, &ValidationError{Msg: "unknown boundary choice " + s}
	}
}

// boundaries extracts one representative score per bin, in bin order. The
// output follows the merge-converged bin order; adjacent values may tie
// (the monotonic invariant holds on rates, not scores) and callers must
// tolerate equal neighbors.
func boundaries(bins []Bin, choice BoundaryChoice) ([]float64, error) {
	out := make([]float64, len(bins))
	for i, b := range bins {
		switch choice {
		case BoundaryScoreMin:
			out[i] = b.ScoreMin
		case BoundaryScoreMax:
			out[i] = b.ScoreMax
		case BoundaryScoreMean:
			out[i] = b.ScoreMean
		default:
			return nil, &ValidationError{Msg: "unknown boundary choice " + choice.String()}
		}
	}
	return out, nil
}
