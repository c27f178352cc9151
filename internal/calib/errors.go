package calib

import "fmt"

// ErrNotFitted is returned when Predict is called without a fitted model.
var ErrNotFitted = fmt.Errorf("calib: model is not fitted")

// ValidationError reports input that violates the fit contract: scores
// outside [0,1], labels outside {0,1}, or mismatched slice lengths.
// Validation failures are raised before any binning happens.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "calib: " + e.Msg
}

// ConstructionError reports a broken invariant during initial binning: an
// interior bin whose positive count does not equal the configured threshold.
// This means corrupted input reached the builder and is fatal.
type ConstructionError struct {
	BinIndex  int
	Positives int
	Want      int
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("calib: interior bin %d has %d positives, want exactly %d",
		e.BinIndex, e.Positives, e.Want)
}

// NumericDomainError reports a zero-width prediction interval hit while
// strict interval mode is enabled. The default policy falls back to the
// start anchor's rate instead of returning this error.
type NumericDomainError struct {
	Score float64
	X     float64
}

func (e *NumericDomainError) Error() string {
	return fmt.Sprintf("calib: zero-width interval at x=%v for score %v", e.X, e.Score)
}
