package calib

// mergePass performs one left-to-right scan over the bin sequence. Each bin
// is compared against the last bin already in the result (which may itself
// be a merge of earlier bins); when the result's last bin has a strictly
// greater positive rate, the two are merged. Returns the new sequence and
// whether the input was already monotonic (no merges performed).
//
// mergePass never mutates its input; a converged sequence passes through
// as an equal copy with monotonic == true.
func mergePass(bins []Bin) ([]Bin, bool) {
	if len(bins) <= 1 {
		return cloneBins(bins), true
	}
	out := make([]Bin, 0, len(bins))
	out = append(out, bins[0])
	monotonic := true
	for _, next := range bins[1:] {
		last := out[len(out)-1]
		if last.PositiveRate > next.PositiveRate {
			out[len(out)-1] = mergeBins(last, next)
			monotonic = false
		} else {
			out = append(out, next)
		}
	}
	return out, monotonic
}

// passRecorder captures the bin sequence after each merge pass for later
// inspection. A nil recorder disables recording.
type passRecorder struct {
	passes [][]Bin
}

func (r *passRecorder) record(bins []Bin) {
	if r == nil {
		return
	}
	r.passes = append(r.passes, cloneBins(bins))
}

// mergeToConvergence repeats mergePass until a pass reports the sequence
// monotonic. Each merging pass strictly decreases the bin count, so the
// loop terminates after at most len(bins)-1 passes. The recorder, when
// present, receives the initial binning and every pass result including
// the final no-op pass.
func mergeToConvergence(bins []Bin, rec *passRecorder) []Bin {
	rec.record(bins)
	for {
		merged, monotonic := mergePass(bins)
		rec.record(merged)
		bins = merged
		if monotonic {
			return bins
		}
	}
}
