package calib

// buildInitialBins partitions sorted (score, label) pairs into contiguous
// bins, closing a bin each time the running positive counter reaches
// thresholdPos. If the last sample did not land on a bin boundary, a
// trailing remainder bin is closed at the final index; it may hold fewer
// than thresholdPos positives. Returns the bins and the total positive
// count across all samples.
//
// Every interior bin must end up with exactly thresholdPos positives; a
// violation means non-binary labels slipped past validation and is fatal.
func buildInitialBins(scores []float64, labels []int, thresholdPos int) ([]Bin, int, error) {
	if thresholdPos < 1 {
		return nil, 0, &ValidationError{Msg: "threshold_pos must be >= 1"}
	}
	if len(scores) == 0 {
		return nil, 0, &ValidationError{Msg: "empty input"}
	}
	lastIndex := len(labels) - 1

	// Right-boundary index of each bin.
	var rights []int
	count := 0
	for i, y := range labels {
		if y > 0 {
			count++
		}
		if count == thresholdPos {
			rights = append(rights, i)
			count = 0
		}
	}
	if len(rights) == 0 || rights[len(rights)-1] != lastIndex {
		rights = append(rights, lastIndex)
	}

	bins := make([]Bin, 0, len(rights))
	totalPos := 0
	left := 0
	for bi, right := range rights {
		b := Bin{
			LeftIndex: left,
			ScoreMin:  scores[left],
			ScoreMax:  scores[left],
		}
		var scoreSum float64
		for i := left; i <= right; i++ {
			s := scores[i]
			if s < b.ScoreMin {
				b.ScoreMin = s
			}
			if s > b.ScoreMax {
				b.ScoreMax = s
			}
			scoreSum += s
			b.Positives += labels[i]
		}
		if right != lastIndex && b.Positives != thresholdPos {
			return nil, 0, &ConstructionError{BinIndex: bi, Positives: b.Positives, Want: thresholdPos}
		}
		b.Total = right - left + 1
		b.ScoreMean = scoreSum / float64(b.Total)
		b.PositiveRate = float64(b.Positives) / float64(b.Total)

		bins = append(bins, b)
		totalPos += b.Positives
		left = right + 1
	}
	return bins, totalPos, nil
}
