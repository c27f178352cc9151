// Package dataset loads (score, label) samples and score lists from CSV and
// XLSX files and writes calibrated output.
package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// Sample is one labeled row of a training dataset.
type Sample struct {
	Score float64 `csv:"score"`
	Label int     `csv:"label"`
}

// scoreRow is one row of a score-only prediction input.
type scoreRow struct {
	Score float64 `csv:"score"`
}

// CalibratedRow pairs a raw score with its calibrated probability in
// prediction output files.
type CalibratedRow struct {
	Score      float64 `csv:"score"`
	Calibrated float64 `csv:"calibrated"`
}

// ReadCSV loads a training dataset with `score` and `label` columns.
func ReadCSV(path string) ([]float64, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		return nil, nil, eris.Wrapf(err, "dataset: read header of %s", path)
	}

	var scores []float64
	var labels []int
	for row := 1; ; row++ {
		var s Sample
		if err := dec.Decode(&s); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, eris.Wrapf(err, "dataset: %s row %d", path, row)
		}
		scores = append(scores, s.Score)
		labels = append(labels, s.Label)
	}
	if len(scores) == 0 {
		return nil, nil, eris.Errorf("dataset: %s has no data rows", path)
	}
	return scores, labels, nil
}

// ReadScoresCSV loads a score-only file with a `score` column.
func ReadScoresCSV(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read header of %s", path)
	}

	var scores []float64
	for row := 1; ; row++ {
		var s scoreRow
		if err := dec.Decode(&s); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, eris.Wrapf(err, "dataset: %s row %d", path, row)
		}
		scores = append(scores, s.Score)
	}
	if len(scores) == 0 {
		return nil, eris.Errorf("dataset: %s has no data rows", path)
	}
	return scores, nil
}

// WriteCalibratedCSV writes raw scores and their calibrated probabilities,
// one row per input score, preserving order.
func WriteCalibratedCSV(path string, scores, calibrated []float64) error {
	if len(scores) != len(calibrated) {
		return eris.New("dataset: scores and calibrated lengths differ")
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "dataset: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)
	for i := range scores {
		row := CalibratedRow{Score: scores[i], Calibrated: calibrated[i]}
		if err := enc.Encode(row); err != nil {
			return eris.Wrapf(err, "dataset: write %s row %d", path, i+1)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "dataset: flush %s", path)
	}
	return f.Close()
}
