package report

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/calib-cli/internal/calib"
)

// WriteWorkbook writes a model's bins, an optional reliability summary, and
// the recorded merge history to an XLSX workbook.
func WriteWorkbook(path string, m *calib.Model, sum *Summary) error {
	if m == nil || len(m.Bins) == 0 {
		return calib.ErrNotFitted
	}
	f := xlsx.NewFile()

	if err := addBinsSheet(f, m); err != nil {
		return err
	}
	if sum != nil {
		if err := addReliabilitySheet(f, sum); err != nil {
			return err
		}
	}
	if len(m.History) > 0 {
		if err := addHistorySheet(f, m); err != nil {
			return err
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save workbook %s", path)
	}
	return nil
}

func addBinsSheet(f *xlsx.File, m *calib.Model) error {
	sheet, err := f.AddSheet("Bins")
	if err != nil {
		return eris.Wrap(err, "report: add bins sheet")
	}
	addHeader(sheet, "left_index", "score_min", "score_max", "score_mean",
		"positives", "total", "positive_rate", "boundary")
	for i, b := range m.Bins {
		row := sheet.AddRow()
		row.AddCell().SetInt(b.LeftIndex)
		row.AddCell().SetFloat(b.ScoreMin)
		row.AddCell().SetFloat(b.ScoreMax)
		row.AddCell().SetFloat(b.ScoreMean)
		row.AddCell().SetInt(b.Positives)
		row.AddCell().SetInt(b.Total)
		row.AddCell().SetFloat(b.PositiveRate)
		row.AddCell().SetFloat(m.Boundaries[i])
	}
	return nil
}

func addReliabilitySheet(f *xlsx.File, sum *Summary) error {
	sheet, err := f.AddSheet("Reliability")
	if err != nil {
		return eris.Wrap(err, "report: add reliability sheet")
	}
	addHeader(sheet, "score_mean", "predicted_rate", "observed_rate", "samples", "positives")
	for _, b := range sum.Bins {
		row := sheet.AddRow()
		row.AddCell().SetFloat(b.ScoreMean)
		row.AddCell().SetFloat(b.PredictedRate)
		row.AddCell().SetFloat(b.ObservedRate)
		row.AddCell().SetInt(b.Samples)
		row.AddCell().SetInt(b.Positives)
	}

	sheet.AddRow() // spacer
	for _, kv := range []struct {
		name  string
		value float64
	}{
		{"brier_raw", sum.BrierRaw},
		{"brier_calibrated", sum.BrierCalibrated},
		{"ece", sum.ECE},
	} {
		row := sheet.AddRow()
		row.AddCell().SetString(kv.name)
		row.AddCell().SetFloat(kv.value)
	}
	return nil
}

func addHistorySheet(f *xlsx.File, m *calib.Model) error {
	sheet, err := f.AddSheet("History")
	if err != nil {
		return eris.Wrap(err, "report: add history sheet")
	}
	addHeader(sheet, "pass", "score_mean", "positive_rate")
	for _, c := range m.HistoryCurves() {
		for i := range c.Scores {
			row := sheet.AddRow()
			row.AddCell().SetInt(c.Pass)
			row.AddCell().SetFloat(c.Scores[i])
			row.AddCell().SetFloat(c.Rates[i])
		}
	}
	return nil
}

func addHeader(sheet *xlsx.Sheet, names ...string) {
	row := sheet.AddRow()
	for _, n := range names {
		row.AddCell().SetString(n)
	}
}

// SummaryText renders a short human-readable reliability summary for
// terminal output.
func SummaryText(sum *Summary) string {
	out := fmt.Sprintf("samples=%d  brier_raw=%.6f  brier_calibrated=%.6f  ece=%.6f\n",
		sum.Samples, sum.BrierRaw, sum.BrierCalibrated, sum.ECE)
	for i, b := range sum.Bins {
		out += fmt.Sprintf("bin %2d  score=%.4f  predicted=%.4f  observed=%.4f  n=%d\n",
			i, b.ScoreMean, b.PredictedRate, b.ObservedRate, b.Samples)
	}
	return out
}
