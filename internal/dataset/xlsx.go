package dataset

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadXLSX loads a training dataset from the first sheet of an XLSX file.
// The sheet must have a header row containing `score` and `label` columns;
// extra columns are ignored.
func ReadXLSX(path string) ([]float64, []int, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, nil, eris.Errorf("dataset: %s has no sheets", path)
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) < 2 {
		return nil, nil, eris.Errorf("dataset: %s has no data rows", path)
	}

	scoreCol, labelCol := -1, -1
	for j, cell := range sheet.Rows[0].Cells {
		switch strings.ToLower(strings.TrimSpace(cell.String())) {
		case "score":
			scoreCol = j
		case "label":
			labelCol = j
		}
	}
	if scoreCol < 0 || labelCol < 0 {
		return nil, nil, eris.Errorf("dataset: %s is missing score/label header", path)
	}

	var scores []float64
	var labels []int
	for i, row := range sheet.Rows[1:] {
		if len(row.Cells) <= scoreCol || len(row.Cells) <= labelCol {
			continue // trailing blank row
		}
		scoreStr := strings.TrimSpace(row.Cells[scoreCol].String())
		labelStr := strings.TrimSpace(row.Cells[labelCol].String())
		if scoreStr == "" && labelStr == "" {
			continue
		}

		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "dataset: %s row %d score", path, i+2)
		}
		label, err := strconv.Atoi(labelStr)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "dataset: %s row %d label", path, i+2)
		}
		scores = append(scores, score)
		labels = append(labels, label)
	}
	if len(scores) == 0 {
		return nil, nil, eris.Errorf("dataset: %s has no data rows", path)
	}
	return scores, labels, nil
}

// Read dispatches on the file extension: .xlsx files go through ReadXLSX,
// everything else is treated as CSV.
func Read(path string) ([]float64, []int, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return ReadXLSX(path)
	}
	return ReadCSV(path)
}
