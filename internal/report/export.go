package report

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/calib-cli/internal/calib"
)

// curveDoc is the YAML layout of an exported calibration curve.
type curveDoc struct {
	ThresholdPos int           `yaml:"threshold_pos"`
	Boundary     string        `yaml:"boundary"`
	Samples      int           `yaml:"samples"`
	Positives    int           `yaml:"positives"`
	Boundaries   []float64     `yaml:"boundaries"`
	Rates        []float64     `yaml:"rates"`
	Bins         []curveBin    `yaml:"bins"`
	History      []calib.Curve `yaml:"history,omitempty"`
}

type curveBin struct {
	LeftIndex    int     `yaml:"left_index"`
	ScoreMin     float64 `yaml:"score_min"`
	ScoreMax     float64 `yaml:"score_max"`
	ScoreMean    float64 `yaml:"score_mean"`
	Positives    int     `yaml:"positives"`
	Total        int     `yaml:"total"`
	PositiveRate float64 `yaml:"positive_rate"`
}

// CurveYAML renders the fitted model as a diffable YAML document.
func CurveYAML(m *calib.Model) ([]byte, error) {
	if m == nil || len(m.Bins) == 0 {
		return nil, calib.ErrNotFitted
	}
	doc := curveDoc{
		ThresholdPos: m.Options.ThresholdPos,
		Boundary:     m.Options.Boundary.String(),
		Samples:      m.Samples,
		Positives:    m.Positives,
		Boundaries:   m.Boundaries,
		Rates:        make([]float64, len(m.Bins)),
		Bins:         make([]curveBin, len(m.Bins)),
	}
	for i, b := range m.Bins {
		doc.Rates[i] = b.PositiveRate
		doc.Bins[i] = curveBin{
			LeftIndex:    b.LeftIndex,
			ScoreMin:     b.ScoreMin,
			ScoreMax:     b.ScoreMax,
			ScoreMean:    b.ScoreMean,
			Positives:    b.Positives,
			Total:        b.Total,
			PositiveRate: b.PositiveRate,
		}
	}
	if len(m.History) > 0 {
		doc.History = m.HistoryCurves()
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, eris.Wrap(err, "report: marshal curve")
	}
	return out, nil
}

// WriteCurveYAML writes the model's curve document to a file.
func WriteCurveYAML(path string, m *calib.Model) error {
	data, err := CurveYAML(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	return nil
}
