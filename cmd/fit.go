package main

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/calib-cli/internal/calib"
	"github.com/sells-group/calib-cli/internal/dataset"
	"github.com/sells-group/calib-cli/internal/report"
)

var (
	fitInput     string
	fitName      string
	fitSave      bool
	fitReport    string
	fitCurve     string
	fitHistory   bool
	fitThreshold int
	fitBoundary  string
)

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit a calibration model from labeled scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		scores, labels, err := dataset.Read(fitInput)
		if err != nil {
			return err
		}

		m, err := runFit(scores, labels)
		if err != nil {
			return err
		}

		zap.L().Info("model fitted",
			zap.Int("samples", m.Samples),
			zap.Int("positives", m.Positives),
			zap.Int("bins", len(m.Bins)),
		)

		if fitSave {
			if err := saveFitted(ctx, m, fitName); err != nil {
				return err
			}
		}

		if fitCurve != "" {
			if err := report.WriteCurveYAML(fitCurve, m); err != nil {
				return err
			}
			zap.L().Info("curve written", zap.String("path", fitCurve))
		}

		if fitReport != "" {
			sum, err := report.Evaluate(m, scores, labels)
			if err != nil {
				return err
			}
			if err := report.WriteWorkbook(fitReport, m, sum); err != nil {
				return err
			}
			zap.L().Info("report written", zap.String("path", fitReport))
		}

		fmt.Print(curveText(m))
		return nil
	},
}

func init() {
	fitCmd.Flags().StringVar(&fitInput, "input", "", "CSV or XLSX file with score,label columns (required)")
	fitCmd.Flags().StringVar(&fitName, "name", "", "model name for the registry")
	fitCmd.Flags().BoolVar(&fitSave, "save", false, "save the fitted model to the registry")
	fitCmd.Flags().StringVar(&fitReport, "report", "", "write an XLSX reliability report to this path")
	fitCmd.Flags().StringVar(&fitCurve, "curve", "", "write the calibration curve as YAML to this path")
	fitCmd.Flags().BoolVar(&fitHistory, "history", false, "record per-pass merge history on the model")
	fitCmd.Flags().IntVar(&fitThreshold, "threshold", 0, "positives per initial bin (default from config)")
	fitCmd.Flags().StringVar(&fitBoundary, "boundary", "", "boundary statistic: mean, min or max (default from config)")
	fitCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(fitCmd)
}

// runFit fits a model using merged config and flag options.
func runFit(scores []float64, labels []int) (*calib.Model, error) {
	opts, err := fitOptions(fitThreshold, fitBoundary, fitHistory)
	if err != nil {
		return nil, err
	}
	return calib.New(opts).Fit(scores, labels)
}

func saveFitted(ctx context.Context, m *calib.Model, name string) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.SaveModel(ctx, name, m)
	if err != nil {
		return eris.Wrap(err, "save model")
	}
	zap.L().Info("model saved", zap.String("id", rec.ID), zap.String("name", rec.Name))
	fmt.Printf("saved model %s\n", rec.ID)
	return nil
}

// curveText renders the fitted curve for the terminal.
func curveText(m *calib.Model) string {
	out := fmt.Sprintf("bins: %d  boundary: %s\n", len(m.Bins), m.Options.Boundary)
	for i, b := range m.Bins {
		out += fmt.Sprintf("  bin %2d  [%.4f, %.4f]  rate %.4f  (%d/%d)\n",
			i, b.ScoreMin, b.ScoreMax, b.PositiveRate, b.Positives, b.Total)
	}
	return out
}
