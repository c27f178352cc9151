package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/calib-cli/internal/calib"
	"github.com/sells-group/calib-cli/internal/dataset"
)

var (
	predictModel  string
	predictTrain  string
	predictInput  string
	predictOutput string
)

var predictCmd = &cobra.Command{
	Use:   "predict [scores...]",
	Short: "Calibrate raw scores with a fitted model",
	Long:  "Maps raw classifier scores to calibrated probabilities. Scores come from --input or inline arguments; the model comes from the registry (--model) or is fitted on the fly from --train.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		m, err := resolveModel(ctx, predictModel, predictTrain)
		if err != nil {
			return err
		}

		scores, err := gatherScores(args, predictInput)
		if err != nil {
			return err
		}
		if len(scores) == 0 {
			return eris.New("no scores given: pass --input or inline score arguments")
		}

		calibrated, err := m.Predict(scores)
		if err != nil {
			return err
		}

		if predictOutput != "" {
			if err := dataset.WriteCalibratedCSV(predictOutput, scores, calibrated); err != nil {
				return err
			}
			zap.L().Info("calibrated scores written",
				zap.String("path", predictOutput),
				zap.Int("count", len(calibrated)),
			)
			return nil
		}

		for i, s := range scores {
			fmt.Printf("%.6f\t%.6f\n", s, calibrated[i])
		}
		return nil
	},
}

func init() {
	predictCmd.Flags().StringVar(&predictModel, "model", "", "model id from the registry, or 'latest'")
	predictCmd.Flags().StringVar(&predictTrain, "train", "", "fit a throwaway model from this labeled CSV/XLSX file")
	predictCmd.Flags().StringVar(&predictInput, "input", "", "CSV file with a score column")
	predictCmd.Flags().StringVar(&predictOutput, "output", "", "write score,calibrated CSV to this path")
	rootCmd.AddCommand(predictCmd)
}

// resolveModel loads a model from the registry or fits one from a training file.
func resolveModel(ctx context.Context, modelRef, trainPath string) (*calib.Model, error) {
	if trainPath != "" {
		scores, labels, err := dataset.Read(trainPath)
		if err != nil {
			return nil, err
		}
		opts, err := fitOptions(0, "", false)
		if err != nil {
			return nil, err
		}
		return calib.New(opts).Fit(scores, labels)
	}

	if modelRef == "" {
		return nil, eris.New("either --model or --train is required")
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	if modelRef == "latest" {
		rec, err := st.LatestModel(ctx)
		if err != nil {
			return nil, err
		}
		return rec.Model, nil
	}

	rec, err := st.GetModel(ctx, modelRef)
	if err != nil {
		return nil, err
	}
	return rec.Model, nil
}

// gatherScores collects scores from inline args and an optional CSV file.
func gatherScores(args []string, inputPath string) ([]float64, error) {
	var scores []float64
	if inputPath != "" {
		fromFile, err := dataset.ReadScoresCSV(inputPath)
		if err != nil {
			return nil, err
		}
		scores = append(scores, fromFile...)
	}
	for _, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "parse score %q", a)
		}
		scores = append(scores, v)
	}
	return scores, nil
}
