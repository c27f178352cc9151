package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/calib-cli/internal/calib"
	"github.com/sells-group/calib-cli/internal/config"
	"github.com/sells-group/calib-cli/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "calib",
	Short: "Probability calibration for binary classifiers",
	Long:  "Fits a monotonic binning model over (score, label) pairs and maps raw classifier scores to calibrated probabilities.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore builds the configured registry backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var st store.Store
	var err error
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.Path)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// fitOptions merges configured calibration defaults with per-command flags.
func fitOptions(thresholdPos int, boundary string, history bool) (calib.Options, error) {
	opts := calib.Options{
		ThresholdPos:    cfg.Calibration.ThresholdPos,
		RecordHistory:   cfg.Calibration.RecordHistory || history,
		StrictIntervals: cfg.Calibration.StrictIntervals,
	}
	if thresholdPos > 0 {
		opts.ThresholdPos = thresholdPos
	}
	choice := cfg.Calibration.Boundary
	if boundary != "" {
		choice = boundary
	}
	parsed, err := calib.ParseBoundaryChoice(choice)
	if err != nil {
		return calib.Options{}, err
	}
	opts.Boundary = parsed
	return opts, nil
}
