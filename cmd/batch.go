package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/calib-cli/internal/calib"
	"github.com/sells-group/calib-cli/internal/dataset"
)

var (
	batchModel       string
	batchTrain       string
	batchOutDir      string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch [files...]",
	Short: "Calibrate multiple score files concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		m, err := resolveModel(ctx, batchModel, batchTrain)
		if err != nil {
			return err
		}

		return processBatch(ctx, m, args, batchOutDir, batchConcurrency)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchModel, "model", "", "model id from the registry, or 'latest'")
	batchCmd.Flags().StringVar(&batchTrain, "train", "", "fit a throwaway model from this labeled CSV/XLSX file")
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", ".", "directory for calibrated output files")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "max files processed in parallel")
	rootCmd.AddCommand(batchCmd)
}

// processBatch calibrates each input file and writes <name>.calibrated.csv
// into outDir. Files are processed concurrently up to the given limit.
func processBatch(ctx context.Context, m *calib.Model, files []string, outDir string, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("files", len(files)),
		zap.Int("concurrency", concurrency),
	)
	start := time.Now()

	var succeeded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := calibrateFile(m, path, outDir); err != nil {
				failed.Add(1)
				zap.L().Error("file failed", zap.String("path", path), zap.Error(err))
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Duration("elapsed", time.Since(start)),
	)

	if failed.Load() > 0 {
		return eris.Errorf("%d of %d files failed", failed.Load(), len(files))
	}
	fmt.Printf("calibrated %d files in %s\n", succeeded.Load(), time.Since(start).Round(time.Millisecond))
	return nil
}

func calibrateFile(m *calib.Model, path, outDir string) error {
	scores, err := dataset.ReadScoresCSV(path)
	if err != nil {
		return err
	}

	calibrated, err := m.Predict(scores)
	if err != nil {
		return err
	}

	out := filepath.Join(outDir, outputName(path))
	return dataset.WriteCalibratedCSV(out, scores, calibrated)
}

func outputName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + ".calibrated.csv"
}
