package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/calib-cli/internal/store"
)

var (
	modelsName   string
	modelsLimit  int
	modelsOffset int
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage the model registry",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved models",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		recs, err := st.ListModels(ctx, store.ModelFilter{
			Name:   modelsName,
			Limit:  modelsLimit,
			Offset: modelsOffset,
		})
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("no models found")
			return nil
		}

		fmt.Printf("%-36s  %-20s  %5s  %8s  %s\n", "ID", "NAME", "BINS", "SAMPLES", "CREATED")
		for _, r := range recs {
			fmt.Printf("%-36s  %-20s  %5d  %8d  %s\n",
				r.ID, r.Name, r.BinCount, r.Samples, r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var modelsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved model's calibration curve",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := st.GetModel(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("id:        %s\n", rec.ID)
		fmt.Printf("name:      %s\n", rec.Name)
		fmt.Printf("threshold: %d\n", rec.ThresholdPos)
		fmt.Printf("boundary:  %s\n", rec.Boundary)
		fmt.Printf("samples:   %d (%d positive)\n", rec.Samples, rec.Positives)
		fmt.Printf("created:   %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Print(curveText(rec.Model))
		return nil
	},
}

var modelsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteModel(ctx, args[0]); err != nil {
			return err
		}
		zap.L().Info("model deleted", zap.String("id", args[0]))
		fmt.Printf("deleted model %s\n", args[0])
		return nil
	},
}

func init() {
	modelsListCmd.Flags().StringVar(&modelsName, "name", "", "filter by model name")
	modelsListCmd.Flags().IntVar(&modelsLimit, "limit", 50, "max models to list")
	modelsListCmd.Flags().IntVar(&modelsOffset, "offset", 0, "offset into the result set")

	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsShowCmd)
	modelsCmd.AddCommand(modelsDeleteCmd)
	rootCmd.AddCommand(modelsCmd)
}
