package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/calib-cli/internal/report"
)

var historyReport string

var historyCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show the recorded merge passes of a saved model",
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

		if len(rec.Model.History) == 0 {
			return eris.New("model has no recorded history: refit with --history")
		}

		for i, p := range rec.Model.History {
			if i > 0 {
				fmt.Println()
			}
			fmt.Printf("pass %d: %d bins\n", i, len(p.Bins))
			for j, b := range p.Bins {
				fmt.Printf("  bin %2d  mean %.4f  rate %.4f  (%d/%d)\n",
					j, b.ScoreMean, b.PositiveRate, b.Positives, b.Total)
			}
		}

		if historyReport != "" {
			if err := report.WriteWorkbook(historyReport, rec.Model, nil); err != nil {
				return err
			}
			fmt.Printf("history written to %s\n", historyReport)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyReport, "report", "", "write bins and history sheets as XLSX to this path")
	rootCmd.AddCommand(historyCmd)
}
