package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/mobility-cli/internal/export"
	"github.com/sells-group/mobility-cli/internal/model"
	"github.com/sells-group/mobility-cli/internal/rank"
)

var (
	toptipsK      int
	toptipsFormat string
	toptipsOutput string
)

var toptipsCmd = &cobra.Command{
	Use:   "toptips",
	Short: "Query the K trips with the highest tip-to-fare ratio",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		results, err := st.TopTipped(ctx, toptipsK)
		if err != nil {
			return eris.Wrap(err, "toptips: query")
		}
		zap.L().Info("toptips: query complete", zap.Int("k", toptipsK), zap.Int("results", len(results)))

		switch toptipsFormat {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		case "xlsx":
			path := toptipsOutput
			if path == "" {
				path = "top_tipped.xlsx"
			}
			return export.WriteTopTippedXLSX(path, results)
		case "table":
			printTopTippedTable(results)
			return nil
		default:
			return eris.Errorf("toptips: unknown format %q (valid: table, json, xlsx)", toptipsFormat)
		}
	},
}

func printTopTippedTable(results []rank.Scored[model.Trip]) {
	fmt.Printf("%-4s  %-8s  %-10s  %-10s  %-19s\n", "rank", "tip_pct", "fare", "tip", "pickup")
	for i, r := range results {
		fmt.Printf("%-4d  %-8.2f  %-10.2f  %-10.2f  %-19s\n",
			i+1, r.Score*100, r.Record.FareAmount, r.Record.TipAmount,
			r.Record.PickupAt.Format("2006-01-02 15:04:05"),
		)
	}
}

func init() {
	toptipsCmd.Flags().IntVar(&toptipsK, "k", 20, "number of trips to return")
	toptipsCmd.Flags().StringVar(&toptipsFormat, "format", "table", "output format: table, json, or xlsx")
	toptipsCmd.Flags().StringVar(&toptipsOutput, "output", "", "output path for xlsx format (default: top_tipped.xlsx)")
	rootCmd.AddCommand(toptipsCmd)
}
