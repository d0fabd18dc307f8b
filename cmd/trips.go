package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	tripsLimit  int
	tripsOffset int
)

var tripsCmd = &cobra.Command{
	Use:   "trips",
	Short: "List stored trips, most recent pickup first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		trips, err := st.ListTrips(ctx, tripsLimit, tripsOffset)
		if err != nil {
			return eris.Wrap(err, "trips: list")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(trips)
	},
}

func init() {
	tripsCmd.Flags().IntVar(&tripsLimit, "limit", 50, "max trips to return")
	tripsCmd.Flags().IntVar(&tripsOffset, "offset", 0, "rows to skip")
	rootCmd.AddCommand(tripsCmd)
}
