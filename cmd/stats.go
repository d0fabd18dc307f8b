package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	statsFrom   string
	statsTo     string
	statsHourly bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize stored trips, optionally bucketed by hour",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		from, err := parseWindowTime(statsFrom)
		if err != nil {
			return eris.Wrap(err, "stats: parse --from")
		}
		to, err := parseWindowTime(statsTo)
		if err != nil {
			return eris.Wrap(err, "stats: parse --to")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if statsHourly {
			buckets, err := st.Hourly(ctx, from, to)
			if err != nil {
				return eris.Wrap(err, "stats: hourly")
			}
			return enc.Encode(buckets)
		}

		summary, err := st.Summary(ctx, from, to)
		if err != nil {
			return eris.Wrap(err, "stats: summary")
		}
		return enc.Encode(summary)
	},
}

// parseWindowTime accepts RFC3339 or the plain datetime layout used in trip
// files; empty means unbounded.
func parseWindowTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, eris.Errorf("invalid time %q", s)
}

func init() {
	statsCmd.Flags().StringVar(&statsFrom, "from", "", "window start (RFC3339 or YYYY-MM-DD)")
	statsCmd.Flags().StringVar(&statsTo, "to", "", "window end (RFC3339 or YYYY-MM-DD)")
	statsCmd.Flags().BoolVar(&statsHourly, "hourly", false, "bucket results by pickup hour")
	rootCmd.AddCommand(statsCmd)
}
