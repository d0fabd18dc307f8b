package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/mobility-cli/internal/etl"
	"github.com/sells-group/mobility-cli/internal/export"
	"github.com/sells-group/mobility-cli/internal/source"
	"github.com/sells-group/mobility-cli/internal/store"
	"github.com/sells-group/mobility-cli/internal/validate"
)

var (
	etlInput     string
	etlOutput    string
	etlBatchSize int
	etlWorkers   int
	etlDryRun    bool
)

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Validate, enrich, and load raw trip records",
	Long: `Reads raw trip records from a CSV file, a zip archive, or a directory
tree of CSV files, validates and enriches each record, and loads accepted
records into the configured store in batches.

Examples:
  # Load a single CSV into the store
  mobility-cli etl --input trips.csv

  # Validate only, report tallies, write nothing
  mobility-cli etl --input trips.zip --dry-run

  # Load a directory tree and keep a cleaned CSV copy
  mobility-cli etl --input ./data --output cleaned.csv --workers 4`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		src, err := source.Open(etlInput)
		if err != nil {
			return eris.Wrap(err, "etl: open input")
		}
		defer src.Close() //nolint:errcheck

		batchSize := etlBatchSize
		if batchSize == 0 {
			batchSize = cfg.ETL.BatchSize
		}
		workers := etlWorkers
		if workers == 0 {
			workers = cfg.ETL.Workers
		}

		var sinks []etl.BatchWriter
		var st store.Store
		if etlDryRun {
			sinks = append(sinks, etl.DiscardWriter{})
		} else {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			sinks = append(sinks, st)
		}

		var csvOut *export.CSVWriter
		if etlOutput != "" {
			csvOut, err = export.NewCSVWriter(etlOutput)
			if err != nil {
				return err
			}
			sinks = append(sinks, csvOut)
		}

		pipeline := etl.New(validate.New(cfg.Validation))
		report, runErr := pipeline.RunParallel(ctx, src, etl.MultiWriter(sinks...), batchSize, workers)

		if csvOut != nil {
			if closeErr := csvOut.Close(); closeErr != nil {
				zap.L().Error("etl: close cleaned CSV", zap.Error(closeErr))
			}
		}

		if report != nil {
			logReport(report)
			if st != nil {
				if recordErr := st.RecordRun(ctx, report); recordErr != nil {
					zap.L().Error("etl: record run", zap.Error(recordErr))
				}
			}
		}
		if runErr != nil {
			return eris.Wrap(runErr, "etl: run")
		}
		return nil
	},
}

func logReport(report *etl.Report) {
	fields := []zap.Field{
		zap.String("run_id", report.RunID),
		zap.Int("seen", report.Seen),
		zap.Int("accepted", report.Accepted),
		zap.Int("rejected", report.Rejected),
		zap.Int("batches", report.Batches),
		zap.Int("committed", report.Committed),
		zap.Duration("duration", report.Duration),
	}
	for reason, n := range report.Reasons {
		fields = append(fields, zap.Int("reason_"+string(reason), n))
	}
	zap.L().Info("etl: report", fields...)
}

func init() {
	etlCmd.Flags().StringVar(&etlInput, "input", "", "path to CSV file, zip archive, or directory (required)")
	etlCmd.Flags().StringVar(&etlOutput, "output", "", "also write accepted records to a cleaned CSV file")
	etlCmd.Flags().IntVar(&etlBatchSize, "batch-size", 0, "records per store batch (default from config)")
	etlCmd.Flags().IntVar(&etlWorkers, "workers", 0, "validation workers (default from config)")
	etlCmd.Flags().BoolVar(&etlDryRun, "dry-run", false, "validate and tally only, write nothing")
	_ = etlCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(etlCmd)
}
