package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edsignal/opportunity-cli/internal/ingest"
)

var ingestMaxPages int

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Refresh the program cache from the College Scorecard API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		client, err := ingest.NewClient(cfg.Scorecard)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		startedAt := time.Now().UTC()

		rows, err := client.FetchAll(ctx, ingestMaxPages)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return eris.New("ingest: scorecard returned no program rows")
		}

		count, err := st.ReplacePrograms(ctx, rows)
		if err != nil {
			return eris.Wrap(err, "replace programs")
		}

		run, err := st.CreateIngestRun(ctx, "college-scorecard", count, startedAt)
		if err != nil {
			return eris.Wrap(err, "record ingest run")
		}

		zap.L().Info("ingest complete",
			zap.String("run_id", run.ID),
			zap.Int("rows", count),
			zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
		)
		return nil
	},
}

func init() {
	ingestCmd.Flags().IntVar(&ingestMaxPages, "pages", 0, "maximum pages to fetch (0 = all)")
	rootCmd.AddCommand(ingestCmd)
}
