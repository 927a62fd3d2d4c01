package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexcodex/reformat/framework"
	"github.com/lexcodex/reformat/persistence"
)

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent format outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace()
			if err != nil {
				return err
			}
			path := ws.HistoryPath()
			if path == "" {
				return errors.New("history_db is disabled in the workspace config")
			}
			store, err := persistence.NewSQLiteOutcomeStore(path, nil)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, rec := range records {
				target := rec.FilePath
				if target == "" {
					target = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					rec.RecordedAt.Local().Format(time.DateTime), rec.Syntax, renderKind(rec.Outcome),
					rec.Duration.Round(time.Millisecond), target, dimStyle.Render(framework.FirstLine(rec.Message)))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			summary, err := store.Summary(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total: %d replaced, %d skipped, %d failed\n",
				summary[framework.OutcomeReplaced], summary[framework.OutcomeSkipped], summary[framework.OutcomeFailed])
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of outcomes to show")
	return cmd
}
