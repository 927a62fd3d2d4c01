package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcodex/reformat/cmd/internal/cliutils"
	"github.com/lexcodex/reformat/framework"
)

func newFileCmd() *cobra.Command {
	var syntax string
	var rangeFlags []string
	var write bool
	var jobs int
	cmd := &cobra.Command{
		Use:   "file <path>...",
		Short: "Format files or directories, reporting or writing the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sels, err := cliutils.ParseRanges(rangeFlags)
			if err != nil {
				return err
			}
			if len(sels) > 0 && len(args) > 1 {
				return errors.New("--range applies to a single file")
			}
			rt, ws, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			paths, err := cliutils.ExpandPaths(args, ws.Exclude)
			if err != nil {
				return err
			}
			if len(sels) > 0 && len(paths) > 1 {
				return errors.New("--range applies to a single file")
			}
			opts := cliutils.FormatOptions{Syntax: syntax, Selections: sels, InPlace: write}
			results, err := cliutils.FormatFiles(cmd.Context(), rt.Dispatcher, paths, opts, jobs)
			if err != nil {
				return err
			}
			failed := 0
			for _, res := range results {
				wrote := false
				if write {
					if wrote, err = cliutils.WriteResult(res); err != nil {
						res.Err = err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderResult(res, wrote))
				if res.Err != nil || res.Outcome.Kind == framework.OutcomeFailed {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&syntax, "syntax", "", "Syntax scope or language id (default: inferred from the extension)")
	cmd.Flags().StringArrayVar(&rangeFlags, "range", nil, "Byte range start:end to format, repeatable (single file only)")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write formatted text back to the file and let in-place tools rewrite it")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Files formatted concurrently (default: number of CPUs)")
	return cmd
}
