package main

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/lexcodex/reformat/cmd/internal/cliutils"
	"github.com/lexcodex/reformat/framework"
)

func newStdinCmd() *cobra.Command {
	var syntax string
	var rangeFlags []string
	cmd := &cobra.Command{
		Use:   "stdin",
		Short: "Format standard input to standard output",
		RunE: func(cmd *cobra.Command, args []string) error {
			if syntax == "" {
				return errors.New("--syntax is required")
			}
			sels, err := cliutils.ParseRanges(rangeFlags)
			if err != nil {
				return err
			}
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			rt, _, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			res := framework.FormatSelections(cmd.Context(), rt.Dispatcher, framework.FormatRequest{
				Content: string(data),
				Syntax:  syntax,
			}, sels)
			// Regions the formatter did not replace are echoed unchanged.
			if _, err := io.WriteString(cmd.OutOrStdout(), res.Content); err != nil {
				return err
			}
			if failed, ok := res.Failed(); ok {
				return failed.Err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&syntax, "syntax", "", "Syntax scope or language id, e.g. source.json or clojure")
	cmd.Flags().StringArrayVar(&rangeFlags, "range", nil, "Byte range start:end to format, repeatable")
	return cmd
}
