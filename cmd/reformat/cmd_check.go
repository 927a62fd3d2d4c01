package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lexcodex/reformat/cmd/internal/workspacecfg"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report which configured formatter binaries resolve",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace()
			if err != nil {
				return err
			}
			cfg, err := ws.FrameworkConfig()
			if err != nil {
				return err
			}
			if flagBinDir != "" {
				cfg.BinDir = flagBinDir
			}
			missing := 0
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, st := range workspacecfg.CheckTools(cmd.Context(), cfg) {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", st.Language, st.Command, renderStatus(st.Status), dimStyle.Render(st.Details))
				if st.Status != "ok" {
					missing++
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if missing > 0 {
				return fmt.Errorf("%d formatter(s) unavailable", missing)
			}
			return nil
		},
	}
	return cmd
}
