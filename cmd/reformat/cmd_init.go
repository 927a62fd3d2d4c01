package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lexcodex/reformat/cmd/internal/workspacecfg"
)

func newInitCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter reformat config into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			switch format {
			case "yaml":
				name = "reformat.yaml"
			case "toml":
				name = "reformat.toml"
			default:
				return fmt.Errorf("unknown format %q (yaml, toml)", format)
			}
			path := filepath.Join(flagWorkspace, name)
			if err := workspacecfg.Save(workspacecfg.Starter(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", filePathStyle.Render(path))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "Config format (yaml, toml)")
	return cmd
}
