package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexcodex/reformat/cmd/internal/cliutils"
	"github.com/lexcodex/reformat/cmd/internal/workspacecfg"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	flagConfig    string
	flagWorkspace string
	flagBinDir    string
	flagHistory   bool
	flagVerbose   bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reformat",
		Short:         "Route format requests to zprint, black, dart format or the built-in JSON formatter",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", envOrDefault("REFORMAT_CONFIG", ""), "Config file (default: reformat.yaml/.toml in the workspace)")
	root.PersistentFlags().StringVar(&flagWorkspace, "workspace", ".", "Workspace root (config, telemetry log and history)")
	root.PersistentFlags().StringVar(&flagBinDir, "bin-dir", "", "Directory searched for formatter binaries before PATH")
	root.PersistentFlags().BoolVar(&flagHistory, "history", true, "Record outcomes in the workspace history database")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log every request")

	root.AddCommand(newFileCmd(), newStdinCmd(), newLSPCmd(), newCheckCmd(), newHistoryCmd(), newInitCmd())
	return root
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadWorkspace() (*workspacecfg.WorkspaceConfig, error) {
	if flagConfig != "" {
		return workspacecfg.LoadFile(flagConfig)
	}
	return workspacecfg.Load(flagWorkspace)
}

func openRuntime(cmd *cobra.Command) (*cliutils.Runtime, *workspacecfg.WorkspaceConfig, error) {
	ws, err := loadWorkspace()
	if err != nil {
		return nil, nil, err
	}
	rt, err := cliutils.BuildRuntime(ws, cliutils.Options{
		Logger:  log.New(cmd.ErrOrStderr(), "", log.LstdFlags),
		BinDir:  flagBinDir,
		History: flagHistory,
		Verbose: flagVerbose,
	})
	if err != nil {
		return nil, nil, err
	}
	return rt, ws, nil
}
