package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexcodex/reformat/server"
)

func newLSPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Serve formatting over the language server protocol on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, _, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			// stdout carries the protocol, so diagnostics go to stderr.
			logger := log.New(os.Stderr, "", log.LstdFlags)
			srv := server.NewLSPServer(rt.Dispatcher, logger)
			srv.Version = version
			err = srv.Serve(cmd.Context(), server.StdioConn{Reader: os.Stdin, Writer: os.Stdout})
			if err != nil && cmd.Context().Err() != nil {
				// Interrupted by a signal rather than the client.
				return nil
			}
			return err
		},
	}
	return cmd
}
