package main

import (
	"github.com/dgallion1/yamloutline/internal/lsp"
	"github.com/spf13/cobra"
)

func newLSPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Serve document symbols over LSP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := dedentPolicy()
			if err != nil {
				return err
			}
			log := newLogger().With("component", "lsp")
			log.Info("starting language server", "version", version, "dedent_policy", policy.String())
			return lsp.New(policy, version, log).RunStdio()
		},
	}
}
