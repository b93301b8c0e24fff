// Command yamloutline prints the key outline of YAML-like documents, watches
// a file for changes, or serves outlines to editors over LSP.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/yamloutline/internal/outline"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	policyFlag  string
	verboseFlag bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "yamloutline",
		Short:        "Outline the keys of YAML-like documents",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&policyFlag, "policy", "",
		"dedent policy for unknown depths: nearest or keep (default $DEDENT_POLICY, then nearest)")
	root.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newOutlineCmd(), newWatchCmd(), newLSPCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "yamloutline %s\n", version)
		},
	}
}

// dedentPolicy resolves --policy, falling back to the environment.
func dedentPolicy() (outline.DedentPolicy, error) {
	v := policyFlag
	if v == "" {
		v = os.Getenv("DEDENT_POLICY")
	}
	return outline.ParseDedentPolicy(v)
}

// newLogger logs to stderr so stdout stays clean for output and LSP traffic.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verboseFlag {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
