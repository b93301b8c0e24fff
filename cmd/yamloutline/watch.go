package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/yamloutline/internal/parser"
	"github.com/dgallion1/yamloutline/internal/pipeline"
	"github.com/dgallion1/yamloutline/internal/watch"
	"github.com/spf13/cobra"
)

var debounceFlag time.Duration

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Reprint the outline of a file whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "table", "output format: table, json or yaml")
	cmd.Flags().BoolVar(&treeFlag, "tree", false, "show the nested key tree")
	cmd.Flags().DurationVar(&debounceFlag, "debounce", watch.DefaultDebounce, "quiet period before reprinting")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	policy, err := dedentPolicy()
	if err != nil {
		return err
	}
	log := newLogger()
	analyzer := pipeline.NewAnalyzer(policy, parser.Options{PDFFallbackPdftotext: true}, nil, nil, log)

	w, err := watch.New(args[0], debounceFlag, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	show := func(path string) {
		r := outlineOne(ctx, analyzer, path, path, nil, treeFlag)
		if r.Error != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", path, r.Error)
			return
		}
		if err := render(out, formatFlag, []*fileResult{r}, treeFlag); err != nil {
			log.Error("render outline", "error", err)
		}
	}

	show(w.Path())
	err = w.Run(ctx, show)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
