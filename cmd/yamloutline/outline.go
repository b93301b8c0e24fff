package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dgallion1/yamloutline/internal/doctree"
	"github.com/dgallion1/yamloutline/internal/outline"
	"github.com/dgallion1/yamloutline/internal/parser"
	"github.com/dgallion1/yamloutline/internal/pipeline"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var (
	formatFlag    string
	treeFlag      bool
	stdinNameFlag string
)

// entryView is one record as printed by the json and yaml formats.
type entryView struct {
	Key     string        `json:"key" yaml:"key"`
	Range   outline.Range `json:"range" yaml:"range"`
	Segment string        `json:"segment,omitempty" yaml:"segment,omitempty"`
}

// fileResult is the outline of one input.
type fileResult struct {
	File    string             `json:"file" yaml:"file"`
	Title   string             `json:"title" yaml:"title"`
	Entries []entryView        `json:"entries" yaml:"entries"`
	Roots   []*doctree.DocNode `json:"roots,omitempty" yaml:"roots,omitempty"`
	Error   string             `json:"error,omitempty" yaml:"error,omitempty"`

	segments int
}

func newOutlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outline [files...]",
		Short: "Print the key outline of each file",
		Long: "Print the dotted key path and location of every key in each file.\n" +
			"With no files, or \"-\", the document is read from stdin.",
		RunE: runOutline,
	}
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "table", "output format: table, json or yaml")
	cmd.Flags().BoolVar(&treeFlag, "tree", false, "show the nested key tree")
	cmd.Flags().StringVar(&stdinNameFlag, "stdin-name", "stdin.yaml", "file name used to pick a parser for stdin")
	return cmd
}

func runOutline(cmd *cobra.Command, args []string) error {
	policy, err := dedentPolicy()
	if err != nil {
		return err
	}
	switch formatFlag {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", formatFlag)
	}

	analyzer := pipeline.NewAnalyzer(policy, parser.Options{PDFFallbackPdftotext: true}, nil, nil, newLogger())
	if len(args) == 0 {
		args = []string{"-"}
	}

	results, err := outlineFiles(cmd.Context(), analyzer, args, cmd.InOrStdin(), treeFlag)
	if err != nil {
		return err
	}
	if err := render(cmd.OutOrStdout(), formatFlag, results, treeFlag); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
			if formatFlag == "table" {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", r.File, r.Error)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(results))
	}
	return nil
}

// outlineFiles analyzes every path concurrently; results keep argument order.
// A file that cannot be read or parsed is reported in its result.
func outlineFiles(ctx context.Context, a *pipeline.Analyzer, paths []string, stdin io.Reader, tree bool) ([]*fileResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]*fileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		i, path := i, path
		name := path
		var data []byte
		if path == "-" {
			// stdin is read up front; it cannot be shared between goroutines.
			b, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("read stdin: %w", err)
			}
			name, data = stdinNameFlag, b
		}
		g.Go(func() error {
			results[i] = outlineOne(gctx, a, path, name, data, tree)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func outlineOne(ctx context.Context, a *pipeline.Analyzer, path, name string, data []byte, tree bool) *fileResult {
	res := &fileResult{File: path, Entries: []entryView{}}
	if data == nil {
		b, err := os.ReadFile(path)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		data = b
	}

	out, err := a.Analyze(ctx, filepath.Base(name), data)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.Title = out.Tree.Title
	res.segments = out.Segments
	for _, e := range out.Tree.Entries {
		res.Entries = append(res.Entries, entryView{Key: e.Key, Range: e.Range, Segment: e.Segment})
	}
	if tree {
		out.Tree.Nest()
		res.Roots = out.Tree.Roots
	}
	return res
}

func render(w io.Writer, format string, results []*fileResult, tree bool) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(results)
	default:
		for i, r := range results {
			if r.Error != "" {
				continue
			}
			if i > 0 {
				fmt.Fprintln(w)
			}
			renderText(w, r, tree)
		}
		return nil
	}
}

var headingColor = color.New(color.FgCyan, color.Bold)

func renderText(w io.Writer, r *fileResult, tree bool) {
	heading := r.File
	if r.Title != "" && !strings.EqualFold(r.Title, strings.TrimSuffix(filepath.Base(r.File), filepath.Ext(r.File))) {
		heading += " (" + r.Title + ")"
	}
	headingColor.Fprintf(w, "%s: %d keys\n", heading, len(r.Entries))
	if len(r.Entries) == 0 {
		return
	}

	if tree {
		l := list.NewWriter()
		l.SetOutputMirror(w)
		l.SetStyle(list.StyleConnectedRounded)
		appendNodes(l, r.Roots)
		l.Render()
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	withSegment := r.segments > 1
	header := table.Row{"Line", "Start", "End", "Key"}
	if withSegment {
		header = append(header, "Segment")
	}
	t.AppendHeader(header)
	for _, e := range r.Entries {
		// Lines are zero-based in records; editors count from one.
		row := table.Row{e.Range.Line + 1, e.Range.Start, e.Range.End, e.Key}
		if withSegment {
			row = append(row, e.Segment)
		}
		t.AppendRow(row)
	}
	t.Render()
}

func appendNodes(l list.Writer, nodes []*doctree.DocNode) {
	for _, n := range nodes {
		l.AppendItem(fmt.Sprintf("%s  (line %d)", n.Name, n.Line+1))
		if len(n.Children) > 0 {
			l.Indent()
			appendNodes(l, n.Children)
			l.UnIndent()
		}
	}
}
