package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/yamloutline/internal/doctree"
	"github.com/dgallion1/yamloutline/internal/outline"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. YAML front matter and
// fenced code blocks tagged yaml or yml become segments.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Source, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	out := &doctree.Source{Title: trimExt(filename)}

	if seg, ok := frontMatter(src); ok {
		out.Segments = append(out.Segments, seg)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	blocks := 0
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 && out.Title == trimExt(filename) {
			if title := strings.TrimSpace(string(h.Text(src))); title != "" {
				out.Title = title
			}
			return ast.WalkSkipChildren, nil
		}

		block, ok := n.(*ast.FencedCodeBlock)
		if !ok || !isYAMLInfo(string(block.Language(src))) {
			return ast.WalkContinue, nil
		}
		blocks++

		lines := block.Lines()
		if lines.Len() == 0 {
			return ast.WalkSkipChildren, nil
		}

		seg := doctree.Segment{
			Name:      fmt.Sprintf("block %d", blocks),
			FirstLine: bytes.Count(src[:lines.At(0).Start], []byte("\n")),
		}
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			v := strings.TrimSuffix(string(line.Value(src)), "\n")
			seg.Lines = append(seg.Lines, strings.TrimSuffix(v, "\r"))
			seg.Columns = append(seg.Columns, strippedColumns(src, line.Start))
		}
		out.Segments = append(out.Segments, seg)
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk markdown: %w", err)
	}

	return out, nil
}

// strippedColumns counts the characters goldmark dropped between the start of
// the source line and start, such as list item or fence indentation.
func strippedColumns(src []byte, start int) int {
	lineStart := bytes.LastIndexByte(src[:start], '\n') + 1
	return utf8.RuneCount(src[lineStart:start])
}

// frontMatter extracts a leading "---" delimited block.
func frontMatter(src []byte) (doctree.Segment, bool) {
	lines := outline.SplitLines(string(src))
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return doctree.Segment{}, false
	}
	for i := 1; i < len(lines); i++ {
		if t := strings.TrimSpace(lines[i]); t == "---" || t == "..." {
			return doctree.Segment{
				Name:      "front matter",
				FirstLine: 1,
				Lines:     lines[1:i],
			}, true
		}
	}
	return doctree.Segment{}, false
}

func isYAMLInfo(lang string) bool {
	switch strings.ToLower(lang) {
	case "yaml", "yml":
		return true
	}
	return false
}
