package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/yamloutline/internal/doctree"
	"github.com/dgallion1/yamloutline/internal/outline"
)

func TestMarkdownParser_FencedYAMLBlocks(t *testing.T) {
	input := "# Deploy guide\n" + // 0
		"\n" + // 1
		"Some intro.\n" + // 2
		"\n" + // 3
		"```yaml\n" + // 4
		"app:\n" + // 5
		"  name: web\n" + // 6
		"```\n" + // 7
		"\n" + // 8
		"```go\n" + // 9
		"package main\n" + // 10
		"```\n" + // 11
		"\n" + // 12
		"```yml\n" + // 13
		"db:\n" + // 14
		"  host: x\n" + // 15
		"```\n"

	p := &MarkdownParser{}
	src, err := p.Parse(strings.NewReader(input), "guide.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if src.Title != "Deploy guide" {
		t.Errorf("expected title %q, got %q", "Deploy guide", src.Title)
	}
	if len(src.Segments) != 2 {
		t.Fatalf("expected 2 yaml segments, got %d", len(src.Segments))
	}

	first := src.Segments[0]
	if first.Name != "block 1" {
		t.Errorf("expected %q, got %q", "block 1", first.Name)
	}
	if first.FirstLine != 5 {
		t.Errorf("expected first block to start on line 5, got %d", first.FirstLine)
	}
	if len(first.Lines) != 2 || first.Lines[1] != "  name: web" {
		t.Errorf("unexpected first block lines: %q", first.Lines)
	}

	second := src.Segments[1]
	if second.Name != "block 2" {
		t.Errorf("expected %q, got %q", "block 2", second.Name)
	}
	if second.FirstLine != 14 {
		t.Errorf("expected second block to start on line 14, got %d", second.FirstLine)
	}
}

func TestMarkdownParser_FrontMatter(t *testing.T) {
	input := "---\ntitle: Post\ntags:\n  primary: go\n---\n\nBody text.\n"
	p := &MarkdownParser{}
	src, err := p.Parse(strings.NewReader(input), "post.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(src.Segments))
	}
	seg := src.Segments[0]
	if seg.Name != "front matter" || seg.FirstLine != 1 {
		t.Errorf("unexpected segment header: %q at %d", seg.Name, seg.FirstLine)
	}
	if len(seg.Lines) != 3 {
		t.Errorf("expected 3 front matter lines, got %q", seg.Lines)
	}
}

func TestMarkdownParser_NoYAML(t *testing.T) {
	input := "Just some plain text.\n\nAnother paragraph.\n"
	p := &MarkdownParser{}
	src, err := p.Parse(strings.NewReader(input), "notes.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", src.Title)
	}
	if len(src.Segments) != 0 {
		t.Errorf("expected no segments, got %d", len(src.Segments))
	}
}

func TestMarkdownParser_FenceInListItemKeepsSourceColumns(t *testing.T) {
	input := "# Setup\n" + // 0
		"\n" + // 1
		"- item:\n" + // 2
		"\n" + // 3
		"  ```yaml\n" + // 4
		"  server:\n" + // 5
		"    port: 80\n" + // 6
		"  ```\n"

	p := &MarkdownParser{}
	src, err := p.Parse(strings.NewReader(input), "setup.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.Segments) != 1 {
		t.Fatalf("expected 1 yaml segment, got %d", len(src.Segments))
	}

	tree := doctree.Outline(src, outline.DedentNearest)
	if len(tree.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(tree.Entries))
	}

	lines := strings.Split(input, "\n")
	want := []struct {
		key   string
		rng   outline.Range
		token string
	}{
		{"server", outline.Range{Line: 5, Start: 2, End: 8}, "server"},
		{"server.port", outline.Range{Line: 6, Start: 4, End: 8}, "port"},
	}
	for i, w := range want {
		e := tree.Entries[i]
		if e.Key != w.key || e.Range != w.rng {
			t.Errorf("entry %d: expected %s %+v, got %s %+v", i, w.key, w.rng, e.Key, e.Range)
			continue
		}
		if got := lines[e.Range.Line][e.Range.Start:e.Range.End]; got != w.token {
			t.Errorf("entry %d: range covers %q, want %q", i, got, w.token)
		}
	}
}
