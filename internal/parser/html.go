package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/yamloutline/internal/doctree"
	"github.com/dgallion1/yamloutline/internal/outline"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Each <pre> block marked as YAML, on itself
// or on a nested <code>, becomes a segment. HTML carries no source positions,
// so segment lines are relative to the block.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Source, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	out := &doctree.Source{Title: trimExt(filename)}
	if title := findTitle(doc); title != "" {
		out.Title = title
	}

	blocks := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "pre":
				if isYAMLBlock(n) {
					blocks++
					out.Segments = append(out.Segments, doctree.Segment{
						Name:  fmt.Sprintf("block %d", blocks),
						Lines: outline.SplitLines(rawText(n)),
					})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return out, nil
}

func isYAMLBlock(pre *html.Node) bool {
	if hasYAMLClass(pre) {
		return true
	}
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "code" && hasYAMLClass(c) {
			return true
		}
	}
	return false
}

// hasYAMLClass matches "yaml", "language-yaml", "lang-yml" and similar.
func hasYAMLClass(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key != "class" && a.Key != "data-lang" {
			continue
		}
		for _, c := range strings.Fields(strings.ToLower(a.Val)) {
			c = strings.TrimPrefix(strings.TrimPrefix(c, "language-"), "lang-")
			if isYAMLInfo(c) {
				return true
			}
		}
	}
	return false
}

// rawText concatenates text nodes without trimming; indentation matters.
func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return strings.TrimSpace(rawText(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
