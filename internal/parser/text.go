package parser

import (
	"io"

	"github.com/dgallion1/yamloutline/internal/doctree"
	"github.com/dgallion1/yamloutline/internal/outline"
)

// TextParser handles YAML and plain text files: the whole file is one segment.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	src := &doctree.Source{Title: trimExt(filename)}
	lines := outline.SplitLines(string(data))
	if len(lines) > 0 {
		src.Segments = []doctree.Segment{{Lines: lines}}
	}
	return src, nil
}
