package doctree

import (
	"strings"

	"github.com/dgallion1/yamloutline/internal/outline"
)

// DocTree is the outline of one source document.
type DocTree struct {
	Title    string     `json:"title"`
	Segments int        `json:"segments"`        // Segments analyzed, with or without keys
	Entries  []Entry    `json:"entries"`         // Flat records, in source order
	Roots    []*DocNode `json:"roots,omitempty"` // Nested view, filled by Nest
}

// Entry is an outline record placed in its source document. Segment names the
// block the key came from when a document holds more than one (e.g. "Page 2").
type Entry struct {
	outline.Record
	Segment string `json:"segment,omitempty"`
}

// DocNode is one key in the nested view.
type DocNode struct {
	Name     string     `json:"name" yaml:"name"` // Leaf key value
	Path     string     `json:"path" yaml:"path"` // Full dotted path
	Line     int        `json:"line" yaml:"line"`
	Start    int        `json:"start" yaml:"start"`
	End      int        `json:"end" yaml:"end"`
	Segment  string     `json:"segment,omitempty" yaml:"segment,omitempty"`
	Children []*DocNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Segment is a run of lines analyzed as one YAML-like document.
type Segment struct {
	Name      string
	FirstLine int // Source line of Lines[0]
	Lines     []string

	// Columns[i] is the source column of Lines[i][0] when the host format
	// stripped a prefix (list or quote indentation). Missing entries are 0.
	Columns []int
}

// Source is a parsed input ready for outlining.
type Source struct {
	Title    string
	Segments []Segment
}

// Outline analyzes every segment of src on its own and returns the combined
// flat outline. Record lines and columns are shifted to source positions.
func Outline(src *Source, policy outline.DedentPolicy) *DocTree {
	tree := &DocTree{Title: src.Title, Segments: len(src.Segments), Entries: []Entry{}}
	for _, seg := range src.Segments {
		for _, rec := range outline.AnalyzeWith(seg.Lines, policy) {
			if rec.Range.Line < len(seg.Columns) {
				rec.Range.Start += seg.Columns[rec.Range.Line]
				rec.Range.End += seg.Columns[rec.Range.Line]
			}
			rec.Range.Line += seg.FirstLine
			tree.Entries = append(tree.Entries, Entry{Record: rec, Segment: seg.Name})
		}
	}
	return tree
}

// Nest builds the nested view from Entries. Each entry hangs under the most
// recent entry of the same segment whose path is its parent path; entries
// without one become roots. A repeated path opens a new node.
func (t *DocTree) Nest() {
	t.Roots = nil

	// Latest node per path, reset when the segment changes.
	var open map[string]*DocNode
	segment := ""

	for i, e := range t.Entries {
		if i == 0 || e.Segment != segment {
			open = make(map[string]*DocNode)
			segment = e.Segment
		}

		name := e.Key
		parentPath := ""
		if idx := strings.LastIndexByte(e.Key, '.'); idx >= 0 {
			name = e.Key[idx+1:]
			parentPath = e.Key[:idx]
		}

		node := &DocNode{
			Name:    name,
			Path:    e.Key,
			Line:    e.Range.Line,
			Start:   e.Range.Start,
			End:     e.Range.End,
			Segment: e.Segment,
		}

		if parent, ok := open[parentPath]; ok && parentPath != "" {
			parent.Children = append(parent.Children, node)
		} else {
			t.Roots = append(t.Roots, node)
		}
		open[e.Key] = node
	}
}

// Count returns the number of nodes in the nested view.
func (t *DocTree) Count() int {
	var walk func(nodes []*DocNode) int
	walk = func(nodes []*DocNode) int {
		n := 0
		for _, node := range nodes {
			n += 1 + walk(node.Children)
		}
		return n
	}
	return walk(t.Roots)
}
