package outline

import (
	"strings"
	"unicode/utf8"
)

// Tracker consumes lines in order and maintains the ancestor stack. The zero
// value is ready to use with DedentNearest.
type Tracker struct {
	Policy DedentPolicy

	stack    AncestorStack
	previous int
}

// NewTracker returns a tracker using the given dedent policy.
func NewTracker(policy DedentPolicy) *Tracker {
	return &Tracker{Policy: policy}
}

// Feed classifies the line at index and updates the stack. It returns the
// emitted record and true when the line introduced a key.
func (t *Tracker) Feed(index int, line string) (Record, bool) {
	v := Classify(line)
	switch v.Kind {
	case KindTopLevel:
		t.stack.Reset(v.Key)
		t.previous = 0
	case KindIndented:
		t.indented(v.Key)
	default:
		return Record{}, false
	}

	start := tokenStart(line)
	return Record{
		Key: t.stack.Path(),
		Range: Range{
			Line:  index,
			Start: start,
			End:   start + utf8.RuneCountInString(v.Key.Value),
		},
	}, true
}

func (t *Tracker) indented(k Key) {
	n := k.Indentation
	switch {
	case n > t.previous:
		t.stack.Push(k)
	case n == t.previous:
		t.stack.ReplaceTop(k)
	default:
		if !t.stack.TruncateAtDepth(k) && t.Policy == DedentNearest {
			t.stack.TruncateBelow(k)
		}
	}
	t.previous = n
}

// Stack returns a copy of the currently open keys.
func (t *Tracker) Stack() []Key {
	return t.stack.Keys()
}

// Analyze runs one pass over lines with DedentNearest and returns the records
// in line order. It never fails; lines that are not keys produce nothing.
func Analyze(lines []string) []Record {
	return AnalyzeWith(lines, DedentNearest)
}

// AnalyzeWith is Analyze with an explicit dedent policy.
func AnalyzeWith(lines []string, policy DedentPolicy) []Record {
	t := NewTracker(policy)
	records := []Record{}
	for i, line := range lines {
		if r, ok := t.Feed(i, line); ok {
			records = append(records, r)
		}
	}
	return records
}

// SplitLines splits document text into lines without shifting indices: only
// the final line break is dropped and a trailing "\r" is removed from each
// line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
