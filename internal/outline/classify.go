package outline

import (
	"strings"
	"unicode"
)

// Kind is the classifier's verdict for a single line.
type Kind int

const (
	KindBlank Kind = iota
	KindTopLevel
	KindIndented
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindTopLevel:
		return "top-level"
	case KindIndented:
		return "indented"
	default:
		return "other"
	}
}

// Verdict is the result of classifying one line. Key is only meaningful
// for KindTopLevel and KindIndented.
type Verdict struct {
	Kind Kind
	Key  Key
}

// IsKey reports whether the line introduced a key.
func (v Verdict) IsKey() bool {
	return v.Kind == KindTopLevel || v.Kind == KindIndented
}

// Classify inspects one raw line. A line with no leading whitespace is only
// ever a top-level key or Other, never an indented key.
func Classify(line string) Verdict {
	if strings.TrimFunc(line, isSpace) == "" {
		return Verdict{Kind: KindBlank}
	}

	runes := []rune(line)

	if isTopLevelRune(runes[0]) {
		n := leadingRun(runes, 0, isTopLevelRune)
		return Verdict{
			Kind: KindTopLevel,
			Key:  Key{Value: string(runes[:n]), Indentation: 0},
		}
	}

	indent := leadingRun(runes, 0, isSpace)
	if indent == 0 {
		return Verdict{Kind: KindOther}
	}
	n := leadingRun(runes, indent, isKeyRune)
	if n == 0 {
		return Verdict{Kind: KindOther}
	}
	return Verdict{
		Kind: KindIndented,
		Key:  Key{Value: string(runes[indent : indent+n]), Indentation: indent},
	}
}

// tokenStart returns the offset of the first letter or underscore on the
// line, or 0 when there is none.
func tokenStart(line string) int {
	i := 0
	for _, r := range line {
		if isKeyRune(r) {
			return i
		}
		i++
	}
	return 0
}

// leadingRun counts consecutive runes from start that satisfy pred.
func leadingRun(runes []rune, start int, pred func(rune) bool) int {
	n := 0
	for i := start; i < len(runes) && pred(runes[i]); i++ {
		n++
	}
	return n
}

func isKeyRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isTopLevelRune(r rune) bool {
	return isKeyRune(r) || r == '\\'
}

// isSpace matches unicode whitespace plus the byte order mark.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
