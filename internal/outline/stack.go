package outline

import (
	"fmt"
	"strings"
)

// AncestorStack is the chain of currently open keys, outermost first.
type AncestorStack struct {
	keys []Key
}

// Reset discards every ancestor and leaves k as the only element.
func (s *AncestorStack) Reset(k Key) {
	s.keys = append(s.keys[:0], k)
}

// Push opens k as a child of the current top.
func (s *AncestorStack) Push(k Key) {
	s.keys = append(s.keys, k)
}

// ReplaceTop supersedes the most recent key with a sibling. On an empty
// stack it behaves like Push.
func (s *AncestorStack) ReplaceTop(k Key) {
	if len(s.keys) == 0 {
		s.Push(k)
		return
	}
	s.keys[len(s.keys)-1] = k
}

// TruncateAtDepth finds the outermost key whose indentation equals
// k.Indentation, replaces it with k and drops everything deeper. It reports
// false and leaves the stack untouched when no key sits at that depth.
func (s *AncestorStack) TruncateAtDepth(k Key) bool {
	for i, a := range s.keys {
		if a.Indentation == k.Indentation {
			s.keys = append(s.keys[:i], k)
			return true
		}
	}
	return false
}

// TruncateBelow keeps the ancestors up to and including the deepest one
// indented strictly less than k, then pushes k.
func (s *AncestorStack) TruncateBelow(k Key) {
	keep := 0
	for i := len(s.keys) - 1; i >= 0; i-- {
		if s.keys[i].Indentation < k.Indentation {
			keep = i + 1
			break
		}
	}
	s.keys = append(s.keys[:keep], k)
}

// Len returns the current depth.
func (s *AncestorStack) Len() int {
	return len(s.keys)
}

// Keys returns a copy of the stack, outermost first.
func (s *AncestorStack) Keys() []Key {
	return append([]Key(nil), s.keys...)
}

// Path joins the key values with ".".
func (s *AncestorStack) Path() string {
	var b strings.Builder
	for i, k := range s.keys {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(k.Value)
	}
	return b.String()
}

// DedentPolicy decides what happens when a line dedents to an indentation no
// open ancestor uses.
type DedentPolicy int

const (
	// DedentNearest truncates to the deepest ancestor indented less than the
	// new key and pushes the key there.
	DedentNearest DedentPolicy = iota
	// DedentKeep leaves the stack as it is; the record carries the previous
	// path. This is how the VS Code yaml-symbols extension behaves.
	DedentKeep
)

func (p DedentPolicy) String() string {
	switch p {
	case DedentNearest:
		return "nearest"
	case DedentKeep:
		return "keep"
	default:
		return fmt.Sprintf("DedentPolicy(%d)", int(p))
	}
}

// ParseDedentPolicy accepts "nearest" or "keep". An empty string selects
// DedentNearest.
func ParseDedentPolicy(s string) (DedentPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nearest":
		return DedentNearest, nil
	case "keep":
		return DedentKeep, nil
	default:
		return DedentNearest, fmt.Errorf("unknown dedent policy %q (want nearest or keep)", s)
	}
}
