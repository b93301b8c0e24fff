// Package outline infers a key hierarchy from a YAML-like document using
// indentation alone. It does not parse YAML: every line is classified on its
// own and an ancestor stack tracks which keys are still open.
package outline

// Key is one named node of the inferred hierarchy.
type Key struct {
	Value       string `json:"value"`
	Indentation int    `json:"indentation"`
}

// Range locates a key token on its source line. Start and End are character
// offsets; End is exclusive.
type Range struct {
	Line  int `json:"line"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// Record is one outline entry: the dotted path of the stack at the moment the
// key was accepted, plus the location of the leaf key token.
type Record struct {
	Key   string `json:"key"`
	Range Range  `json:"range"`
}
