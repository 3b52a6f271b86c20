package logsim

import "fmt"

// Pos is a location in a definition file. Line and Col are both 1-based.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// DiagKind classifies a diagnostic.
type DiagKind int

const (
	// LexicalError reports a character the scanner could not classify.
	LexicalError DiagKind = iota
	// SyntaxError reports a grammar violation.
	SyntaxError
	// SemanticError reports an undeclared reference, duplicate declaration,
	// arity mismatch, multiply-driven input or invalid port/parameter.
	SemanticError
)

var diagKindNames = [...]string{"lexical error", "syntax error", "semantic error"}

func (k DiagKind) String() string {
	if int(k) < len(diagKindNames) {
		return diagKindNames[k]
	}
	return fmt.Sprintf("DiagKind(%d)", int(k))
}

// Diag is a single problem found in a definition file.
type Diag struct {
	Kind DiagKind
	Pos  Pos
	Msg  string
}

func (d Diag) Error() string {
	return d.Pos.String() + ": " + d.Kind.String() + ": " + d.Msg
}

// Diagnostics is the ordered list of problems found in one parsing pass.
// A network is steppable only when its diagnostics list is empty.
type Diagnostics []Diag
