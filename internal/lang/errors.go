package lang

import (
	"fmt"

	"github.com/pkg/errors"
)

// DiagnosticKind partitions errors per spec.md §7.
type DiagnosticKind int

const (
	KindLexical DiagnosticKind = iota
	KindSyntax
	KindNameResolution
	KindType
	KindArity
	KindIndex
	KindInheritance
	KindInternal
)

// Label returns the human-readable kind name used in a diagnostic's
// "kind: message" rendering (e.g. "type error").
func (k DiagnosticKind) Label() string {
	switch k {
	case KindLexical:
		return "lexical error"
	case KindSyntax:
		return "parse error"
	case KindNameResolution:
		return "name error"
	case KindType:
		return "type error"
	case KindArity:
		return "arity error"
	case KindIndex:
		return "index error"
	case KindInheritance:
		return "inheritance error"
	case KindInternal:
		return "internal error"
	default:
		return "error"
	}
}

// Diagnostic is a single-line, user-facing error. Runtime errors are
// reported this way and never carry a stack trace (spec.md §7); only
// KindInternal errors are additionally wrapped with github.com/pkg/errors
// for a developer-facing stack trace under --trace.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
	Line    int
}

func (d *Diagnostic) Error() string {
	if d.Line > 0 {
		return fmt.Sprintf("[line %d] %s: %s", d.Line, d.Kind.Label(), d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Kind.Label(), d.Message)
}

func newDiag(kind DiagnosticKind, line int, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...), Line: line}
}

func typeErr(line int, format string, args ...any) error {
	return newDiag(KindType, line, format, args...)
}

func nameErr(line int, format string, args ...any) error {
	return newDiag(KindNameResolution, line, format, args...)
}

func arityErr(line int, format string, args ...any) error {
	return newDiag(KindArity, line, format, args...)
}

func indexErr(line int, format string, args ...any) error {
	return newDiag(KindIndex, line, format, args...)
}

func inheritanceErr(line int, format string, args ...any) error {
	return newDiag(KindInheritance, line, format, args...)
}

// internalErr marks a should-not-happen evaluator branch. It is wrapped
// with a stack trace (via github.com/pkg/errors) so --trace mode can show a
// developer where the invariant broke, while its single-line Error() form
// stays consistent with every other diagnostic.
func internalErr(format string, args ...any) error {
	d := newDiag(KindInternal, 0, format, args...)
	return errors.WithStack(d)
}

// AsDiagnostic unwraps an error produced anywhere in this package back to
// its *Diagnostic, looking through any github.com/pkg/errors wrapping.
func AsDiagnostic(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
