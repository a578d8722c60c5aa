package compiler

import "fmt"

// DiagnosticKind enumerates the compile-time diagnostic kinds named in the
// error-handling design: every syntax-level failure the compiler can report
// falls into one of these buckets.
type DiagnosticKind string

const (
	UnexpectedToken     DiagnosticKind = "unexpected_token"
	UnterminatedString  DiagnosticKind = "unterminated_string"
	UndefinedConstInit  DiagnosticKind = "undefined_const_init"
	TooManyLocals       DiagnosticKind = "too_many_locals"
	TooManyConstants    DiagnosticKind = "too_many_constants"
	ArityMismatch       DiagnosticKind = "arity_mismatch"
	InvalidAssignTarget DiagnosticKind = "invalid_assign_target"
	ConstReassignment   DiagnosticKind = "const_reassignment"
)

// Diagnostic is a single compile-time error: a position, a kind, and a
// human-readable message. The compiler keeps parsing after recording one,
// resynchronizing to the next statement boundary, so a single Compile call
// can surface several diagnostics at once.
type Diagnostic struct {
	Line    int
	Col     int
	Kind    DiagnosticKind
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s", d.Line, d.Col, d.Message)
}
