package formula

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a formula failure
type Kind string

const (
	KindLex             Kind = "lex"
	KindSyntax          Kind = "syntax"
	KindUnknownFunction Kind = "unknown_function"
	KindArityOrType     Kind = "arity_or_type"
	KindMissingVariable Kind = "missing_variable"
	KindStuckEvaluation Kind = "stuck_evaluation"
	KindNumeric         Kind = "numeric"
)

// Sentinels for errors.Is. Only the kind is compared.
var (
	ErrLex             = &Error{Kind: KindLex}
	ErrSyntax          = &Error{Kind: KindSyntax}
	ErrUnknownFunction = &Error{Kind: KindUnknownFunction}
	ErrArityOrType     = &Error{Kind: KindArityOrType}
	ErrMissingVariable = &Error{Kind: KindMissingVariable}
	ErrStuckEvaluation = &Error{Kind: KindStuckEvaluation}
	ErrNumeric         = &Error{Kind: KindNumeric}
)

// Error represents a formula error
type Error struct {
	Kind     Kind
	Message  string
	Formula  string // offending formula text
	MetricID string // derived metric being computed, if known
	Name     string // identifier or function name involved, if any
	Col      int    // 1-based column of the offending token, 0 when unknown
}

// Error returns the error message
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(" error")
	if e.Col > 0 {
		fmt.Fprintf(&b, " at col %d", e.Col)
	}
	if e.MetricID != "" {
		fmt.Fprintf(&b, " computing %q", e.MetricID)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Formula != "" {
		fmt.Fprintf(&b, " (formula %q)", e.Formula)
	}
	return b.String()
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func errorAt(kind Kind, tok *Token, format string, args ...any) *Error {
	err := newError(kind, format, args...)
	if tok != nil {
		err.Col = tok.Col
	}
	return err
}

// withContext fills in formula text and metric id on a formula error
func withContext(err error, formula, id string) error {
	var fe *Error
	if !errors.As(err, &fe) {
		return err
	}
	if fe.Formula == "" {
		fe.Formula = formula
	}
	if fe.MetricID == "" {
		fe.MetricID = id
	}
	return err
}

// KindOf returns the kind of a formula error, or "" for other errors
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
