package lower

import (
	"errors"
	"fmt"
)

// Error kinds. Each signals input that an upstream pass should have
// rejected; lowering stops at the first one instead of emitting partly
// wrong code. Test with errors.Is.
var (
	ErrEmptyCase        = errors.New("case expression has no clauses")
	ErrArity            = errors.New("pattern count does not match the case subjects")
	ErrDuplicateBinding = errors.New("variable bound more than once in one pattern")
	ErrUnboundGuardName = errors.New("guard references an unbound name")
	ErrUnbound          = errors.New("reference to an unbound name")
	ErrUnsupported      = errors.New("unsupported expression")
)

// Error is a lowering failure with the position of the offending node.
type Error struct {
	Kind   error
	Clause int    // 1-based clause index, 0 when not about a clause
	Name   string // offending variable, if any
	Detail string
	Line   int
	Column int
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Name != "" {
		msg += " '" + e.Name + "'"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Clause > 0 {
		msg = fmt.Sprintf("clause %d: %s", e.Clause, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Kind }
