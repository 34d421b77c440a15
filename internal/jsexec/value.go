// Package jsexec evaluates emitted IR with JavaScript semantics and parses
// emitted JavaScript expressions back into IR. It covers exactly the
// subset the lowering produces.
package jsexec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a JavaScript value: bool, int64, string, *Array or Undefined.
type Value any

// Array is a JavaScript array. Arrays compare by identity.
type Array struct {
	Elems []Value
}

// NewArray builds an array from its elements.
func NewArray(elems ...Value) *Array {
	return &Array{Elems: elems}
}

// Undefined is the JavaScript undefined value.
type Undefined struct{}

// Thrown is an exception raised by the evaluated program.
type Thrown struct {
	Message string
}

func (t *Thrown) Error() string {
	return "uncaught Error: " + t.Message
}

// Truthy reports JavaScript truthiness.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case string:
		return x != ""
	case Undefined:
		return false
	default:
		return true
	}
}

// StrictEqual implements ===.
func StrictEqual(a, b Value) bool {
	switch x := a.(type) {
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case int64:
		y, ok := b.(int64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case *Array:
		y, ok := b.(*Array)
		return ok && x == y
	case Undefined:
		_, ok := b.(Undefined)
		return ok
	default:
		return false
	}
}

// compare implements the relational operators. cmp receives -1, 0 or 1; a
// comparison involving NaN is always false.
func compare(a, b Value, cmp func(int) bool) bool {
	if x, ok := a.(string); ok {
		if y, ok := b.(string); ok {
			return cmp(strings.Compare(x, y))
		}
	}
	x, y := toNumber(a), toNumber(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	switch {
	case x < y:
		return cmp(-1)
	case x > y:
		return cmp(1)
	default:
		return cmp(0)
	}
}

func toNumber(v Value) float64 {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case int64:
		return float64(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// Format renders a value the way a JavaScript console would.
func Format(v Value) string {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case string:
		return strconv.Quote(x)
	case *Array:
		parts := make([]string, len(x.Elems))
		for i, el := range x.Elems {
			parts[i] = Format(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Undefined:
		return "undefined"
	default:
		return fmt.Sprintf("<%T>", v)
	}
}
