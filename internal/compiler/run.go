package compiler

import (
	"context"
	"fmt"

	"github.com/lhaig/casec/internal/ast"
	"github.com/lhaig/casec/internal/jsexec"
	"github.com/lhaig/casec/internal/parser"
)

// Run compiles source and calls the named function with args, each a
// source literal such as `3`, `True` or `#(1, "a")`. A "Bad match" at
// run time comes back as a *jsexec.Thrown error. The cache is bypassed:
// execution needs the lowered module, which cache entries do not keep.
func (c *Compiler) Run(ctx context.Context, file string, source []byte, name string, args []string) (jsexec.Value, *Result, error) {
	res, err := c.compile(ctx, file, source, nil)
	if err != nil {
		return nil, nil, err
	}
	if !res.OK() {
		return nil, res, fmt.Errorf("compilation failed")
	}
	values := make([]jsexec.Value, len(args))
	for i, arg := range args {
		v, err := ParseValue(arg)
		if err != nil {
			return nil, res, fmt.Errorf("argument %d: %w", i+1, err)
		}
		values[i] = v
	}
	v, err := jsexec.CallByName(res.Module, name, values...)
	return v, res, err
}

// ParseValue parses a source literal into a run-time value. Tuples
// become arrays.
func ParseValue(src string) (jsexec.Value, error) {
	expr, diags := parser.ParseExpr(src)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid value %q: %s", src, diags.Errors()[0].Message)
	}
	v, ok := literalValue(expr)
	if !ok {
		return nil, fmt.Errorf("invalid value %q: only literals and tuples of literals are allowed", src)
	}
	return v, nil
}

func literalValue(e ast.Expression) (jsexec.Value, bool) {
	switch x := e.(type) {
	case *ast.Constant:
		switch x.Value.Kind {
		case ast.BoolLiteral:
			return x.Value.Bool, true
		case ast.IntLiteral:
			return x.Value.Int, true
		default:
			return x.Value.Str, true
		}
	case *ast.TupleLit:
		elems := make([]jsexec.Value, len(x.Elements))
		for i, el := range x.Elements {
			v, ok := literalValue(el)
			if !ok {
				return nil, false
			}
			elems[i] = v
		}
		return jsexec.NewArray(elems...), true
	default:
		return nil, false
	}
}
