package ast

import (
	"fmt"
	"strings"
)

// Print returns a tree-like string representation of the AST for debugging
func Print(node Node) string {
	var sb strings.Builder
	printNode(&sb, node, 0)
	return sb.String()
}

func printNode(sb *strings.Builder, node Node, indent int) {
	if node == nil {
		return
	}

	prefix := strings.Repeat("  ", indent)

	switch n := node.(type) {
	case *Module:
		sb.WriteString(prefix + "Module\n")
		for _, fn := range n.Functions {
			printNode(sb, fn, indent+1)
		}

	case *Function:
		names := make([]string, len(n.Params))
		for i, p := range n.Params {
			names[i] = p.Name
			if p.Type != "" {
				names[i] += ": " + p.Type
			}
		}
		modifiers := ""
		if n.IsPublic {
			modifiers = "pub "
		}
		sb.WriteString(fmt.Sprintf("%s%sFunction: %s(%s)\n", prefix, modifiers, n.Name, strings.Join(names, ", ")))
		for _, stmt := range n.Body {
			printNode(sb, stmt, indent+1)
		}

	case *LetStmt:
		sb.WriteString(fmt.Sprintf("%sLet: %s\n", prefix, n.Name))
		printNode(sb, n.Value, indent+1)

	case *ExprStmt:
		printNode(sb, n.Expr, indent)

	case *VarRef:
		sb.WriteString(fmt.Sprintf("%sVar: %s\n", prefix, n.Name))

	case *Constant:
		sb.WriteString(fmt.Sprintf("%sConst: %s\n", prefix, n.Value))

	case *TupleAccess:
		sb.WriteString(fmt.Sprintf("%sTupleAccess: .%d\n", prefix, n.Index))
		printNode(sb, n.Tuple, indent+1)

	case *BinaryOp:
		sb.WriteString(fmt.Sprintf("%sBinary: %s\n", prefix, n.Op))
		printNode(sb, n.Left, indent+1)
		printNode(sb, n.Right, indent+1)

	case *TupleLit:
		sb.WriteString(prefix + "Tuple\n")
		for _, el := range n.Elements {
			printNode(sb, el, indent+1)
		}

	case *Block:
		sb.WriteString(prefix + "Block\n")
		for _, stmt := range n.Body {
			printNode(sb, stmt, indent+1)
		}

	case *CaseExpr:
		sb.WriteString(prefix + "Case\n")
		for _, s := range n.Subjects {
			sb.WriteString(prefix + "  Subject\n")
			printNode(sb, s, indent+2)
		}
		for _, c := range n.Clauses {
			printNode(sb, c, indent+1)
		}

	case *Clause:
		sb.WriteString(prefix + "Clause\n")
		for _, p := range n.Patterns {
			printNode(sb, p, indent+1)
		}
		if n.Guard != nil {
			sb.WriteString(prefix + "  Guard\n")
			printNode(sb, n.Guard, indent+2)
		}
		sb.WriteString(prefix + "  Body\n")
		printNode(sb, n.Body, indent+2)

	case *WildcardPattern:
		name := n.Name
		if name == "" {
			name = "_"
		}
		sb.WriteString(fmt.Sprintf("%sPWildcard: %s\n", prefix, name))

	case *LiteralPattern:
		sb.WriteString(fmt.Sprintf("%sPLiteral: %s\n", prefix, n.Value))

	case *VariablePattern:
		sb.WriteString(fmt.Sprintf("%sPVar: %s\n", prefix, n.Name))

	case *TuplePattern:
		sb.WriteString(prefix + "PTuple\n")
		for _, el := range n.Elements {
			printNode(sb, el, indent+1)
		}

	default:
		sb.WriteString(fmt.Sprintf("%s<unknown %T>\n", prefix, node))
	}
}
