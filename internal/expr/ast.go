package expr

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/pipegridgo/internal/cellrange"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// Expression is a node of an expression tree.
type Expression interface {
	// Range returns the source range the node was parsed from.
	Range() hcl.Range
	String() string
	expression()
}

// UnaryOperator names an operator applied to one operand.
type UnaryOperator string

const (
	OpNot       UnaryOperator = "not"
	OpNeg       UnaryOperator = "-"
	OpPlus      UnaryOperator = "+"
	OpSqrt      UnaryOperator = "sqrt"
	OpFloor     UnaryOperator = "floor"
	OpCeil      UnaryOperator = "ceil"
	OpRound     UnaryOperator = "round"
	OpLowercase UnaryOperator = "lowercase"
	OpUppercase UnaryOperator = "uppercase"
)

// BinaryOperator names an operator applied to two operands.
type BinaryOperator string

const (
	OpPow     BinaryOperator = "pow"
	OpRoot    BinaryOperator = "root"
	OpMul     BinaryOperator = "*"
	OpDiv     BinaryOperator = "/"
	OpMod     BinaryOperator = "%"
	OpAdd     BinaryOperator = "+"
	OpSub     BinaryOperator = "-"
	OpMatches BinaryOperator = "matches"
	OpIn      BinaryOperator = "in"
	OpLT      BinaryOperator = "<"
	OpLE      BinaryOperator = "<="
	OpGT      BinaryOperator = ">"
	OpGE      BinaryOperator = ">="
	OpEq      BinaryOperator = "=="
	OpNe      BinaryOperator = "!="
	OpXor     BinaryOperator = "xor"
	OpAnd     BinaryOperator = "and"
	OpOr      BinaryOperator = "or"
)

// Literal is a constant value.
type Literal struct {
	Value    cty.Value
	Type     *valuetype.Valuetype
	SrcRange hcl.Range
}

// UnaryOp applies Op to Operand.
type UnaryOp struct {
	Op       UnaryOperator
	Operand  Expression
	SrcRange hcl.Range
}

// BinaryOp applies Op to Left and Right.
type BinaryOp struct {
	Op       BinaryOperator
	Left     Expression
	Right    Expression
	SrcRange hcl.Range
}

// Reference names a value provided by the EvaluationContext, such as a
// runtime variable.
type Reference struct {
	Name     string
	SrcRange hcl.Range
}

// Collection is an ordered list of expressions.
type Collection struct {
	Items    []Expression
	SrcRange hcl.Range
}

func (e *Literal) Range() hcl.Range    { return e.SrcRange }
func (e *UnaryOp) Range() hcl.Range    { return e.SrcRange }
func (e *BinaryOp) Range() hcl.Range   { return e.SrcRange }
func (e *Reference) Range() hcl.Range  { return e.SrcRange }
func (e *Collection) Range() hcl.Range { return e.SrcRange }

func (*Literal) expression()    {}
func (*UnaryOp) expression()    {}
func (*BinaryOp) expression()   {}
func (*Reference) expression()  {}
func (*Collection) expression() {}

func (e *Literal) String() string { return FormatValue(e.Value) }

func (e *UnaryOp) String() string {
	switch e.Op {
	case OpNeg, OpPlus:
		return string(e.Op) + e.Operand.String()
	}
	return string(e.Op) + " " + e.Operand.String()
}

func (e *BinaryOp) String() string {
	return "(" + e.Left.String() + " " + string(e.Op) + " " + e.Right.String() + ")"
}

func (e *Reference) String() string { return e.Name }

func (e *Collection) String() string {
	items := make([]string, len(e.Items))
	for i, it := range e.Items {
		items[i] = it.String()
	}
	return "[" + strings.Join(items, ", ") + "]"
}

// Bool creates a boolean literal.
func Bool(b bool) *Literal {
	return &Literal{Value: cty.BoolVal(b), Type: valuetype.Boolean}
}

// Int creates an integer literal.
func Int(i int64) *Literal {
	return &Literal{Value: cty.NumberIntVal(i), Type: valuetype.Integer}
}

// Dec creates a decimal literal. Its type stays Decimal even for whole
// numbers.
func Dec(f float64) *Literal {
	return &Literal{Value: cty.NumberFloatVal(f), Type: valuetype.Decimal}
}

// Text creates a text literal.
func Text(s string) *Literal {
	return &Literal{Value: cty.StringVal(s), Type: valuetype.Text}
}

// CellRange creates a cell range literal.
func CellRange(r cellrange.Range) *Literal {
	return &Literal{Value: cellrange.Val(r), Type: valuetype.CellRange}
}

// Number creates a numeric literal from its source text. Literals written
// with a fraction or an exponent are decimals.
func Number(src string, v cty.Value) (*Literal, error) {
	if v.Type() != cty.Number {
		return nil, fmt.Errorf("%q is not a number", src)
	}
	if strings.ContainsAny(src, ".eE") || !v.AsBigFloat().IsInt() {
		return &Literal{Value: v, Type: valuetype.Decimal}, nil
	}
	return &Literal{Value: v, Type: valuetype.Integer}, nil
}

// Unary creates a unary operator node.
func Unary(op UnaryOperator, operand Expression) *UnaryOp {
	return &UnaryOp{Op: op, Operand: operand}
}

// Binary creates a binary operator node.
func Binary(left Expression, op BinaryOperator, right Expression) *BinaryOp {
	return &BinaryOp{Op: op, Left: left, Right: right}
}

// Ref creates a reference node.
func Ref(name string) *Reference {
	return &Reference{Name: name}
}

// List creates a collection node.
func List(items ...Expression) *Collection {
	return &Collection{Items: items}
}

// Walk calls fn for e and all of its descendants in depth-first order.
// Returning false from fn skips the children of the current node.
func Walk(e Expression, fn func(Expression) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *UnaryOp:
		Walk(n.Operand, fn)
	case *BinaryOp:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Collection:
		for _, it := range n.Items {
			Walk(it, fn)
		}
	}
}

// References returns the distinct names e refers to, in first-use order.
func References(e Expression) []string {
	var names []string
	seen := make(map[string]bool)
	Walk(e, func(n Expression) bool {
		if r, ok := n.(*Reference); ok && !seen[r.Name] {
			seen[r.Name] = true
			names = append(names, r.Name)
		}
		return true
	})
	return names
}

// IsLiteral reports whether e is a literal, or a collection made only of
// literals.
func IsLiteral(e Expression) bool {
	switch n := e.(type) {
	case *Literal:
		return true
	case *Collection:
		for _, it := range n.Items {
			if !IsLiteral(it) {
				return false
			}
		}
		return true
	}
	return false
}
