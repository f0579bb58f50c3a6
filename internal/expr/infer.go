package expr

import (
	"fmt"

	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/valuetype"
)

// TypeEnv maps reference names to their declared value types.
type TypeEnv map[string]*valuetype.Valuetype

// Types records the inferred value type of every node of a tree. Nodes whose
// type could not be inferred are absent.
type Types map[Expression]*valuetype.Valuetype

// Infer returns the value type of e. Type errors are reported as diagnostics
// located at the offending node; a nil type means inference failed.
func Infer(e Expression, env TypeEnv) (*valuetype.Valuetype, diag.Diagnostics) {
	types, diags := InferAll(e, env)
	return types[e], diags
}

// InferAll infers the value type of e and of all its descendants.
func InferAll(e Expression, env TypeEnv) (Types, diag.Diagnostics) {
	in := &inference{env: env, types: make(Types)}
	in.infer(e)
	return in.types, in.diags
}

type inference struct {
	env   TypeEnv
	types Types
	diags diag.Diagnostics
}

func (in *inference) errorf(e Expression, format string, args ...any) {
	in.diags = append(in.diags, diag.Errorf(format, args...).At(e.Range()))
}

func (in *inference) infer(e Expression) *valuetype.Valuetype {
	var t *valuetype.Valuetype
	switch n := e.(type) {
	case *Literal:
		t = n.Type
		if t == nil {
			t, _ = valuetype.Of(n.Value)
		}
	case *Reference:
		var ok bool
		if t, ok = in.env[n.Name]; !ok {
			in.errorf(e, "Could not resolve reference %q", n.Name)
		}
	case *Collection:
		t = in.inferCollection(n)
	case *UnaryOp:
		t = in.inferUnary(n)
	case *BinaryOp:
		t = in.inferBinary(n)
	default:
		panic(fmt.Sprintf("expr: unknown expression node %T", e))
	}
	if t != nil {
		in.types[e] = t
	}
	return t
}

func (in *inference) inferCollection(n *Collection) *valuetype.Valuetype {
	var elem *valuetype.Valuetype
	failed := false
	for _, it := range n.Items {
		t := in.infer(it)
		if t == nil {
			failed = true
			continue
		}
		if elem == nil {
			elem = t
			continue
		}
		common, ok := valuetype.CommonType(elem, t)
		if !ok {
			in.errorf(it, "The collection item of type %s does not match the previous items of type %s", t, elem)
			failed = true
			continue
		}
		elem = common
	}
	if failed {
		return nil
	}
	return valuetype.Collection(elem)
}

func (in *inference) inferUnary(n *UnaryOp) *valuetype.Valuetype {
	operand := in.infer(n.Operand)
	if operand == nil {
		return nil
	}
	mismatch := func(want string) *valuetype.Valuetype {
		in.errorf(n, "The operand of %q needs to be %s but is of type %s", n.Op, want, operand)
		return nil
	}
	switch n.Op {
	case OpNot:
		if !operand.IsConvertibleTo(valuetype.Boolean) {
			return mismatch("boolean")
		}
		return valuetype.Boolean
	case OpNeg, OpPlus:
		if !operand.IsNumeric() {
			return mismatch("numeric")
		}
		return operand.Primitive()
	case OpSqrt:
		if !operand.IsNumeric() {
			return mismatch("numeric")
		}
		return valuetype.Decimal
	case OpFloor, OpCeil, OpRound:
		if !operand.IsNumeric() {
			return mismatch("numeric")
		}
		return valuetype.Integer
	case OpLowercase, OpUppercase:
		if !operand.IsConvertibleTo(valuetype.Text) {
			return mismatch("text")
		}
		return valuetype.Text
	}
	in.errorf(n, "Unknown unary operator %q", n.Op)
	return nil
}

func (in *inference) inferBinary(n *BinaryOp) *valuetype.Valuetype {
	left := in.infer(n.Left)
	right := in.infer(n.Right)
	if left == nil || right == nil {
		return nil
	}
	mismatch := func(want string) *valuetype.Valuetype {
		in.errorf(n, "The operands of %q need to be %s but are of type %s and %s", n.Op, want, left, right)
		return nil
	}
	bothInteger := left.Primitive() == valuetype.Integer && right.Primitive() == valuetype.Integer

	switch n.Op {
	case OpAdd, OpSub, OpMul, OpMod:
		if !left.IsNumeric() || !right.IsNumeric() {
			return mismatch("numeric")
		}
		if bothInteger {
			return valuetype.Integer
		}
		return valuetype.Decimal
	case OpDiv, OpPow, OpRoot:
		if !left.IsNumeric() || !right.IsNumeric() {
			return mismatch("numeric")
		}
		return valuetype.Decimal
	case OpLT, OpLE, OpGT, OpGE:
		if !left.IsNumeric() || !right.IsNumeric() {
			return mismatch("numeric")
		}
		return valuetype.Boolean
	case OpEq, OpNe:
		if !left.Primitive().IsPrimitive() || !right.Primitive().IsPrimitive() {
			return mismatch("primitive")
		}
		if _, ok := valuetype.CommonType(left, right); !ok {
			return mismatch("of a common type")
		}
		return valuetype.Boolean
	case OpMatches:
		if !left.IsConvertibleTo(valuetype.Text) || !right.IsConvertibleTo(valuetype.Text) {
			return mismatch("text")
		}
		return valuetype.Boolean
	case OpIn:
		if !left.Primitive().IsPrimitive() || right.Kind() != valuetype.KindCollection {
			return mismatch("a primitive and a collection")
		}
		if elem := right.Elem(); elem != nil {
			if _, ok := valuetype.CommonType(left, elem); !ok {
				return mismatch("a value and a collection of the same type")
			}
		}
		return valuetype.Boolean
	case OpAnd, OpOr, OpXor:
		if !left.IsConvertibleTo(valuetype.Boolean) || !right.IsConvertibleTo(valuetype.Boolean) {
			return mismatch("boolean")
		}
		return valuetype.Boolean
	}
	in.errorf(n, "Unknown binary operator %q", n.Op)
	return nil
}
