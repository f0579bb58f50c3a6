package expr

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Strategy selects how operands are evaluated.
type Strategy int

const (
	// Lazy skips the right operand of "and" and "or" when the left operand
	// already decides the result.
	Lazy Strategy = iota
	// Exhaustive evaluates every operand.
	Exhaustive
)

func (s Strategy) String() string {
	if s == Lazy {
		return "lazy"
	}
	return "exhaustive"
}

// ErrUnresolved is returned when an expression refers to a name the
// EvaluationContext holds no value for.
var ErrUnresolved = errors.New("unresolved reference")

// EvaluationContext holds the already evaluated values references resolve
// to. A context is created per property resolution and is not shared between
// goroutines.
type EvaluationContext struct {
	values map[string]cty.Value
}

// NewEvaluationContext creates a context holding a copy of values.
func NewEvaluationContext(values map[string]cty.Value) *EvaluationContext {
	ec := &EvaluationContext{values: make(map[string]cty.Value, len(values))}
	for k, v := range values {
		ec.values[k] = v
	}
	return ec
}

// Set binds name to v.
func (ec *EvaluationContext) Set(name string, v cty.Value) {
	ec.values[name] = v
}

// Lookup returns the value bound to name.
func (ec *EvaluationContext) Lookup(name string) (cty.Value, bool) {
	if ec == nil {
		return cty.NilVal, false
	}
	v, ok := ec.values[name]
	return v, ok
}

// Evaluate computes the value of e. A reference without a value in ec yields
// an error wrapping ErrUnresolved. Run time failures such as a division by
// zero are returned as plain errors.
func Evaluate(e Expression, ec *EvaluationContext, strategy Strategy) (cty.Value, error) {
	ev := &evaluator{ctx: ec, strategy: strategy}
	return ev.eval(e)
}

type evaluator struct {
	ctx      *EvaluationContext
	strategy Strategy
}

func (ev *evaluator) eval(e Expression) (cty.Value, error) {
	switch n := e.(type) {
	case *Literal:
		return n.Value, nil
	case *Reference:
		v, ok := ev.ctx.Lookup(n.Name)
		if !ok {
			return cty.NilVal, fmt.Errorf("%w %q", ErrUnresolved, n.Name)
		}
		return v, nil
	case *Collection:
		if len(n.Items) == 0 {
			return cty.EmptyTupleVal, nil
		}
		items := make([]cty.Value, 0, len(n.Items))
		for _, it := range n.Items {
			v, err := ev.eval(it)
			if err != nil {
				return cty.NilVal, err
			}
			items = append(items, v)
		}
		return cty.TupleVal(items), nil
	case *UnaryOp:
		operand, err := ev.eval(n.Operand)
		if err != nil {
			return cty.NilVal, err
		}
		return evalUnary(n.Op, operand)
	case *BinaryOp:
		return ev.evalBinary(n)
	}
	panic(fmt.Sprintf("expr: unknown expression node %T", e))
}

func (ev *evaluator) evalBinary(n *BinaryOp) (cty.Value, error) {
	left, err := ev.eval(n.Left)
	if err != nil && (ev.strategy == Exhaustive || !isLogical(n.Op)) {
		return cty.NilVal, err
	}
	if ev.strategy == Lazy && err == nil && left.Type() == cty.Bool {
		switch {
		case n.Op == OpAnd && left.False():
			return cty.False, nil
		case n.Op == OpOr && left.True():
			return cty.True, nil
		}
	}

	right, rerr := ev.eval(n.Right)
	if err != nil {
		// Lazy evaluation of a logical operator whose left side is unknown:
		// the right side alone may still decide it.
		if rerr == nil && right.Type() == cty.Bool {
			switch {
			case n.Op == OpAnd && right.False():
				return cty.False, nil
			case n.Op == OpOr && right.True():
				return cty.True, nil
			}
		}
		return cty.NilVal, err
	}
	if rerr != nil {
		return cty.NilVal, rerr
	}
	return evalBinary(n.Op, left, right)
}

func isLogical(op BinaryOperator) bool {
	return op == OpAnd || op == OpOr
}

func evalUnary(op UnaryOperator, v cty.Value) (cty.Value, error) {
	if err := checkOperands(string(op), unaryOperandType(op), v); err != nil {
		return cty.NilVal, err
	}
	switch op {
	case OpNot:
		return v.Not(), nil
	case OpNeg:
		return v.Negate(), nil
	case OpPlus:
		return v, nil
	case OpSqrt:
		f := toFloat(v)
		if f < 0 {
			return cty.NilVal, fmt.Errorf("cannot take the square root of %s", FormatValue(v))
		}
		return cty.NumberFloatVal(math.Sqrt(f)), nil
	case OpFloor:
		return cty.NumberFloatVal(math.Floor(toFloat(v))), nil
	case OpCeil:
		return cty.NumberFloatVal(math.Ceil(toFloat(v))), nil
	case OpRound:
		return cty.NumberFloatVal(math.Floor(toFloat(v) + 0.5)), nil
	case OpLowercase:
		return cty.StringVal(strings.ToLower(v.AsString())), nil
	case OpUppercase:
		return cty.StringVal(strings.ToUpper(v.AsString())), nil
	}
	return cty.NilVal, fmt.Errorf("unknown unary operator %q", op)
}

func evalBinary(op BinaryOperator, l, r cty.Value) (cty.Value, error) {
	switch op {
	case OpIn:
		if err := checkOperands(string(op), cty.DynamicPseudoType, l); err != nil {
			return cty.NilVal, err
		}
		if !r.Type().IsTupleType() && !r.Type().IsListType() {
			return cty.NilVal, fmt.Errorf("the right operand of \"in\" must be a collection")
		}
	case OpEq, OpNe:
		if err := checkOperands(string(op), cty.DynamicPseudoType, l, r); err != nil {
			return cty.NilVal, err
		}
	default:
		if err := checkOperands(string(op), binaryOperandType(op), l, r); err != nil {
			return cty.NilVal, err
		}
	}
	switch op {
	case OpAdd:
		return l.Add(r), nil
	case OpSub:
		return l.Subtract(r), nil
	case OpMul:
		return l.Multiply(r), nil
	case OpDiv:
		if isZero(r) {
			return cty.NilVal, fmt.Errorf("division by zero")
		}
		return l.Divide(r), nil
	case OpMod:
		if isZero(r) {
			return cty.NilVal, fmt.Errorf("modulo by zero")
		}
		return l.Modulo(r), nil
	case OpPow:
		res := math.Pow(toFloat(l), toFloat(r))
		return finite(res, "%s pow %s", l, r)
	case OpRoot:
		if isZero(r) {
			return cty.NilVal, fmt.Errorf("cannot take the zeroth root of %s", FormatValue(l))
		}
		res := math.Pow(toFloat(l), 1/toFloat(r))
		return finite(res, "%s root %s", l, r)
	case OpLT:
		return l.LessThan(r), nil
	case OpLE:
		return l.LessThanOrEqualTo(r), nil
	case OpGT:
		return l.GreaterThan(r), nil
	case OpGE:
		return l.GreaterThanOrEqualTo(r), nil
	case OpEq:
		return l.Equals(r), nil
	case OpNe:
		return l.NotEqual(r), nil
	case OpAnd:
		return l.And(r), nil
	case OpOr:
		return l.Or(r), nil
	case OpXor:
		return cty.BoolVal(l.True() != r.True()), nil
	case OpMatches:
		re, err := regexp.Compile(r.AsString())
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid regular expression %q: %w", r.AsString(), err)
		}
		return cty.BoolVal(re.MatchString(l.AsString())), nil
	case OpIn:
		for it := r.ElementIterator(); it.Next(); {
			_, item := it.Element()
			if item.Type().Equals(l.Type()) && item.Equals(l).True() {
				return cty.True, nil
			}
		}
		return cty.False, nil
	}
	return cty.NilVal, fmt.Errorf("unknown binary operator %q", op)
}

func toFloat(v cty.Value) float64 {
	f, _ := v.AsBigFloat().Float64()
	return f
}

func isZero(v cty.Value) bool {
	return v.Type() == cty.Number && v.AsBigFloat().Sign() == 0
}

func finite(f float64, format string, l, r cty.Value) (cty.Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return cty.NilVal, fmt.Errorf(format+" has no finite result", FormatValue(l), FormatValue(r))
	}
	return cty.NumberFloatVal(f), nil
}

func unaryOperandType(op UnaryOperator) cty.Type {
	switch op {
	case OpNot:
		return cty.Bool
	case OpLowercase, OpUppercase:
		return cty.String
	}
	return cty.Number
}

func binaryOperandType(op BinaryOperator) cty.Type {
	switch op {
	case OpAnd, OpOr, OpXor:
		return cty.Bool
	case OpMatches:
		return cty.String
	}
	return cty.Number
}

// checkOperands rejects operands the cty operations would panic on.
func checkOperands(op string, want cty.Type, vals ...cty.Value) error {
	for _, v := range vals {
		if v.IsNull() || !v.IsKnown() {
			return fmt.Errorf("operand of %q has no value", op)
		}
		if want != cty.DynamicPseudoType && !v.Type().Equals(want) {
			return fmt.Errorf("operand of %q must be %s, got %s", op, want.FriendlyName(), v.Type().FriendlyName())
		}
	}
	return nil
}
