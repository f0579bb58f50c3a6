package valuetype

import "fmt"

// Kind discriminates the variants of a Valuetype.
type Kind int

const (
	KindBoolean Kind = iota
	KindDecimal
	KindInteger
	KindText
	KindCellRange
	KindCollection
	KindConstrained
)

// String returns the keyword of the kind.
func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindDecimal:
		return "decimal"
	case KindInteger:
		return "integer"
	case KindText:
		return "text"
	case KindCellRange:
		return "cellRange"
	case KindCollection:
		return "collection"
	case KindConstrained:
		return "constrained"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Valuetype is a single value type. Values are immutable once created and are
// compared with Equals, never with reflect.DeepEqual.
type Valuetype struct {
	kind Kind
	name string

	// base is the supertype of a constrained type.
	base *Valuetype
	// constraints lists the constraint declarations a constrained type refines
	// its base with, in declaration order.
	constraints []string
	// elem is the element type of a collection. A nil elem marks the type of
	// the empty collection literal.
	elem *Valuetype
}

// The primitive singletons. Equality between primitives is pointer identity.
var (
	Boolean   = &Valuetype{kind: KindBoolean, name: "boolean"}
	Decimal   = &Valuetype{kind: KindDecimal, name: "decimal"}
	Integer   = &Valuetype{kind: KindInteger, name: "integer"}
	Text      = &Valuetype{kind: KindText, name: "text"}
	CellRange = &Valuetype{kind: KindCellRange, name: "cellRange"}
)

var primitives = []*Valuetype{Boolean, Decimal, Integer, Text}

// Primitives returns the scalar primitive types that user declared value
// types and table columns can be built on.
func Primitives() []*Valuetype {
	out := make([]*Valuetype, len(primitives))
	copy(out, primitives)
	return out
}

// LookupPrimitive resolves a primitive keyword such as "decimal".
func LookupPrimitive(name string) (*Valuetype, bool) {
	for _, p := range primitives {
		if p.name == name {
			return p, true
		}
	}
	if name == CellRange.name {
		return CellRange, true
	}
	return nil, false
}

// Collection returns the type of a collection whose items are of type elem.
// Passing nil yields the type of the empty collection.
func Collection(elem *Valuetype) *Valuetype {
	return &Valuetype{kind: KindCollection, name: "collection", elem: elem}
}

// NewConstrained declares a new constrained type refining base. The base must
// be a scalar primitive or another constrained type.
func NewConstrained(name string, base *Valuetype, constraints ...string) (*Valuetype, error) {
	if name == "" {
		return nil, fmt.Errorf("constrained value type needs a name")
	}
	if base == nil {
		return nil, fmt.Errorf("value type %q has no base type", name)
	}
	switch base.kind {
	case KindBoolean, KindDecimal, KindInteger, KindText, KindConstrained:
	default:
		return nil, fmt.Errorf("value type %q cannot refine %s", name, base)
	}
	cs := make([]string, len(constraints))
	copy(cs, constraints)
	return &Valuetype{kind: KindConstrained, name: name, base: base, constraints: cs}, nil
}

// Kind returns the variant tag.
func (v *Valuetype) Kind() Kind { return v.kind }

// Name returns the keyword of a primitive or the declared name of a
// constrained type.
func (v *Valuetype) Name() string { return v.name }

// Elem returns the element type of a collection, or nil.
func (v *Valuetype) Elem() *Valuetype { return v.elem }

// Constraints returns the constraint names declared directly on a constrained
// type. Constraints inherited from the supertype chain are not included.
func (v *Valuetype) Constraints() []string {
	out := make([]string, len(v.constraints))
	copy(out, v.constraints)
	return out
}

// Supertype returns the base of a constrained type. Every other variant has no
// supertype.
func (v *Valuetype) Supertype() *Valuetype {
	if v.kind == KindConstrained {
		return v.base
	}
	return nil
}

// Primitive walks the supertype chain and returns the type at its end.
func (v *Valuetype) Primitive() *Valuetype {
	t := v
	for t.Supertype() != nil {
		t = t.Supertype()
	}
	return t
}

// IsPrimitive reports whether v is one of the scalar primitives.
func (v *Valuetype) IsPrimitive() bool {
	switch v.kind {
	case KindBoolean, KindDecimal, KindInteger, KindText:
		return true
	}
	return false
}

// IsNumeric reports whether the primitive at the end of v's chain is Decimal
// or Integer.
func (v *Valuetype) IsNumeric() bool {
	p := v.Primitive()
	return p == Decimal || p == Integer
}

// Equals reports whether v and other denote the same type.
func (v *Valuetype) Equals(other *Valuetype) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.kind == KindCollection && other.kind == KindCollection {
		return v.elem.Equals(other.elem)
	}
	return v == other
}

// IsConvertibleTo reports whether a value of type v may be used where target
// is expected.
func (v *Valuetype) IsConvertibleTo(target *Valuetype) bool {
	if v == nil || target == nil {
		return false
	}
	if v.Equals(target) {
		return true
	}
	if v.kind == KindCollection {
		if target.kind != KindCollection {
			return false
		}
		if v.elem == nil {
			return true
		}
		if target.elem == nil {
			return false
		}
		return v.elem.IsConvertibleTo(target.elem)
	}
	for t := v; t != nil; t = t.Supertype() {
		if t.Equals(target) {
			return true
		}
		if t == Integer && target == Decimal {
			return true
		}
	}
	return false
}

// Chain returns v followed by all its supertypes.
func (v *Valuetype) Chain() []*Valuetype {
	var out []*Valuetype
	for t := v; t != nil; t = t.Supertype() {
		out = append(out, t)
	}
	return out
}

// String renders the type the way it is written in pipeline files.
func (v *Valuetype) String() string {
	if v == nil {
		return "<unknown>"
	}
	if v.kind == KindCollection {
		if v.elem == nil {
			return "collection<>"
		}
		return "collection<" + v.elem.String() + ">"
	}
	return v.name
}

// CommonType returns the narrowest type both a and b convert to, if any.
func CommonType(a, b *Valuetype) (*Valuetype, bool) {
	switch {
	case a == nil || b == nil:
		return nil, false
	case a.IsConvertibleTo(b):
		return b, true
	case b.IsConvertibleTo(a):
		return a, true
	}
	pa, pb := a.Primitive(), b.Primitive()
	if pa == pb {
		return pa, true
	}
	if pa.IsConvertibleTo(pb) {
		return pb, true
	}
	if pb.IsConvertibleTo(pa) {
		return pa, true
	}
	return nil, false
}
