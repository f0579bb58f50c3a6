package constraint

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"sync"
	"unicode/utf8"

	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// Length accepts text whose length in characters lies between minLength and
// maxLength, both inclusive.
type Length struct{}

func (*Length) Kind() string { return "LengthConstraint" }

func (*Length) CompatibleType() *valuetype.Valuetype { return valuetype.Text }

func (*Length) Properties() schema.Properties {
	return schema.Properties{
		{Name: "minLength", Type: valuetype.Integer, Default: cty.NumberIntVal(0), Validate: schema.NotNegative},
		{Name: "maxLength", Type: valuetype.Integer, Default: cty.NumberIntVal(math.MaxInt32), Validate: schema.NotNegative},
	}
}

func (*Length) IsValid(value cty.Value, props PropertyReader) bool {
	s, ok := text(value)
	if !ok {
		return false
	}
	n := int64(utf8.RuneCountInString(s))
	return props.GetInteger("minLength") <= n && n <= props.GetInteger("maxLength")
}

func (*Length) ValidateProperties(props PropertyReader) error {
	if minLen, maxLen := props.GetInteger("minLength"), props.GetInteger("maxLength"); minLen > maxLen {
		return fmt.Errorf("the minimum length %d is greater than the maximum length %d", minLen, maxLen)
	}
	return nil
}

// Regex accepts text matching a regular expression. Patterns are compiled
// once and shared by every value checked against them.
type Regex struct {
	compiled sync.Map // pattern -> *regexp.Regexp
}

func (*Regex) Kind() string { return "RegexConstraint" }

func (*Regex) CompatibleType() *valuetype.Valuetype { return valuetype.Text }

func (*Regex) Properties() schema.Properties {
	return schema.Properties{
		{Name: "regex", Type: valuetype.Text, Validate: func(v cty.Value) error {
			if _, err := regexp.Compile(v.AsString()); err != nil {
				return fmt.Errorf("invalid regular expression: %w", err)
			}
			return nil
		}},
	}
}

func (c *Regex) IsValid(value cty.Value, props PropertyReader) bool {
	s, ok := text(value)
	if !ok {
		return false
	}
	re, err := c.compile(props.GetText("regex"))
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func (c *Regex) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := c.compiled.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	actual, _ := c.compiled.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}

// Allowlist accepts text from a fixed list.
type Allowlist struct{}

func (*Allowlist) Kind() string { return "AllowlistConstraint" }

func (*Allowlist) CompatibleType() *valuetype.Valuetype { return valuetype.Text }

func (*Allowlist) Properties() schema.Properties {
	return schema.Properties{
		{Name: "allowlist", Type: valuetype.Collection(valuetype.Text)},
	}
}

func (*Allowlist) IsValid(value cty.Value, props PropertyReader) bool {
	s, ok := text(value)
	return ok && slices.Contains(props.GetTextCollection("allowlist"), s)
}

// Denylist rejects text from a fixed list.
type Denylist struct{}

func (*Denylist) Kind() string { return "DenylistConstraint" }

func (*Denylist) CompatibleType() *valuetype.Valuetype { return valuetype.Text }

func (*Denylist) Properties() schema.Properties {
	return schema.Properties{
		{Name: "denylist", Type: valuetype.Collection(valuetype.Text)},
	}
}

func (*Denylist) IsValid(value cty.Value, props PropertyReader) bool {
	s, ok := text(value)
	return ok && !slices.Contains(props.GetTextCollection("denylist"), s)
}
