package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/hcl_adapter"
	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/internal/registry/registrytest"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/testutil"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

func testRegistry() *registry.Registry {
	configured := &registrytest.Block{
		Name: "TestConfigured",
		In:   iotype.None,
		Out:  iotype.Sheet,
		Props: schema.Properties{
			{Name: "url", Type: valuetype.Text},
			{Name: "count", Type: valuetype.Integer},
			{Name: "retries", Type: valuetype.Integer, Default: cty.NumberIntVal(0), Validate: schema.NotNegative},
		},
	}
	return registrytest.NewRegistry(
		registrytest.Extractor(),
		registrytest.Transformer(),
		registrytest.Interpreter(),
		registrytest.Loader(),
		configured,
	)
}

func validate(t *testing.T, src string) (*Result, diag.Diagnostics) {
	t.Helper()
	ctx, _ := testutil.Context(t)
	m, diags := hcl_adapter.NewLoader().LoadSource(ctx, "test.hcl", []byte(src))
	require.False(t, diags.HasErrors(), diags.Error())
	return New(testRegistry()).Validate(ctx, m)
}

func messages(ds diag.Diagnostics) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Message
	}
	return out
}

func requireSingleError(t *testing.T, ds diag.Diagnostics, contains string) *diag.Diagnostic {
	t.Helper()
	errs := ds.Filter(diag.SeverityError)
	require.Len(t, errs, 1, "errors: %v", messages(errs))
	assert.Contains(t, errs[0].Message, contains)
	return errs[0]
}

func TestValidate_LinearPipeline(t *testing.T) {
	res, diags := validate(t, `
pipeline "P" {
  block "E" "TestExtractor" {}
  block "T1" "TestInterpreter" {}
  block "T2" "TestLoader" {}
  pipe {
    chain = [E, T1, T2]
  }
}`)
	assert.Empty(t, diags, "diagnostics: %v", messages(diags))

	g, ok := res.Graph("P")
	require.True(t, ok)
	var order []string
	for _, b := range g.TopologicalOrder() {
		order = append(order, b.Name)
	}
	assert.Equal(t, []string{"E", "T1", "T2"}, order)
}

func TestValidate_NoPipes(t *testing.T) {
	_, diags := validate(t, `
pipeline "P" {
  block "A" "TestExtractor" {}
  block "B" "TestLoader" {}
}`)
	d := requireSingleError(t, diags, "An extractor block is required for this pipeline")
	assert.Equal(t, "P", d.Pipeline)
	assert.Equal(t, 2, diags.Count(diag.SeverityWarning), "both blocks are unconnected")
}

func TestValidate_FanIn(t *testing.T) {
	_, diags := validate(t, `
pipeline "P" {
  block "BlockFrom1" "TestExtractor" {}
  block "BlockFrom2" "TestExtractor" {}
  block "BlockTo" "TestTransformer" {}
  pipe {
    chain = [BlockFrom1, BlockTo]
  }
  pipe {
    chain = [BlockFrom2, BlockTo]
  }
}`)
	d := requireSingleError(t, diags,
		`At most one pipe can be connected to the input of a block. Currently, the following 2 blocks are connected via pipes: "BlockFrom1", "BlockFrom2"`)
	assert.Equal(t, "BlockTo", d.Block)
}

func TestValidate_FanInHidesPipeTypeErrors(t *testing.T) {
	_, diags := validate(t, `
pipeline "P" {
  block "A" "TestExtractor" {}
  block "B" "TestExtractor" {}
  block "L" "TestLoader" {}
  pipe {
    chain = [A, L]
  }
  pipe {
    chain = [B, L]
  }
}`)
	d := requireSingleError(t, diags, `the following 2 blocks are connected via pipes: "A", "B"`)
	assert.Equal(t, "L", d.Block)
}

func TestValidate_Cycle(t *testing.T) {
	_, diags := validate(t, `
pipeline "P" {
  block "A" "TestTransformer" {}
  block "B" "TestTransformer" {}
  pipe {
    chain = [A, B, A]
  }
}`)
	msgs := strings.Join(messages(diags), "\n")
	assert.Contains(t, msgs, "form a cycle")
	assert.Contains(t, msgs, "An extractor block is required")
}

func TestValidate_IncompatiblePipe(t *testing.T) {
	_, diags := validate(t, `
pipeline "P" {
  block "E" "TestExtractor" {}
  block "L" "TestLoader" {}
  pipe {
    chain = [E, L]
  }
}`)
	errs := diags.Filter(diag.SeverityError)
	require.Len(t, errs, 2)
	want := `The output type "Sheet" of TestExtractor is incompatible with the input type "Table" of TestLoader`
	assert.Equal(t, want, errs[0].Message)
	assert.Equal(t, want, errs[1].Message)
	assert.ElementsMatch(t, []string{"E", "L"}, []string{errs[0].Block, errs[1].Block})
}

func TestValidate_PipeIntoExtractor(t *testing.T) {
	_, diags := validate(t, `
pipeline "P" {
  block "E" "TestExtractor" {}
  block "E2" "TestExtractor" {}
  pipe {
    chain = [E, E2]
  }
}`)
	requireSingleError(t, diags, "Blocks of kind TestExtractor do not have an input")
}

func TestValidate_StartingBlockNeedsNoInput(t *testing.T) {
	_, diags := validate(t, `
pipeline "P" {
  block "T" "TestTransformer" {}
  block "I" "TestInterpreter" {}
  pipe {
    chain = [T, I]
  }
}`)
	requireSingleError(t, diags, `need an input of type Sheet; connect a pipe to "T"`)
}

func TestValidate_UnknownKindSuggestsName(t *testing.T) {
	_, diags := validate(t, `
pipeline "P" {
  block "E" "TestExtractr" {}
  block "T" "TestTransformer" {}
  pipe {
    chain = [E, T]
  }
}`)
	requireSingleError(t, diags, `Unknown block kind "TestExtractr". Did you mean "TestExtractor"?`)
}

func TestValidate_Properties(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		error string
	}{
		{name: "missing required", body: ``, error: `The following required properties are missing: "url", "count"`},
		{name: "unknown property", body: `url = "x"
    count = 1
    retriez = 2`, error: `Invalid property name "retriez". Did you mean "retries"?`},
		{name: "wrong type", body: `url = 5
    count = 1`, error: `The value of property "url" needs to be of type text but is of type integer`},
		{name: "decimal is not an integer", body: `url = "x"
    count = 1.5`, error: `needs to be of type integer but is of type decimal`},
		{name: "custom validator", body: `url = "x"
    count = 1
    retries = -1`, error: `Invalid value for property "retries"`},
		{name: "integer literal out of range", body: `url = "x"
    count = 100000000000000000000`, error: `Invalid value for property "count": 100000000000000000000 is not a valid integer`},
		{name: "integer expression out of range", body: `url = "x"
    count = 1
    retries = 10000000000 * 10000000000`, error: `Invalid value for property "retries": 100000000000000000000 is not a valid integer`},
		{name: "type error in expression", body: `url = "x" * 2
    count = 1`, error: `need to be numeric`},
		{name: "evaluation error", body: `url = "x"
    count = 1 % 0`, error: "modulo by zero"},
		{name: "undeclared variable", body: `url = var.nope
    count = 1`, error: `Could not resolve reference "nope"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, diags := validate(t, `
pipeline "P" {
  block "C" "TestConfigured" {
    `+tc.body+`
  }
  block "T" "TestTransformer" {}
  pipe {
    chain = [C, T]
  }
}`)
			requireSingleError(t, diags, tc.error)
		})
	}
}

func TestValidate_SimplificationHint(t *testing.T) {
	_, diags := validate(t, `
pipeline "P" {
  block "C" "TestConfigured" {
    url   = lowercase("HTTP://EXAMPLE.COM")
    count = 2 + 3 * 4
  }
  block "T" "TestTransformer" {}
  pipe {
    chain = [C, T]
  }
}`)
	require.False(t, diags.HasErrors(), diags.Error())
	infos := diags.Filter(diag.SeverityInfo)
	require.Len(t, infos, 2)
	assert.Equal(t, `The expression can be simplified to "http://example.com"`, infos[0].Message)
	assert.Equal(t, "The expression can be simplified to 14", infos[1].Message)
	assert.Equal(t, "count", infos[1].Property)
}

func TestValidate_Variables(t *testing.T) {
	_, diags := validate(t, `
variable "url" {
  type = text
}

variable "count" {
  type    = integer
  default = 3
}

pipeline "P" {
  block "C" "TestConfigured" {
    url   = var.url
    count = var.count * 2
  }
  block "T" "TestTransformer" {}
  pipe {
    chain = [C, T]
  }
}`)
	assert.Empty(t, diags, "diagnostics: %v", messages(diags))
}

func TestValidate_VariableDeclarations(t *testing.T) {
	cases := map[string]string{
		`variable "a" {
  type = txt
}`: `Variable "a" has unknown type "txt". Did you mean "text"?`,
		`variable "a" {
  type    = integer
  default = "x"
}`: `The default of variable "a" needs to be of type integer but is of type text`,
		`variable "a" {
  type    = integer
  default = var.b
}`: `The default of variable "a" cannot refer to other values: "b"`,
		`variable "a" {
  type    = integer
  default = var.b * var.c + var.b
}`: `The default of variable "a" cannot refer to other values: "b", "c"`,
		`variable "a" {
  type = text
}
variable "a" {
  type = text
}`: `The variable name "a" is already used`,
	}
	for src, want := range cases {
		t.Run(want, func(t *testing.T) {
			_, diags := validate(t, src)
			requireSingleError(t, diags, want)
		})
	}
}

func TestValidate_DuplicateNames(t *testing.T) {
	_, diags := validate(t, `
pipeline "P" {
  block "E" "TestExtractor" {}
  block "E" "TestExtractor" {}
  block "T" "TestTransformer" {}
  pipe {
    chain = [E, T]
  }
}
pipeline "P" {}`)
	msgs := messages(diags.Filter(diag.SeverityError))
	assert.Len(t, msgs, 2)
	assert.Contains(t, strings.Join(msgs, "\n"), `The block name "E" is already used`)
	assert.Contains(t, strings.Join(msgs, "\n"), `The pipeline name "P" is already used`)
}

func TestValidate_UnresolvedPipeReference(t *testing.T) {
	_, diags := validate(t, `
pipeline "P" {
  block "E" "TestExtractor" {}
  block "T" "TestTransformer" {}
  pipe {
    chain = [E, T, Missing]
  }
}`)
	requireSingleError(t, diags, `Could not resolve reference to block "Missing"`)
}
