package executor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipegridgo/internal/artifact"
	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/hcl_adapter"
	"github.com/vk/pipegridgo/internal/inmemorystore"
	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/vk/pipegridgo/internal/pipeline"
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/internal/registry/registrytest"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/testutil"
	"github.com/vk/pipegridgo/internal/validation"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// recorder remembers the order blocks ran in.
type recorder struct {
	mu  sync.Mutex
	ran []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ran = append(r.ran, name)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ran...)
}

// testBlocks returns a registry whose blocks pass a sheet along, appending
// one row per block.
func testBlocks(rec *recorder, failing string) *registry.Registry {
	appendRow := func(ctx context.Context, input artifact.Artifact, ec *execution.Context) (artifact.Artifact, error) {
		rec.add(ec.Block())
		if ec.Block() == failing {
			return nil, errors.New("boom")
		}
		var rows [][]string
		if s, ok := input.(*artifact.Sheet); ok {
			rows = s.Rows()
		}
		return artifact.NewSheet(append(rows, []string{ec.Block()})), nil
	}
	source := &registrytest.Block{
		Name: "Source",
		In:   iotype.None,
		Out:  iotype.Sheet,
		Props: schema.Properties{
			{Name: "label", Type: valuetype.Text, Default: cty.StringVal("")},
			{Name: "times", Type: valuetype.Integer, Default: cty.NumberIntVal(1), Validate: schema.NotNegative},
		},
		RunFn: func(ctx context.Context, input artifact.Artifact, ec *execution.Context) (artifact.Artifact, error) {
			rec.add(ec.Block())
			var rows [][]string
			for i := int64(0); i < ec.GetInteger("times"); i++ {
				rows = append(rows, []string{ec.GetText("label")})
			}
			ec.Report(diag.Warningf("produced %d rows", len(rows)))
			return artifact.NewSheet(rows), nil
		},
	}
	step := &registrytest.Block{Name: "Step", In: iotype.Sheet, Out: iotype.Sheet, RunFn: appendRow}
	broken := &registrytest.Block{Name: "Broken", In: iotype.Sheet, Out: iotype.Sheet,
		RunFn: func(ctx context.Context, input artifact.Artifact, ec *execution.Context) (artifact.Artifact, error) {
			return artifact.NewTable(), nil
		}}
	sink := &registrytest.Block{Name: "Sink", In: iotype.Sheet, Out: iotype.None, RunFn: appendRow}
	return registrytest.NewRegistry(source, step, broken, sink)
}

func prepare(t *testing.T, reg *registry.Registry, src string) (context.Context, *validation.Result, *pipeline.Graph) {
	t.Helper()
	ctx, _ := testutil.Context(t)
	m, diags := hcl_adapter.NewLoader().LoadSource(ctx, "test.hcl", []byte(src))
	require.False(t, diags.HasErrors(), diags.Error())
	res, diags := validation.New(reg).Validate(ctx, m)
	require.False(t, diags.HasErrors(), diags.Error())
	require.Len(t, res.Graphs, 1)
	return ctx, res, res.Graphs[0]
}

const linear = `
variable "label" {
  type    = text
  default = "row"
}

pipeline "P" {
  block "S" "Source" {
    label = var.label
    times = 2
  }
  block "A" "Step" {}
  block "B" "Step" {}
  block "Z" "Sink" {}
  pipe {
    chain = [S, A, B, Z]
  }
}`

func TestRun_Sequential(t *testing.T) {
	rec := &recorder{}
	ctx, _, g := prepare(t, testBlocks(rec, ""), linear)

	res, err := New(Config{Variables: map[string]cty.Value{"label": cty.StringVal("hello")}}).Run(ctx, g)
	require.NoError(t, err)

	assert.Equal(t, []string{"S", "A", "B", "Z"}, rec.names())
	out, ok := res.Outputs["B"].(*artifact.Sheet)
	require.True(t, ok)
	assert.Equal(t, [][]string{{"hello"}, {"hello"}, {"A"}, {"B"}}, out.Rows())
	assert.NotContains(t, res.Outputs, "Z", "loaders have no output")

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "produced 2 rows", res.Diagnostics[0].Message)
	assert.Equal(t, "S", res.Diagnostics[0].Block)
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	for _, workers := range []int{1, 4} {
		rec := &recorder{}
		ctx, _, g := prepare(t, testBlocks(rec, "A"), linear)

		res, err := New(Config{Workers: workers, Variables: map[string]cty.Value{"label": cty.StringVal("x")}}).Run(ctx, g)
		require.Error(t, err)

		var d *diag.Diagnostic
		require.True(t, errors.As(err, &d))
		assert.Equal(t, "boom", d.Message)
		assert.Equal(t, "A", d.Block)
		assert.Equal(t, "P", d.Pipeline)
		assert.Equal(t, []string{"S", "A"}, rec.names(), "workers=%d", workers)
		assert.Contains(t, res.Outputs, "S")
		assert.Equal(t, inmemorystore.StatusCompleted, res.Statuses["S"])
		assert.Equal(t, inmemorystore.StatusFailed, res.Statuses["A"])
		assert.Equal(t, inmemorystore.StatusSkipped, res.Statuses["B"], "workers=%d", workers)
		assert.Equal(t, inmemorystore.StatusSkipped, res.Statuses["Z"], "workers=%d", workers)
	}
}

func TestRun_UnresolvedVariable(t *testing.T) {
	rec := &recorder{}
	ctx, _, g := prepare(t, testBlocks(rec, ""), linear)

	_, err := New(Config{}).Run(ctx, g)
	require.Error(t, err)
	var d *diag.Diagnostic
	require.True(t, errors.As(err, &d))
	assert.Equal(t, "label", d.Property)
	assert.Contains(t, d.Message, `Could not resolve the value of property "label"`)
	assert.Empty(t, rec.names())
}

func TestRun_PropertiesDependingOnVariables(t *testing.T) {
	src := `
variable "times" {
  type = integer
}

pipeline "P" {
  block "S" "Source" {
    times = var.times * 2
  }
  block "Z" "Sink" {}
  pipe {
    chain = [S, Z]
  }
}`
	rec := &recorder{}
	ctx, _, g := prepare(t, testBlocks(rec, ""), src)

	res, err := New(Config{Variables: map[string]cty.Value{"times": cty.NumberIntVal(2)}}).Run(ctx, g)
	require.NoError(t, err)
	s, ok := res.Outputs["S"].(*artifact.Sheet)
	require.True(t, ok)
	assert.Equal(t, 4, s.Height())

	// Custom validators run again once variables are known.
	_, err = New(Config{Variables: map[string]cty.Value{"times": cty.NumberIntVal(-1)}}).Run(ctx, g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Invalid value for property "times"`)
}

func TestRun_WrongOutputType(t *testing.T) {
	rec := &recorder{}
	ctx, _, g := prepare(t, testBlocks(rec, ""), `
pipeline "P" {
  block "S" "Source" {}
  block "X" "Broken" {}
  pipe {
    chain = [S, X]
  }
}`)
	_, err := New(Config{}).Run(ctx, g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Block kind Broken must produce an output of type Sheet but produced Table")
}

func TestRun_Parallel(t *testing.T) {
	rec := &recorder{}
	ctx, _, g := prepare(t, testBlocks(rec, ""), `
pipeline "P" {
  block "S" "Source" {}
  block "A" "Step" {}
  block "B" "Step" {}
  block "C" "Step" {}
  block "D" "Sink" {}
  pipe {
    chain = [S, A, C]
  }
  pipe {
    chain = [S, B, D]
  }
}`)
	res, err := New(Config{Workers: 3}).Run(ctx, g)
	require.NoError(t, err)

	ran := rec.names()
	assert.ElementsMatch(t, []string{"S", "A", "B", "C", "D"}, ran)
	pos := make(map[string]int)
	for i, n := range ran {
		pos[n] = i
	}
	for _, p := range g.Pipes() {
		assert.Less(t, pos[p.From.Name], pos[p.To.Name], "pipe %s", p)
	}

	c, ok := res.Outputs["C"].(*artifact.Sheet)
	require.True(t, ok)
	assert.Equal(t, [][]string{{""}, {"A"}, {"C"}}, c.Rows())
}

func TestRun_ParallelFailureSkipsDescendantsOnly(t *testing.T) {
	rec := &recorder{}
	ctx, _, g := prepare(t, testBlocks(rec, "A"), `
pipeline "P" {
  block "S" "Source" {}
  block "A" "Step" {}
  block "C" "Step" {}
  pipe {
    chain = [S, A, C]
  }
}`)
	res, err := New(Config{Workers: 2}).Run(ctx, g)
	require.Error(t, err)
	assert.NotContains(t, rec.names(), "C")
	assert.Equal(t, map[string]inmemorystore.Status{
		"S": inmemorystore.StatusCompleted,
		"A": inmemorystore.StatusFailed,
		"C": inmemorystore.StatusSkipped,
	}, res.Statuses)
}

func TestRun_Canceled(t *testing.T) {
	rec := &recorder{}
	ctx, _, g := prepare(t, testBlocks(rec, ""), linear)
	ctx, cancel := context.WithCancel(ctx)
	cancel()

	for _, workers := range []int{1, 2} {
		_, err := New(Config{Workers: workers, Variables: map[string]cty.Value{"label": cty.StringVal("x")}}).Run(ctx, g)
		assert.ErrorIs(t, err, context.Canceled, "workers=%d", workers)
	}
	assert.Empty(t, rec.names())
}
