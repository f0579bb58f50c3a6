package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/pipegridgo/internal/config"
	"github.com/vk/pipegridgo/internal/ctxlog"
	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/expr"
	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/vk/pipegridgo/internal/pipeline"
	"github.com/vk/pipegridgo/internal/registry"
)

// Result holds what validation resolved while checking a model.
type Result struct {
	Catalog   *execution.Catalog
	Variables expr.TypeEnv
	Graphs    []*pipeline.Graph
}

// Graph finds the graph of a pipeline by name.
func (r *Result) Graph(name string) (*pipeline.Graph, bool) {
	for _, g := range r.Graphs {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// Validator checks models against the block and constraint kinds of one
// registry.
type Validator struct {
	reg *registry.Registry
}

// New creates a Validator.
func New(reg *registry.Registry) *Validator {
	return &Validator{reg: reg}
}

// Validate checks every declaration of m. The result is usable for execution
// only when the diagnostics contain no errors.
func (v *Validator) Validate(ctx context.Context, m *config.Model) (*Result, diag.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Validation started.", "pipelines", len(m.Pipelines))

	env, diags := checkVariables(m.Variables)
	cat, catDiags := BuildCatalog(m, v.reg)
	diags = append(diags, catDiags...)

	res := &Result{Catalog: cat, Variables: env}
	seen := make(map[string]bool, len(m.Pipelines))
	for _, p := range m.Pipelines {
		if seen[p.Name] {
			diags = append(diags, diag.Errorf("The pipeline name %q is already used", p.Name).At(p.DefRange))
			continue
		}
		seen[p.Name] = true
		g, pdiags := v.ValidatePipeline(ctx, p, env)
		diags = append(diags, pdiags...)
		res.Graphs = append(res.Graphs, g)
	}

	diags.Sort()
	logger.Debug("Validation finished.",
		"errors", diags.Count(diag.SeverityError),
		"warnings", diags.Count(diag.SeverityWarning),
		"infos", diags.Count(diag.SeverityInfo),
	)
	return res, diags
}

// ValidatePipeline builds and checks the graph of a single pipeline. env
// holds the types of the variables property expressions may refer to.
func (v *Validator) ValidatePipeline(ctx context.Context, p *config.Pipeline, env expr.TypeEnv) (*pipeline.Graph, diag.Diagnostics) {
	g, diags := pipeline.Build(ctx, p, v.reg)

	if fanIn := checkFanIn(g); len(fanIn) > 0 {
		return g, append(diags, fanIn...)
	}
	for _, b := range g.Blocks() {
		diags = append(diags, v.checkBlock(p.Name, b, env)...)
	}
	diags = append(diags, checkStructure(g)...)
	diags = append(diags, checkPipes(g)...)
	return g, diags
}

func (v *Validator) checkBlock(pipelineName string, b *pipeline.BlockInstance, env expr.TypeEnv) diag.Diagnostics {
	if b.Executor == nil {
		return diag.Diagnostics{diag.Errorf("Unknown block kind %q.%s", b.Kind, didYouMean(b.Kind, v.reg.BlockKinds())).
			At(b.Config.KindRange).OnBlock(pipelineName, b.Name)}
	}
	owner := propertyOwner{pipeline: pipelineName, name: b.Name, kindRange: b.Config.KindRange}
	return checkPropertyBody(owner, b.Config.Properties, b.Definition().Properties, env)
}

// checkFanIn reports every block with more than one incoming pipe. A graph
// with fan-in is not checked any further.
func checkFanIn(g *pipeline.Graph) diag.Diagnostics {
	var diags diag.Diagnostics
	for _, b := range g.Blocks() {
		parents := g.ParentBlocks(b)
		if len(parents) <= 1 {
			continue
		}
		names := make([]string, len(parents))
		for i, parent := range parents {
			names[i] = parent.Name
		}
		diags = append(diags, diag.Errorf(
			"At most one pipe can be connected to the input of a block. Currently, the following %d blocks are connected via pipes: %s",
			len(parents), quoteAll(names)).At(b.Config.DefRange).OnBlock(g.Name, b.Name))
	}
	return diags
}

// checkStructure reports a missing starting block, cycles and unconnected
// blocks.
func checkStructure(g *pipeline.Graph) diag.Diagnostics {
	var diags diag.Diagnostics
	if len(g.StartingBlocks()) == 0 {
		diags = append(diags, diag.Errorf("An extractor block is required for this pipeline").
			At(g.Config.DefRange).OnBlock(g.Name, ""))
	}
	if cycle := g.FindCycle(); cycle != nil {
		names := make([]string, 0, len(cycle)+1)
		for _, b := range cycle {
			names = append(names, fmt.Sprintf("%q", b.Name))
		}
		names = append(names, names[0])
		diags = append(diags, diag.Errorf("The pipes of this pipeline form a cycle: %s", strings.Join(names, " -> ")).
			At(cycle[0].Config.DefRange).OnBlock(g.Name, cycle[0].Name))
	}
	for _, b := range g.UnconnectedBlocks() {
		diags = append(diags, diag.Warningf("Block %q is not connected to any pipe and will not run", b.Name).
			At(b.Config.DefRange).OnBlock(g.Name, b.Name))
	}
	return diags
}

// checkPipes compares the IOTypes on both ends of every pipe. A mismatch is
// reported on both endpoints.
func checkPipes(g *pipeline.Graph) diag.Diagnostics {
	var diags diag.Diagnostics
	for _, p := range g.Pipes() {
		if p.From.Executor == nil || p.To.Executor == nil {
			continue
		}
		from, to := p.From.Definition(), p.To.Definition()
		rng := g.PipeRange(p)
		switch {
		case from.Output == iotype.None:
			diags = append(diags, diag.Errorf("Blocks of kind %s do not have an output", p.From.Kind).
				At(rng).OnBlock(g.Name, p.From.Name))
		case to.Input == iotype.None:
			diags = append(diags, diag.Errorf("Blocks of kind %s do not have an input", p.To.Kind).
				At(rng).OnBlock(g.Name, p.To.Name))
		case !from.Output.IsConvertibleTo(to.Input):
			msg := fmt.Sprintf("The output type %q of %s is incompatible with the input type %q of %s",
				from.Output, p.From.Kind, to.Input, p.To.Kind)
			diags = append(diags,
				diag.Errorf("%s", msg).At(rng).OnBlock(g.Name, p.From.Name),
				diag.Errorf("%s", msg).At(rng).OnBlock(g.Name, p.To.Name),
			)
		}
	}
	for _, b := range g.StartingBlocks() {
		if b.Executor != nil && b.Definition().Input != iotype.None {
			diags = append(diags, diag.Errorf("Blocks of kind %s need an input of type %s; connect a pipe to %q",
				b.Kind, b.Definition().Input, b.Name).At(b.Config.DefRange).OnBlock(g.Name, b.Name))
		}
	}
	return diags
}
