package pipeline

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/pipegridgo/internal/config"
	"github.com/vk/pipegridgo/internal/ctxlog"
	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/registry"
)

// BlockInstance is one named block of a pipeline.
type BlockInstance struct {
	Name string
	Kind string
	// Executor is nil when Kind is not registered.
	Executor registry.BlockExecutor
	Config   *config.Block
}

// Definition returns the executor's definition, or the zero Definition for
// unknown kinds.
func (b *BlockInstance) Definition() registry.Definition {
	if b.Executor == nil {
		return registry.Definition{}
	}
	return b.Executor.Definition()
}

func (b *BlockInstance) String() string { return b.Name }

// Pipe connects the output of From to the input of To. Two pipes are equal
// iff their endpoints are.
type Pipe struct {
	From *BlockInstance
	To   *BlockInstance
}

func (p Pipe) String() string { return p.From.Name + " -> " + p.To.Name }

// Graph is the network of blocks and pipes of one pipeline.
type Graph struct {
	Name   string
	Config *config.Pipeline

	blocks     []*BlockInstance
	byName     map[string]*BlockInstance
	pipes      []Pipe
	pipeRanges map[Pipe]hcl.Range
}

// Build creates the graph of def. Blocks with duplicate names and pipe
// chains referring to unknown blocks are left out and reported.
func Build(ctx context.Context, def *config.Pipeline, reg *registry.Registry) (*Graph, diag.Diagnostics) {
	logger := ctxlog.FromContext(ctx).With("pipeline", def.Name)
	logger.Debug("Build: Starting graph construction.")

	var diags diag.Diagnostics
	g := &Graph{
		Name:       def.Name,
		Config:     def,
		byName:     make(map[string]*BlockInstance),
		pipeRanges: make(map[Pipe]hcl.Range),
	}

	for _, b := range def.Blocks {
		if _, exists := g.byName[b.Name]; exists {
			diags = append(diags, diag.Errorf("The block name %q is already used in this pipeline", b.Name).
				At(b.DefRange).OnBlock(def.Name, b.Name))
			continue
		}
		inst := &BlockInstance{Name: b.Name, Kind: b.Kind, Config: b}
		if exec, ok := reg.Block(b.Kind); ok {
			inst.Executor = exec
		}
		g.blocks = append(g.blocks, inst)
		g.byName[b.Name] = inst
	}
	logger.Debug("Build: Block instances created.", "count", len(g.blocks))

	for _, chain := range def.Pipes {
		diags = append(diags, g.addChain(chain)...)
	}
	logger.Debug("Build: Pipes created.", "count", len(g.pipes))
	return g, diags
}

// addChain expands a chain a, b, c into the pipes a -> b and b -> c. A pipe
// with an unresolved endpoint is skipped.
func (g *Graph) addChain(chain *config.PipeChain) diag.Diagnostics {
	var diags diag.Diagnostics
	resolved := make([]*BlockInstance, len(chain.Blocks))
	for i, ref := range chain.Blocks {
		b, ok := g.byName[ref.Name]
		if !ok {
			diags = append(diags, diag.Errorf("Could not resolve reference to block %q", ref.Name).
				At(ref.Range).OnBlock(g.Name, ""))
			continue
		}
		resolved[i] = b
	}
	for i := 0; i+1 < len(resolved); i++ {
		from, to := resolved[i], resolved[i+1]
		if from == nil || to == nil {
			continue
		}
		p := Pipe{From: from, To: to}
		if _, exists := g.pipeRanges[p]; exists {
			continue
		}
		g.pipes = append(g.pipes, p)
		g.pipeRanges[p] = hcl.RangeBetween(chain.Blocks[i].Range, chain.Blocks[i+1].Range)
	}
	return diags
}

// Blocks returns every block in declaration order.
func (g *Graph) Blocks() []*BlockInstance { return g.blocks }

// Block finds a block by name.
func (g *Graph) Block(name string) (*BlockInstance, bool) {
	b, ok := g.byName[name]
	return b, ok
}

// Pipes returns every pipe in declaration order.
func (g *Graph) Pipes() []Pipe { return g.pipes }

// PipeRange returns the source range of the chain segment p came from.
func (g *Graph) PipeRange(p Pipe) hcl.Range { return g.pipeRanges[p] }

// OutgoingPipes returns the pipes leaving b.
func (g *Graph) OutgoingPipes(b *BlockInstance) []Pipe {
	var out []Pipe
	for _, p := range g.pipes {
		if p.From == b {
			out = append(out, p)
		}
	}
	return out
}

// IncomingPipes returns the pipes entering b.
func (g *Graph) IncomingPipes(b *BlockInstance) []Pipe {
	var out []Pipe
	for _, p := range g.pipes {
		if p.To == b {
			out = append(out, p)
		}
	}
	return out
}

// ChildBlocks returns the blocks b pipes its output to.
func (g *Graph) ChildBlocks(b *BlockInstance) []*BlockInstance {
	var out []*BlockInstance
	for _, p := range g.OutgoingPipes(b) {
		out = append(out, p.To)
	}
	return out
}

// ParentBlocks returns the blocks piping into b.
func (g *Graph) ParentBlocks(b *BlockInstance) []*BlockInstance {
	var out []*BlockInstance
	for _, p := range g.IncomingPipes(b) {
		out = append(out, p.From)
	}
	return out
}

// StartingBlocks returns the blocks that have outgoing pipes but no incoming
// ones, in the order their first pipe was declared.
func (g *Graph) StartingBlocks() []*BlockInstance {
	var out []*BlockInstance
	seen := make(map[*BlockInstance]bool)
	for _, p := range g.pipes {
		if seen[p.From] {
			continue
		}
		seen[p.From] = true
		if len(g.IncomingPipes(p.From)) == 0 {
			out = append(out, p.From)
		}
	}
	return out
}

// UnconnectedBlocks returns the blocks no pipe touches.
func (g *Graph) UnconnectedBlocks() []*BlockInstance {
	connected := make(map[*BlockInstance]bool)
	for _, p := range g.pipes {
		connected[p.From] = true
		connected[p.To] = true
	}
	var out []*BlockInstance
	for _, b := range g.blocks {
		if !connected[b] {
			out = append(out, b)
		}
	}
	return out
}

// FindCycle returns the blocks of one cycle in pipe order, or nil if the
// graph is acyclic.
func (g *Graph) FindCycle() []*BlockInstance {
	visiting := make(map[*BlockInstance]bool)
	visited := make(map[*BlockInstance]bool)
	var path []*BlockInstance

	var visit func(b *BlockInstance) []*BlockInstance
	visit = func(b *BlockInstance) []*BlockInstance {
		visiting[b] = true
		path = append(path, b)
		for _, child := range g.ChildBlocks(b) {
			if visiting[child] {
				for i, p := range path {
					if p == child {
						return append([]*BlockInstance(nil), path[i:]...)
					}
				}
			}
			if !visited[child] {
				if cycle := visit(child); cycle != nil {
					return cycle
				}
			}
		}
		path = path[:len(path)-1]
		delete(visiting, b)
		visited[b] = true
		return nil
	}

	for _, b := range g.blocks {
		if !visited[b] {
			if cycle := visit(b); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// TopologicalOrder sorts the connected blocks so that every parent comes
// before its children, using Kahn's algorithm. Blocks without pipes are not
// part of the order. The relative order of independent blocks is not
// guaranteed.
//
// It panics when the graph has a cycle; validation rejects those first.
func (g *Graph) TopologicalOrder() []*BlockInstance {
	removed := make(map[Pipe]bool, len(g.pipes))
	ready := g.StartingBlocks()
	var order []*BlockInstance

	for len(ready) > 0 {
		n := ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		order = append(order, n)

		for _, p := range g.OutgoingPipes(n) {
			removed[p] = true
			if g.hasRemainingInput(p.To, removed) {
				continue
			}
			ready = append(ready, p.To)
		}
	}

	if len(removed) != len(g.pipes) {
		panic(fmt.Sprintf("pipeline %q: topological sort left %d pipes unvisited; the graph has a cycle",
			g.Name, len(g.pipes)-len(removed)))
	}
	return order
}

func (g *Graph) hasRemainingInput(b *BlockInstance, removed map[Pipe]bool) bool {
	for _, p := range g.IncomingPipes(b) {
		if !removed[p] {
			return true
		}
	}
	return false
}
