package executor

import (
	"context"

	"github.com/vk/pipegridgo/internal/ctxlog"
	"github.com/vk/pipegridgo/internal/pipeline"
)

// runSequential runs the blocks one after another in topological order.
func (e *Executor) runSequential(ctx context.Context, g *pipeline.Graph, res *result) error {
	logger := ctxlog.FromContext(ctx)
	order := g.TopologicalOrder()
	logger.Debug("Running blocks sequentially.", "count", len(order))

	for i, b := range order {
		err := ctx.Err()
		if err != nil {
			logger.Warn("Context canceled, stopping before block.", "block", b.Name)
		} else {
			err = e.runBlock(ctx, g, b, inputOf(g, b, res), res)
		}
		if err != nil {
			for _, rest := range order[i:] {
				res.store.Skip(rest.Name)
			}
			return err
		}
	}
	return nil
}
