package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/vk/pipegridgo/internal/artifact"
	"github.com/vk/pipegridgo/internal/ctxlog"
	"github.com/vk/pipegridgo/internal/pipeline"
)

// blockState tracks one block during a parallel run.
type blockState struct {
	block    *pipeline.BlockInstance
	depCount atomic.Int32
	skipOnce sync.Once
}

// parallelRun is the shared state of the worker pool of one run.
type parallelRun struct {
	e      *Executor
	g      *pipeline.Graph
	res    *result
	states map[*pipeline.BlockInstance]*blockState
	wg     sync.WaitGroup

	errOnce  sync.Once
	firstErr error
}

// runParallel runs blocks on a pool of workers. A block is queued once its
// parent completed; the first failure cancels the run and skips every
// descendant of the failed block.
func (e *Executor) runParallel(ctx context.Context, g *pipeline.Graph, res *result) error {
	logger := ctxlog.FromContext(ctx)

	// Sorting first keeps the panic on cycles in one place.
	order := g.TopologicalOrder()
	run := &parallelRun{e: e, g: g, res: res, states: make(map[*pipeline.BlockInstance]*blockState, len(order))}
	for _, b := range order {
		st := &blockState{block: b}
		st.depCount.Store(int32(len(g.IncomingPipes(b))))
		run.states[b] = st
	}

	readyChan := make(chan *blockState, len(order))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Debug("Initializing executor, finding starting blocks...")
	for _, b := range g.StartingBlocks() {
		logger.Debug("Found starting block.", "block", b.Name)
		readyChan <- run.states[b]
	}

	run.wg.Add(len(order))
	logger.Debug("Starting worker pool.", "workers", e.cfg.Workers)
	for i := 0; i < e.cfg.Workers; i++ {
		go run.worker(runCtx, readyChan, cancel, i)
	}

	run.wg.Wait()
	close(readyChan)

	if run.firstErr != nil {
		return run.firstErr
	}
	return ctx.Err()
}

// worker is the core processing loop for a single concurrent worker.
func (r *parallelRun) worker(ctx context.Context, readyChan chan *blockState, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for st := range readyChan {
		b := st.block
		workerLogger := logger.With("workerID", workerID, "block", b.Name)

		if ctx.Err() != nil {
			st.skipOnce.Do(func() {
				workerLogger.Warn("Context canceled, skipping block execution.")
				r.res.store.Skip(b.Name)
				r.wg.Done()
				r.skipDependents(ctx, b)
			})
			continue
		}

		workerLogger.Debug("Worker picked up block for execution.")
		input := inputOf(r.g, b, r.res)
		if err := r.e.runBlock(ctx, r.g, b, input, r.res); err != nil {
			st.skipOnce.Do(func() {
				if !errors.Is(err, context.Canceled) {
					workerLogger.Error("Block execution failed.", "error", err)
					r.errOnce.Do(func() { r.firstErr = err })
				}
				cancel()
				r.wg.Done()
				r.skipDependents(ctx, b)
			})
			continue
		}

		for _, child := range r.g.ChildBlocks(b) {
			if r.states[child].depCount.Add(-1) == 0 {
				workerLogger.Debug("Unlocking child block.", "child", child.Name)
				readyChan <- r.states[child]
			}
		}
		r.wg.Done()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// skipDependents recursively marks all downstream blocks as done without
// running them.
func (r *parallelRun) skipDependents(ctx context.Context, b *pipeline.BlockInstance) {
	logger := ctxlog.FromContext(ctx)
	for _, child := range r.g.ChildBlocks(b) {
		st := r.states[child]
		st.skipOnce.Do(func() {
			logger.Warn("Skipping block due to upstream failure.", "block", child.Name, "parent", b.Name)
			r.res.store.Skip(child.Name)
			r.wg.Done()
			r.skipDependents(ctx, child)
		})
	}
}

// inputOf returns the output of b's parent, or nil for blocks without one.
func inputOf(g *pipeline.Graph, b *pipeline.BlockInstance, res *result) artifact.Artifact {
	parents := g.ParentBlocks(b)
	if len(parents) == 0 {
		return nil
	}
	return res.output(parents[0])
}
