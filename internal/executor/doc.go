// Package executor runs validated pipeline graphs.
//
// Blocks run in topological order: a block starts only after its parent has
// produced its output, which becomes the block's input. With one worker the
// order is fully sequential; with more, independent branches run on a worker
// pool. The first failing block stops the run; its descendants are skipped.
package executor
