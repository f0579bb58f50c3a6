// Package inmemorystore provides an ephemeral, thread-safe, in-memory store
// for the state of the blocks of one pipeline run.
//
// # Concurrency Model
//
// The store uses sync.Map. Every block's state is written by the worker that
// runs it and read by the workers running its children, so keys are
// independent and the key space is known upfront.
package inmemorystore
