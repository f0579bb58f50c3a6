// Package pipeline holds the graph model of one pipeline: block instances
// connected by pipes, with traversal helpers and a topological ordering.
//
// A Graph is built from a config.Pipeline and a registry. Building never
// fails on user mistakes; unresolvable parts are left out of the graph and
// reported as diagnostics so the validator can report every problem at once.
package pipeline
