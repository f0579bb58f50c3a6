// Package execution provides the handle a block executor works through
// during one block run: typed property access, logging, diagnostics and
// constraint checks against the value types declared in the pipeline file.
package execution
