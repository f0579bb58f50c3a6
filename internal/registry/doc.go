// Package registry provides the central "glue" for the module system.
//
// The Registry maps the block kind and constraint kind names used in pipeline
// files to the compiled Go implementations behind them. It is built once at
// startup, populated by modules, and then handed explicitly to the validator
// and the executor. There is no global registry.
//
// Kind names are unique per registry. Registering a second implementation
// under a taken name fails with ErrDuplicate; the Must variants used by
// modules panic instead, since a clash there is a programming error.
package registry
