// Package config defines the format-agnostic model of a pipeline file along
// with the Loader interface front ends implement to produce it.
//
// The `config.Model` is the single source of truth for the `pipeline`,
// `validation` and `executor` packages. Property values are already parsed
// into expression trees; no package downstream of the loader needs to know
// the source syntax.
package config
