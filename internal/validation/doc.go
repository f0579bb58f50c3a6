// Package validation checks a loaded model before anything runs.
//
// Checks never stop at the first problem. Every finding becomes a
// diag.Diagnostic, and a model whose diagnostics contain no errors is safe to
// hand to the executor: its pipelines are acyclic, free of fan-in, typed
// consistently across pipes, and every block property is present and of the
// declared type.
package validation
