// Package expr implements the typed expression language used in block
// property values.
//
// An Expression is a small tree of literals, references, collections and
// operator applications. Infer assigns a value type to every node without
// evaluating anything, reporting operand type mismatches as diagnostics.
// Evaluate computes the value of a tree against an EvaluationContext in one
// of two strategies: Lazy short-circuits the boolean operators and is used for
// simplification hints during validation, Exhaustive evaluates every operand
// and is used to resolve property values before a block runs.
package expr
