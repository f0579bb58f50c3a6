// Package valuetype defines the closed set of value types used to type block
// properties, expressions and table columns.
//
// The set is a sum type: Boolean, Decimal, Integer and Text are primitive
// singletons, Collection and CellRange type property values, and Constrained
// refines another value type with a list of named constraints. Callers switch
// on Kind to handle every variant.
//
// Convertibility follows three rules:
//   - every type converts to itself
//   - a constrained type converts to every type on its supertype chain
//   - Integer widens to Decimal, at any point of the chain
//
// Two constrained types that share a base are not convertible to each other
// unless one of them appears on the other's chain.
package valuetype
