// Package typereg is the process-wide type registry: Structure and Property
// catalog, inheritance lookup, and the subtype-index arithmetic that Save,
// Load, layout-refresh and the delta algebra all walk.
//
// Properties are derived from Go struct tags via reflection rather than
// hand-written registration calls; traversal works entirely on the flat
// property vector and its index arithmetic, never on pointer trees.
package typereg
