// Package types defines the core data model of the reflection-driven
// serialization core: stable type identifiers, the closed set of field
// kinds a registered structure's properties can hold, and the typed error
// taxonomy every other package in this module returns.
//
// This package has no dependencies beyond the standard library.
package types
