// Package dtcore implements the data template: the bit-packed Tag record,
// its ordering and equality predicates, and the DataTemplate container
// (tags + byte blob + structure id) that Save/Load/Merge/Diff/layout-refresh
// all operate on.
package dtcore
