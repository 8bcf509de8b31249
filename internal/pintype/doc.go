// Package pintype describes the primitive value types that argument pins can
// carry and which of them may be wired together.
//
// A declared pin type is either a single name (`int`) or a union written as a
// pipe-delimited list (`int | float`). The polymorphic name `Any` is
// compatible with every type. Compatibility is kept as a symmetric, reflexive
// relation so that the result never depends on which pin the user dragged
// from.
package pintype
