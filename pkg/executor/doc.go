// Package executor runs the external bulk copy and recursive delete
// commands a migration relies on.
//
// Both are treated as single black-box operations: the command either
// succeeds or fails as a whole. Output is captured, logged, and attached
// to the error on failure.
package executor
