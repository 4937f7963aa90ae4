// Package filesystem provides filesystem implementations for libmerge.
//
// This package contains the OS implementation of the types.FS interface.
// Symlink topology checks rely on real Lstat/Readlink semantics, so tests
// run against temporary directories rather than an in-memory filesystem.
package filesystem
