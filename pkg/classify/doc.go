// Package classify partitions the package database snapshot into the
// per-prefix path sets that drive a migration.
//
// For every prefix, owned files are attributed to exactly one of the lib,
// lib32 and lib64 trees. The precedence is fixed: lib is tested before
// lib32, lib32 before lib64, and prefixes are tested in the order given. A
// path therefore lands in the first tree (of the first prefix) that
// contains it.
//
// From those trees the package derives:
//
//	pure lib   = lib prefixes - lib64 prefixes
//	mixed lib  = lib prefixes ∩ lib64 prefixes
//	unowned    = children of lib - every owned top-level name
//	includes   = lib prefixes ∪ lib files ∪ lib unowned
//	excludes   = lib64 paths lying under a mixed directory
//
// A file owned under lib and also under lib32 or lib64 is a conflict and
// fails the whole analysis.
package classify
