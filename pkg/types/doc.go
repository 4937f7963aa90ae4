// Package types defines the core types and interfaces used throughout
// libmerge: the filesystem abstraction, path sets, package database
// entries and migration phases.
package types
