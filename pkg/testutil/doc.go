// Package testutil provides utilities for testing libmerge components.
//
// Topology checks depend on real symlink semantics, so every helper works on
// a t.TempDir tree:
//   - Host: a fake root with the "/" and "/usr" prefixes in the initial
//     split layout (lib -> lib64, real lib32)
//   - CreateFile / CreateDir / CreateSymlink: fixture builders
//   - Manifest: writes a YAML package database snapshot
package testutil
