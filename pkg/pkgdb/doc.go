// Package pkgdb reads the installed-package database: for every installed
// package, the absolute paths it owns tagged as file or directory.
//
// Two sources exist. VarDB reads the Gentoo database under var/db/pkg.
// Manifest reads a YAML snapshot, which allows analysing a host offline.
// Paths in either source are relative to the host root and are returned
// joined to it.
package pkgdb
