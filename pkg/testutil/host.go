package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/libmerge/pkg/paths"
	"github.com/arthur-debert/libmerge/pkg/pkgdb"
	"github.com/arthur-debert/libmerge/pkg/types"
	"gopkg.in/yaml.v3"
)

// Host is a fake system root holding the two migrated prefixes.
type Host struct {
	t    *testing.T
	Root string
}

// NewHost creates a root whose "/" and "/usr" prefixes are in the initial
// split layout: real lib64 and lib32 directories and lib -> lib64.
func NewHost(t *testing.T) *Host {
	t.Helper()

	h := &Host{t: t, Root: t.TempDir()}
	for _, prefix := range h.Prefixes() {
		InitPrefix(t, prefix)
	}
	return h
}

// InitPrefix lays out one prefix in the initial split layout.
func InitPrefix(t *testing.T, prefix string) {
	t.Helper()

	l := paths.NewLayout(prefix)
	CreateDir(t, l.Root, paths.Lib64Dir)
	CreateDir(t, l.Root, paths.Lib32Dir)
	CreateSymlink(t, paths.Lib64Dir, l.Lib)
}

// Prefixes returns the host's prefixes, root first.
func (h *Host) Prefixes() []string {
	return paths.Prefixes(h.Root)
}

// Layout returns the layout of a prefix given relative to the host root,
// "/" or "/usr".
func (h *Host) Layout(prefix string) paths.Layout {
	return paths.NewLayout(h.Path(prefix))
}

// Path maps an absolute path on the fake host to the real path.
func (h *Host) Path(p string) string {
	return filepath.Join(h.Root, strings.TrimPrefix(p, "/"))
}

// WriteFiles creates files on the host, contents set to their host path.
func (h *Host) WriteFiles(hostPaths ...string) {
	h.t.Helper()
	for _, p := range hostPaths {
		CreateFile(h.t, h.Root, strings.TrimPrefix(p, "/"), p)
	}
}

// Package describes one installed package by the host paths it owns.
type Package = pkgdb.ManifestPackage

// Entries maps packages to owned entries with real (root-joined) paths.
func (h *Host) Entries(pkgs ...Package) []types.OwnedEntry {
	var out []types.OwnedEntry
	for _, pkg := range pkgs {
		for _, d := range pkg.Dirs {
			out = append(out, types.OwnedEntry{Package: pkg.Name, Path: h.Path(d), Kind: types.EntryDirectory})
		}
		for _, f := range pkg.Files {
			out = append(out, types.OwnedEntry{Package: pkg.Name, Path: h.Path(f), Kind: types.EntryFile})
		}
	}
	return out
}

// Manifest writes a YAML package database snapshot of host paths and
// returns its location.
func (h *Host) Manifest(pkgs ...Package) string {
	h.t.Helper()

	data, err := yaml.Marshal(map[string]interface{}{"packages": pkgs})
	if err != nil {
		h.t.Fatalf("Failed to marshal manifest: %v", err)
	}
	return CreateFile(h.t, h.t.TempDir(), "contents.yaml", string(data))
}

// VarDB writes a var/db/pkg tree under the host root, one CONTENTS file
// per package, and returns the database directory. Package names are
// "category/name".
func (h *Host) VarDB(pkgs ...Package) string {
	h.t.Helper()

	dir := filepath.Join(h.Root, "var", "db", "pkg")
	for _, pkg := range pkgs {
		var b strings.Builder
		for _, d := range pkg.Dirs {
			fmt.Fprintf(&b, "dir %s\n", d)
		}
		for _, f := range pkg.Files {
			fmt.Fprintf(&b, "obj %s d41d8cd98f00b204e9800998ecf8427e 1700000000\n", f)
		}
		CreateFile(h.t, dir, filepath.Join(pkg.Name, "CONTENTS"), b.String())
	}
	CreateDir(h.t, filepath.Dir(dir), "pkg")
	return dir
}
