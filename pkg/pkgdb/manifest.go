package pkgdb

import (
	"github.com/arthur-debert/libmerge/pkg/errors"
	"github.com/arthur-debert/libmerge/pkg/logging"
	"github.com/arthur-debert/libmerge/pkg/types"
	"gopkg.in/yaml.v3"
)

// ManifestPackage is one package of a manifest snapshot.
type ManifestPackage struct {
	Name  string   `yaml:"name"`
	Files []string `yaml:"files,omitempty"`
	Dirs  []string `yaml:"dirs,omitempty"`
}

// manifestDocument is the top-level YAML document.
type manifestDocument struct {
	Packages []ManifestPackage `yaml:"packages"`
}

// Manifest reads a YAML snapshot of the package database.
type Manifest struct {
	fs   types.FS
	path string
	root string
}

// NewManifest creates a reader for the snapshot at path.
func NewManifest(fs types.FS, path, root string) *Manifest {
	return &Manifest{fs: fs, path: path, root: root}
}

// Describe implements Database.
func (m *Manifest) Describe() string {
	return "manifest " + m.path
}

// Entries implements Database.
func (m *Manifest) Entries() ([]types.OwnedEntry, error) {
	data, err := m.fs.ReadFile(m.path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPackageDB, "cannot read manifest %s", m.path).
			WithDetail("path", m.path)
	}

	var doc manifestDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, errors.ErrPackageDB, "cannot parse manifest %s", m.path).
			WithDetail("path", m.path)
	}

	var entries []types.OwnedEntry
	for _, pkg := range doc.Packages {
		if pkg.Name == "" {
			return nil, errors.Newf(errors.ErrPackageDB, "manifest %s has a package without a name", m.path)
		}
		for _, d := range pkg.Dirs {
			entries = append(entries, types.OwnedEntry{Package: pkg.Name, Path: rooted(m.root, d), Kind: types.EntryDirectory})
		}
		for _, f := range pkg.Files {
			entries = append(entries, types.OwnedEntry{Package: pkg.Name, Path: rooted(m.root, f), Kind: types.EntryFile})
		}
	}

	logger := logging.GetLogger("pkgdb.manifest")
	logger.Info().
		Str("path", m.path).
		Int("packages", len(doc.Packages)).
		Int("entries", len(entries)).
		Msg("Manifest read")
	return entries, nil
}
